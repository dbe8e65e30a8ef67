package triage

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/logger"
)

// RecordState tracks one record's progress through the evaluation state
// machine. Validated is terminal for both outcomes.
type RecordState string

const (
	StatePending      RecordState = "pending"
	StatePrompted     RecordState = "prompted"
	StateSubmitted    RecordState = "submitted"
	StateRetryPending RecordState = "retry_pending"
	StateValidated    RecordState = "validated"
)

// Provider is the model endpoint contract: one synchronous completion per
// prompt. Implementations classify their failures by returning
// *InvocationError; anything unclassified is treated as transient.
type Provider interface {
	// Generate sends prompt text and returns the raw reply text
	Generate(ctx context.Context, prompt string) (string, error)
	// ModelName returns the configured model identifier
	ModelName() string
}

// InvokerConfig bounds the retry loop.
type InvokerConfig struct {
	MaxAttempts       int           // attempts per record before terminal Invalid
	Backoff           time.Duration // delay between retries of one record
	RequestsPerMinute int           // endpoint pacing across the batch (0 = unpaced)
	MinConfidence     float64       // replies with a numeric "confidence" below this are retried (0 = disabled)
}

// Invoker turns a Prompt into a terminal Response: it submits the prompt,
// validates the reply against the output schema, and retries recoverable
// failures up to the configured bound. It holds no per-record state; one
// Invoker serves a whole batch, concurrently if the runner chooses to.
type Invoker struct {
	provider Provider
	schema   *OutputSchema
	cfg      InvokerConfig
	limiter  *rate.Limiter
}

// NewInvoker builds an Invoker. schema may be nil, in which case any
// parseable JSON object reply is valid.
func NewInvoker(provider Provider, schema *OutputSchema, cfg InvokerConfig) *Invoker {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	return &Invoker{provider: provider, schema: schema, cfg: cfg, limiter: limiter}
}

// Evaluate runs the bounded retry state machine for one record and returns
// its terminal Response. A non-nil error is returned only for terminal
// configuration failures (abort the batch) or context cancellation (nothing
// persisted, record resumes from Pending on the next run). Exhausted
// retries are not an error: they produce a Response with StatusInvalid.
func (inv *Invoker) Evaluate(ctx context.Context, prompt Prompt, rec Record) (*Response, error) {
	state := StatePrompted
	var lastFailure *InvocationError

	for attempt := 1; attempt <= inv.cfg.MaxAttempts; attempt++ {
		state = StateSubmitted
		logger.Logger.Debugw("submitting prompt",
			logger.FieldNUC, rec.NUC,
			logger.FieldAttempt, attempt,
			logger.FieldMaxAttempts, inv.cfg.MaxAttempts,
			logger.FieldStatus, string(state))

		if inv.limiter != nil {
			if err := inv.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		raw, err := inv.provider.Generate(ctx, prompt.Text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			invErr := classify(err)
			if !invErr.Retryable() {
				return nil, NewConfigError("model endpoint rejected the batch", invErr)
			}
			lastFailure = invErr
		} else if fields, vErr := inv.validateReply(raw); vErr != nil {
			lastFailure = vErr
		} else {
			return &Response{
				NUC:        rec.NUC,
				Narrative:  rec.Narrative,
				RawOutput:  raw,
				Fields:     fields,
				Status:     StatusValid,
				Attempts:   attempt,
				Model:      inv.provider.ModelName(),
				PromptHash: prompt.Hash,
				CreatedAt:  time.Now().UTC(),
			}, nil
		}

		state = StateRetryPending
		logger.Logger.Debugw("attempt failed",
			logger.FieldNUC, rec.NUC,
			logger.FieldAttempt, attempt,
			logger.FieldReason, lastFailure.Error(),
			logger.FieldStatus, string(state))

		if attempt < inv.cfg.MaxAttempts && inv.cfg.Backoff > 0 {
			if err := sleepCtx(ctx, inv.cfg.Backoff); err != nil {
				return nil, err
			}
		}
	}

	state = StateValidated
	logger.Logger.Warnw("retries exhausted",
		logger.FieldNUC, rec.NUC,
		logger.FieldMaxAttempts, inv.cfg.MaxAttempts,
		logger.FieldReason, lastFailure.Error(),
		logger.FieldStatus, string(state))

	return &Response{
		NUC:           rec.NUC,
		Narrative:     rec.Narrative,
		Status:        StatusInvalid,
		Attempts:      inv.cfg.MaxAttempts,
		FailureReason: lastFailure.Error(),
		Model:         inv.provider.ModelName(),
		PromptHash:    prompt.Hash,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// validateReply parses and schema-checks one raw reply
func (inv *Invoker) validateReply(raw string) (map[string]any, *InvocationError) {
	fields, err := ParseReply(raw)
	if err != nil {
		return nil, NewInvocationError(FailureSchema, err)
	}
	if inv.schema != nil {
		if err := inv.schema.CheckReply(fields); err != nil {
			return nil, NewInvocationError(FailureSchema, err)
		}
	}
	if inv.cfg.MinConfidence > 0 {
		if conf, ok := fields["confidence"].(float64); ok && conf < inv.cfg.MinConfidence {
			return nil, NewInvocationError(FailureSchema,
				errors.Newf("confidence=%.2f below threshold %.2f", conf, inv.cfg.MinConfidence))
		}
	}
	return fields, nil
}

// classify maps a provider error onto the failure taxonomy. Providers that
// already return *InvocationError keep their classification; anything else
// is assumed transient (timeouts, refused connections, 5xx).
func classify(err error) *InvocationError {
	var invErr *InvocationError
	if errors.As(err, &invErr) {
		return invErr
	}
	return NewInvocationError(FailureTransient, err)
}

// sleepCtx blocks for d or until ctx is done, whichever comes first. Only
// the calling record's task blocks; concurrent records keep progressing.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s RecordState) String() string { return string(s) }
