package triage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/logger"
)

// ModelChecker is optionally implemented by providers that can verify the
// configured model exists before any record is processed.
type ModelChecker interface {
	CheckModel(ctx context.Context) error
}

// Preflight verifies the endpoint configuration when the provider supports
// it. An unknown model or unreachable endpoint aborts the batch here,
// before a single prompt is submitted.
func (inv *Invoker) Preflight(ctx context.Context) error {
	checker, ok := inv.provider.(ModelChecker)
	if !ok {
		return nil
	}
	if err := checker.CheckModel(ctx); err != nil {
		return NewConfigError("model preflight failed", err)
	}
	return nil
}

// RunnerConfig configures batch orchestration.
type RunnerConfig struct {
	PromptsDir   string // prompt artifact directory
	Workers      int    // concurrent records in flight (1 = sequential)
	SkipTerminal bool   // skip records that already have a persisted response
}

// RunResult summarizes one batch run.
type RunResult struct {
	RunID    string
	Records  int // distinct records after deduplication
	Skipped  int // already-terminal records not re-invoked
	Valid    int
	Invalid  int
	Failed   int // persistence failures (response not stored)
	Duration time.Duration
}

// Runner drives the full pipeline: dedupe, prompt construction, invocation,
// persistence. Per-record failures are isolated; only configuration errors
// and cancellation abort the batch.
type Runner struct {
	spec    *PromptSpec
	invoker *Invoker
	store   ResponseStore
	cfg     RunnerConfig
}

// NewRunner wires the pipeline together
func NewRunner(spec *PromptSpec, invoker *Invoker, store ResponseStore, cfg RunnerConfig) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Runner{spec: spec, invoker: invoker, store: store, cfg: cfg}
}

// Run evaluates every unique record. Reruns with unchanged inputs are safe:
// unchanged prompt artifacts are not rewritten and terminal responses are
// not re-invoked.
func (r *Runner) Run(ctx context.Context, records []Record) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{RunID: uuid.NewString()}

	if err := r.spec.Validate(); err != nil {
		return nil, err
	}
	if err := r.invoker.Preflight(ctx); err != nil {
		return nil, err
	}

	unique := Dedupe(records)
	result.Records = len(unique)

	prompts, err := WritePrompts(r.spec, unique, r.cfg.PromptsDir)
	if err != nil {
		return nil, err
	}

	logger.Logger.Infow("starting batch run",
		logger.FieldRunID, result.RunID,
		logger.FieldRecords, len(unique),
		logger.FieldModel, r.invoker.provider.ModelName(),
		"workers", r.cfg.Workers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		abortErr error
		wg       sync.WaitGroup
	)
	jobs := make(chan int)

	abort := func(err error) {
		mu.Lock()
		if abortErr == nil {
			abortErr = err
		}
		mu.Unlock()
		cancel()
	}

	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcome := r.process(runCtx, prompts[idx], unique[idx])
				mu.Lock()
				switch outcome.kind {
				case outcomeSkipped:
					result.Skipped++
				case outcomeValid:
					result.Valid++
				case outcomeInvalid:
					result.Invalid++
				case outcomeFailed:
					result.Failed++
				}
				mu.Unlock()
				if outcome.abort != nil {
					abort(outcome.abort)
					return
				}
			}
		}()
	}

feed:
	for i := range unique {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	mu.Lock()
	err = abortErr
	mu.Unlock()
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result.Duration = time.Since(start)
	logger.Logger.Infow("batch run complete",
		logger.FieldRunID, result.RunID,
		logger.FieldRecords, result.Records,
		logger.FieldSkipped, result.Skipped,
		"valid", result.Valid,
		"invalid", result.Invalid,
		"failed", result.Failed,
		logger.FieldDurationMS, result.Duration.Milliseconds())
	return result, nil
}

type outcomeKind int

const (
	outcomeSkipped outcomeKind = iota
	outcomeValid
	outcomeInvalid
	outcomeFailed
)

type recordOutcome struct {
	kind  outcomeKind
	abort error // non-nil aborts the whole batch
}

// process takes one record from Prompted to a terminal persisted Response.
// Each NUC appears exactly once in the deduplicated set, so at most one
// request per NUC is ever in flight.
func (r *Runner) process(ctx context.Context, prompt Prompt, rec Record) recordOutcome {
	if r.cfg.SkipTerminal {
		if existing, err := r.store.Get(rec.NUC); err == nil && existing != nil {
			logger.Logger.Debugw("terminal response exists, skipping",
				logger.FieldNUC, rec.NUC,
				logger.FieldStatus, string(existing.Status))
			return recordOutcome{kind: outcomeSkipped}
		} else if err != nil && !errors.Is(err, ErrResponseNotFound) {
			logger.Logger.Warnw("store lookup failed, re-evaluating record",
				logger.FieldNUC, rec.NUC, logger.FieldReason, err.Error())
		}
	}

	resp, err := r.invoker.Evaluate(ctx, prompt, rec)
	if err != nil {
		if IsConfigError(err) {
			return recordOutcome{abort: err}
		}
		// Cancellation: nothing persisted, record resumes from Pending next run
		return recordOutcome{kind: outcomeFailed, abort: nil}
	}

	if err := r.store.Put(resp); err != nil {
		perr := &PersistenceError{NUC: rec.NUC, Err: err}
		logger.Logger.Errorw("response not persisted",
			logger.FieldNUC, rec.NUC,
			logger.FieldReason, perr.Error())
		return recordOutcome{kind: outcomeFailed}
	}

	if resp.Status == StatusValid {
		return recordOutcome{kind: outcomeValid}
	}
	return recordOutcome{kind: outcomeInvalid}
}
