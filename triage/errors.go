package triage

import (
	"github.com/teranos/triage/errors"
)

// ErrNoResponses is returned by the Aggregator when the response store holds
// nothing at all. Individual missing or malformed responses are flagged in
// the summary instead.
var ErrNoResponses = errors.New("no response artifacts to summarize")

// ConfigError marks a configuration-level failure: malformed template,
// unreadable condition, unknown model. These abort the whole run before any
// model calls are made.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return "configuration error: " + e.Reason + ": " + e.Err.Error()
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps err as a terminal configuration failure
func NewConfigError(reason string, err error) *ConfigError {
	return &ConfigError{Reason: reason, Err: err}
}

// IsConfigError reports whether err is (or wraps) a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// FailureKind classifies one failed model invocation attempt.
type FailureKind string

const (
	// FailureTransient covers transport-level failures: timeout, connection
	// refused, 5xx. Always retryable.
	FailureTransient FailureKind = "transient"
	// FailureSchema covers replies that are not parseable JSON or that do
	// not conform to the output schema. Retryable up to the attempt limit.
	FailureSchema FailureKind = "schema"
	// FailureConfig covers endpoint misconfiguration discovered mid-call,
	// such as an unknown model name. Terminal for the whole batch.
	FailureConfig FailureKind = "config"
)

// InvocationError carries the classification of a failed attempt so retry
// handling works on an inspectable value rather than string matching.
type InvocationError struct {
	Kind FailureKind
	Err  error
}

func (e *InvocationError) Error() string {
	return string(e.Kind) + " invocation failure: " + e.Err.Error()
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed
func (e *InvocationError) Retryable() bool {
	return e.Kind != FailureConfig
}

// NewInvocationError classifies err under kind
func NewInvocationError(kind FailureKind, err error) *InvocationError {
	return &InvocationError{Kind: kind, Err: err}
}

// PersistenceError marks a storage write failure for one record. It is fatal
// for that record but does not abort the batch; the atomic-write discipline
// in the store guarantees no partial artifact was left behind.
type PersistenceError struct {
	NUC string
	Err error
}

func (e *PersistenceError) Error() string {
	return "failed to persist response for " + e.NUC + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
