package triage

import (
	"time"

	"github.com/teranos/triage/errors"
)

// ValidationStatus is the terminal outcome of one record's evaluation.
type ValidationStatus string

const (
	// StatusValid means the model reply parsed and conformed to the schema
	StatusValid ValidationStatus = "valid"
	// StatusInvalid means every attempt was exhausted without a conformant
	// reply; the failure reason records why
	StatusInvalid ValidationStatus = "invalid"
)

// Response is the persisted result for one record. It always embeds the
// record's original narrative so audit never needs a join back to the
// source data. A persisted Response is terminal and never mutated.
type Response struct {
	NUC           string           `json:"nuc"`
	Narrative     string           `json:"narrative"`
	RawOutput     string           `json:"raw_output,omitempty"`
	Fields        map[string]any   `json:"fields,omitempty"`
	Status        ValidationStatus `json:"status"`
	Attempts      int              `json:"attempts"`
	FailureReason string           `json:"failure_reason,omitempty"`
	Model         string           `json:"model,omitempty"`
	PromptHash    string           `json:"prompt_hash,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ErrResponseNotFound is returned by store lookups for an absent NUC
var ErrResponseNotFound = errors.New("response not found")

// ResponseStore persists exactly one Response per NUC. Put must be atomic
// with respect to process interruption: a reader observes either nothing or
// a complete artifact, never partial content.
type ResponseStore interface {
	// Get returns the persisted response for nuc, or ErrResponseNotFound
	Get(nuc string) (*Response, error)
	// Put atomically publishes the response, replacing any previous one
	Put(resp *Response) error
	// List enumerates all persisted responses in unspecified order
	List() ([]*Response, error)
}
