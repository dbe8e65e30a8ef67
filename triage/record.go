// Package triage implements the record evaluation pipeline: deduplication,
// deterministic prompt construction, model invocation with bounded retry,
// idempotent response persistence, and summary aggregation.
package triage

import (
	"github.com/teranos/triage/logger"
)

// Record is one case record read from an external source. Records are
// immutable once read; the pipeline never writes back to the source.
type Record struct {
	// NUC is the unique case identifier the whole pipeline is keyed by
	NUC string `json:"nuc"`
	// Narrative is the free-text account the condition is evaluated against
	Narrative string `json:"narrative"`
	// Metadata carries any additional source columns through to the prompt
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Source is an ordered sequence of records. How records are originally
// stored (spreadsheet, database, API) is the source's concern.
type Source interface {
	// Records returns all records in source order
	Records() ([]Record, error)
}

// Dedupe collapses records sharing a NUC, keeping the first occurrence and
// dropping later duplicates. Duplicates are logged, never an error. Order
// of first occurrences is preserved so prompt generation stays
// deterministic across reruns.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	unique := make([]Record, 0, len(records))
	dropped := 0

	for _, rec := range records {
		if _, ok := seen[rec.NUC]; ok {
			dropped++
			logger.Logger.Warnw("dropping duplicate record",
				logger.FieldNUC, rec.NUC)
			continue
		}
		seen[rec.NUC] = struct{}{}
		unique = append(unique, rec)
	}

	if dropped > 0 {
		logger.Logger.Infow("deduplicated record set",
			logger.FieldRecords, len(unique),
			logger.FieldDuplicates, dropped)
	}
	return unique
}
