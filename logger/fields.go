package logger

// Standard field names for consistent structured logging across triage.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldNUC   = "nuc"
	FieldRunID = "run_id"
	FieldModel = "model"

	// Pipeline state
	FieldAttempt     = "attempt"
	FieldMaxAttempts = "max_attempts"
	FieldStatus      = "status"
	FieldReason      = "reason"

	// Artifacts
	FieldPath = "path"
	FieldHash = "hash"

	// Timing
	FieldDurationMS = "duration_ms"

	// Counts
	FieldRecords    = "records"
	FieldDuplicates = "duplicates"
	FieldSkipped    = "skipped"
)
