package am

import "github.com/teranos/triage/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case BackendFilesystem, BackendSQLite:
	default:
		return errors.Newf("database.backend must be %q or %q, got %q",
			BackendFilesystem, BackendSQLite, c.Database.Backend)
	}
	if c.Database.Backend == BackendSQLite && c.Database.Path == "" {
		return errors.New("database.path cannot be empty with the sqlite backend")
	}

	if c.LocalInference.BaseURL == "" {
		return errors.New("local_inference.base_url cannot be empty")
	}
	if c.LocalInference.Model == "" {
		return errors.New("local_inference.model cannot be empty")
	}
	if c.LocalInference.TimeoutSeconds <= 0 {
		return errors.Newf("local_inference.timeout_seconds must be > 0, got %d", c.LocalInference.TimeoutSeconds)
	}

	if c.Batch.MaxAttempts < 1 {
		return errors.Newf("batch.max_attempts must be >= 1, got %d", c.Batch.MaxAttempts)
	}
	if c.Batch.BackoffMS < 0 {
		return errors.Newf("batch.backoff_ms must be >= 0, got %d", c.Batch.BackoffMS)
	}
	if c.Batch.Workers < 1 {
		return errors.Newf("batch.workers must be >= 1, got %d", c.Batch.Workers)
	}
	if c.Batch.RequestsPerMinute < 0 {
		return errors.Newf("batch.requests_per_minute must be >= 0, got %d", c.Batch.RequestsPerMinute)
	}
	if c.Batch.MinConfidence < 0 || c.Batch.MinConfidence > 1 {
		return errors.Newf("batch.min_confidence must be in [0, 1], got %f", c.Batch.MinConfidence)
	}

	if c.Prompt.ConfigPath == "" {
		return errors.New("prompt.config_path cannot be empty")
	}
	if c.Prompt.PromptsDir == "" {
		return errors.New("prompt.prompts_dir cannot be empty")
	}

	if c.Output.ExcerptLength < 0 {
		return errors.Newf("output.excerpt_length must be >= 0, got %d", c.Output.ExcerptLength)
	}

	return nil
}
