package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.backend", BackendFilesystem)
	v.SetDefault("database.path", "triage.db")

	// Local inference (Ollama) defaults
	v.SetDefault("local_inference.base_url", "http://localhost:11434")
	v.SetDefault("local_inference.model", "llama3.2:3b")
	v.SetDefault("local_inference.timeout_seconds", 120)
	v.SetDefault("local_inference.temperature", 0.1) // Deterministic triage decisions
	v.SetDefault("local_inference.context_size", 0)  // Model default

	// Batch loop defaults
	v.SetDefault("batch.max_attempts", 3)
	v.SetDefault("batch.backoff_ms", 2000)
	v.SetDefault("batch.workers", 1) // Sequential: one shared local endpoint
	v.SetDefault("batch.requests_per_minute", 0)
	v.SetDefault("batch.min_confidence", 0.0)
	v.SetDefault("batch.skip_terminal_responses", true)

	// Prompt construction defaults
	v.SetDefault("prompt.config_path", "prompt/prompt_config.json")
	v.SetDefault("prompt.reference_dir", "prompt/reference")
	v.SetDefault("prompt.prompts_dir", "output/prompts")

	// Output defaults
	v.SetDefault("output.responses_dir", "output/responses")
	v.SetDefault("output.summary_path", "output/summary/results.csv")
	v.SetDefault("output.excerpt_length", 200)
}
