package am

// Config represents the core triage configuration
type Config struct {
	Database       DatabaseConfig       `mapstructure:"database" toml:"database"`
	LocalInference LocalInferenceConfig `mapstructure:"local_inference" toml:"local_inference"`
	Batch          BatchConfig          `mapstructure:"batch" toml:"batch"`
	Prompt         PromptConfig         `mapstructure:"prompt" toml:"prompt"`
	Output         OutputConfig         `mapstructure:"output" toml:"output"`
}

// DatabaseConfig configures where response artifacts are persisted
type DatabaseConfig struct {
	Backend string `mapstructure:"backend" toml:"backend"` // "filesystem" or "sqlite"
	Path    string `mapstructure:"path" toml:"path"`       // sqlite file path (sqlite backend only)
}

// Response store backend names
const (
	BackendFilesystem = "filesystem"
	BackendSQLite     = "sqlite"
)

// LocalInferenceConfig configures the local model endpoint (Ollama, LocalAI,
// or any OpenAI-compatible server)
type LocalInferenceConfig struct {
	BaseURL        string   `mapstructure:"base_url" toml:"base_url"`               // e.g., "http://localhost:11434"
	Model          string   `mapstructure:"model" toml:"model"`                     // e.g., "llama3.2:3b", "gpt-oss:latest"
	TimeoutSeconds int      `mapstructure:"timeout_seconds" toml:"timeout_seconds"` // Request timeout in seconds
	Temperature    *float64 `mapstructure:"temperature" toml:"temperature"`         // Sampling temperature (nil = default 0.1)
	ContextSize    int      `mapstructure:"context_size" toml:"context_size"`       // Context window size (0 = model default)
}

// BatchConfig configures the record evaluation loop
type BatchConfig struct {
	MaxAttempts           int     `mapstructure:"max_attempts" toml:"max_attempts"`                       // Invocation attempts per record before terminal Invalid
	BackoffMS             int     `mapstructure:"backoff_ms" toml:"backoff_ms"`                           // Base delay between retries for one record
	Workers               int     `mapstructure:"workers" toml:"workers"`                                 // Concurrent records in flight (1 = sequential)
	RequestsPerMinute     int     `mapstructure:"requests_per_minute" toml:"requests_per_minute"`         // Endpoint pacing (0 = unpaced)
	MinConfidence         float64 `mapstructure:"min_confidence" toml:"min_confidence"`                   // Retry replies whose confidence falls below this (0 = disabled)
	SkipTerminalResponses bool    `mapstructure:"skip_terminal_responses" toml:"skip_terminal_responses"` // Rerun safety: skip records with a terminal response
}

// PromptConfig configures prompt construction inputs and artifacts
type PromptConfig struct {
	ConfigPath   string `mapstructure:"config_path" toml:"config_path"`     // prompt_config.json (condition + template + output schema)
	ReferenceDir string `mapstructure:"reference_dir" toml:"reference_dir"` // editable condition.txt / template.txt source files
	PromptsDir   string `mapstructure:"prompts_dir" toml:"prompts_dir"`     // rendered prompt artifacts, one file per NUC
}

// OutputConfig configures response and summary artifacts
type OutputConfig struct {
	ResponsesDir  string `mapstructure:"responses_dir" toml:"responses_dir"`   // filesystem backend: one JSON file per NUC
	SummaryPath   string `mapstructure:"summary_path" toml:"summary_path"`     // aggregated CSV
	ExcerptLength int    `mapstructure:"excerpt_length" toml:"excerpt_length"` // narrative excerpt length in summary rows
}
