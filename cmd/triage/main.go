package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teranos/triage/cmd/triage/commands"
	"github.com/teranos/triage/logger"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "triage - Batch case-record evaluation against a local model",
	Long: `triage - Batch evaluation of case records against a local inference model.

Each record's narrative is rendered into a deterministic prompt, submitted
to a local OpenAI-compatible endpoint (Ollama, LocalAI), validated against
the configured output schema, and persisted as an auditable response
artifact. Reruns skip records that already have a terminal response.

Available commands:
  run     - Evaluate a batch of records from a CSV or JSONL file
  prompts - Render prompt artifacts without invoking the model
  prompt  - Manage the prompt configuration (sync, watch, show)
  summary - Aggregate persisted responses into a summary table
  am      - Manage triage configuration ("I am")

Examples:
  triage run casos.csv              # Evaluate every record in the file
  triage run casos.csv --workers 4  # Bounded concurrent evaluation
  triage prompt sync                # Sync condition.txt/template.txt into the prompt config
  triage prompt sync --watch        # Keep syncing on reference file edits
  triage summary casos.csv          # Write the summary CSV for that batch
  triage am show                    # Show current configuration`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize global logger before any command runs.
		// Skip for commands whose stdout is the artifact (like 'am show').
		if cmd.Name() == "show" {
			return nil
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.InitializeWithVerbosity(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON instead of console output")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.PromptsCmd)
	rootCmd.AddCommand(commands.PromptCmd)
	rootCmd.AddCommand(commands.SummaryCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
