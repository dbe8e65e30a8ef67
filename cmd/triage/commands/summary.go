package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/triage/am"
	"github.com/teranos/triage/display"
	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/promptcfg"
	"github.com/teranos/triage/store"
	"github.com/teranos/triage/triage"
)

var summaryOut string

// SummaryCmd aggregates persisted responses into the summary table
var SummaryCmd = &cobra.Command{
	Use:   "summary [records-file]",
	Short: "Aggregate persisted responses into a summary CSV",
	Long: `Recompute the summary table from all persisted responses.

When a records file is given, its NUCs define the expected set: any of
them without a readable response appears as a flagged row rather than
being omitted. Without one, the summary covers the store contents alone.
Aggregation never re-invokes the model.

Examples:
  triage summary                   # Summarize everything in the store
  triage summary casos.csv         # Flag records from that batch with no response
  triage summary --out informe.csv # Write somewhere other than the configured path`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummary,
}

func init() {
	SummaryCmd.Flags().StringVar(&summaryOut, "out", "", "Output path (overrides output.summary_path)")
	SummaryCmd.Flags().BoolP("json", "j", false, "Print summary rows as JSON instead of writing the CSV preview")
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	var expected []string
	if len(args) == 1 {
		source, err := sourceForFile(args[0], "", "")
		if err != nil {
			return err
		}
		records, err := source.Records()
		if err != nil {
			return err
		}
		for _, rec := range triage.Dedupe(records) {
			expected = append(expected, rec.NUC)
		}
	}

	// The schema orders the flattened columns; a missing prompt config just
	// means columns derive from the responses themselves.
	var schema *triage.OutputSchema
	if spec, err := promptcfg.Load(cfg.Prompt.ConfigPath); err == nil {
		schema = spec.Schema
	}

	responseStore, closeStore, err := store.Open(cfg.Database, cfg.Output.ResponsesDir)
	if err != nil {
		return err
	}
	defer closeStore()

	agg := triage.NewAggregator(responseStore, schema, cfg.Output.ExcerptLength)
	rows, err := agg.Rows(expected)
	if err != nil {
		if errors.Is(err, triage.ErrNoResponses) {
			pterm.Warning.Println("No responses to summarize yet; run a batch first")
			return nil
		}
		return err
	}

	path := cfg.Output.SummaryPath
	if summaryOut != "" {
		path = summaryOut
	}
	if err := agg.WriteCSV(path, rows); err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(rows)
	}

	pterm.Success.Printf("Summary written to %s\n", path)
	display.RenderSummary(rows)
	return nil
}
