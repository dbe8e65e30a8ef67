package commands

import (
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/triage/ai/provider"
	"github.com/teranos/triage/am"
	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/ingest"
	"github.com/teranos/triage/promptcfg"
	"github.com/teranos/triage/store"
	"github.com/teranos/triage/triage"
)

var (
	runWorkers   int
	runNUCCol    string
	runNarrCol   string
	runForce     bool
	runNoSummary bool
)

// RunCmd evaluates a batch of records
var RunCmd = &cobra.Command{
	Use:   "run <records-file>",
	Short: "Evaluate a batch of records from a CSV or JSONL file",
	Long: `Evaluate every record in the given file against the local model.

Records are deduplicated by NUC (first occurrence wins), rendered into
prompt artifacts, submitted to the configured endpoint, and their validated
responses persisted. Records that already have a terminal response are
skipped, so rerunning over unchanged inputs is cheap and safe.

Examples:
  triage run casos.csv                  # Sequential evaluation
  triage run casos.jsonl --workers 4    # Up to 4 records in flight
  triage run casos.csv --force          # Re-evaluate even terminal records
  triage run casos.csv --nuc-column folio_interno`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	RunCmd.Flags().IntVar(&runWorkers, "workers", 0, "Concurrent records in flight (overrides batch.workers)")
	RunCmd.Flags().StringVar(&runNUCCol, "nuc-column", "", "Column/field holding the record identifier")
	RunCmd.Flags().StringVar(&runNarrCol, "narrative-column", "", "Column/field holding the narrative text")
	RunCmd.Flags().BoolVar(&runForce, "force", false, "Re-evaluate records that already have a terminal response")
	RunCmd.Flags().BoolVar(&runNoSummary, "no-summary", false, "Skip writing the summary CSV after the run")
}

// sourceForFile picks a record source by file extension
func sourceForFile(path, nucCol, narrCol string) (triage.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return &ingest.CSVSource{Path: path, NUCColumn: nucCol, NarrativeColumn: narrCol}, nil
	case ".jsonl", ".ndjson":
		return &ingest.JSONLSource{Path: path, NUCColumn: nucCol, NarrativeColumn: narrCol}, nil
	default:
		return nil, errors.Newf("unsupported records file %s (supported: .csv, .jsonl)", path)
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	source, err := sourceForFile(args[0], runNUCCol, runNarrCol)
	if err != nil {
		return err
	}
	records, err := source.Records()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		pterm.Warning.Printf("No records found in %s\n", args[0])
		return nil
	}

	spec, err := promptcfg.Load(cfg.Prompt.ConfigPath)
	if err != nil {
		return err
	}

	responseStore, closeStore, err := store.Open(cfg.Database, cfg.Output.ResponsesDir)
	if err != nil {
		return err
	}
	defer closeStore()

	workers := cfg.Batch.Workers
	if runWorkers > 0 {
		workers = runWorkers
	}

	invoker := triage.NewInvoker(provider.NewLocalProvider(&cfg.LocalInference), spec.Schema, triage.InvokerConfig{
		MaxAttempts:       cfg.Batch.MaxAttempts,
		Backoff:           time.Duration(cfg.Batch.BackoffMS) * time.Millisecond,
		RequestsPerMinute: cfg.Batch.RequestsPerMinute,
		MinConfidence:     cfg.Batch.MinConfidence,
	})
	runner := triage.NewRunner(spec, invoker, responseStore, triage.RunnerConfig{
		PromptsDir:   cfg.Prompt.PromptsDir,
		Workers:      workers,
		SkipTerminal: cfg.Batch.SkipTerminalResponses && !runForce,
	})

	pterm.DefaultHeader.WithFullWidth().Printf("Batch Evaluation - %s", cfg.LocalInference.Model)
	pterm.Println()
	pterm.Info.Printf("Records file: %s (%d rows)\n", args[0], len(records))
	pterm.Info.Printf("Endpoint: %s\n", cfg.LocalInference.BaseURL)
	pterm.Info.Printf("Workers: %d\n", workers)
	pterm.Println()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	spinner, _ := pterm.DefaultSpinner.Start("Evaluating records...")
	result, err := runner.Run(ctx, records)
	if err != nil {
		spinner.Fail("Batch aborted")
		return err
	}
	spinner.Success("Batch complete")

	pterm.Println()
	pterm.Success.Printf("Run %s finished\n", result.RunID)
	pterm.Println()
	pterm.Info.Printf("Statistics:\n")
	pterm.Printf("  Unique records: %d\n", result.Records)
	pterm.Printf("  Skipped (terminal): %d\n", result.Skipped)
	pterm.Printf("  Valid: %d\n", result.Valid)
	pterm.Printf("  Invalid: %d\n", result.Invalid)
	pterm.Printf("  Persistence failures: %d\n", result.Failed)
	pterm.Printf("  Duration: %s\n", result.Duration.Round(time.Millisecond))
	pterm.Println()

	if runNoSummary {
		return nil
	}
	if err := writeSummary(cfg, responseStore, spec, records); err != nil {
		return err
	}
	pterm.Info.Printf("Summary written to %s\n", cfg.Output.SummaryPath)
	return nil
}

// writeSummary aggregates all persisted responses into the summary CSV,
// flagging any of this batch's records that ended without one.
func writeSummary(cfg *am.Config, responseStore triage.ResponseStore, spec *triage.PromptSpec, records []triage.Record) error {
	expected := make([]string, 0, len(records))
	for _, rec := range triage.Dedupe(records) {
		expected = append(expected, rec.NUC)
	}

	agg := triage.NewAggregator(responseStore, spec.Schema, cfg.Output.ExcerptLength)
	rows, err := agg.Rows(expected)
	if err != nil {
		return err
	}
	return agg.WriteCSV(cfg.Output.SummaryPath, rows)
}
