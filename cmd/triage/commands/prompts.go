package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/triage/am"
	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/promptcfg"
	"github.com/teranos/triage/triage"
)

// PromptsCmd renders prompt artifacts without invoking the model
var PromptsCmd = &cobra.Command{
	Use:   "prompts <records-file>",
	Short: "Render prompt artifacts for a batch without invoking the model",
	Long: `Render one prompt file per unique record into the prompts directory.

This is the first pipeline stage on its own: useful for inspecting what
the model will be asked before spending any inference time. Artifacts
whose content is unchanged are not rewritten, so this is safe to repeat.

Examples:
  triage prompts casos.csv
  triage prompts casos.jsonl --nuc-column folio`,
	Args: cobra.ExactArgs(1),
	RunE: runPrompts,
}

var (
	promptsNUCCol  string
	promptsNarrCol string
)

func init() {
	PromptsCmd.Flags().StringVar(&promptsNUCCol, "nuc-column", "", "Column/field holding the record identifier")
	PromptsCmd.Flags().StringVar(&promptsNarrCol, "narrative-column", "", "Column/field holding the narrative text")
}

func runPrompts(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	source, err := sourceForFile(args[0], promptsNUCCol, promptsNarrCol)
	if err != nil {
		return err
	}
	records, err := source.Records()
	if err != nil {
		return err
	}

	spec, err := promptcfg.Load(cfg.Prompt.ConfigPath)
	if err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	unique := triage.Dedupe(records)
	prompts, err := triage.WritePrompts(spec, unique, cfg.Prompt.PromptsDir)
	if err != nil {
		return err
	}

	pterm.Success.Printf("Rendered %d prompts into %s (%d records, %d duplicates)\n",
		len(prompts), cfg.Prompt.PromptsDir, len(records), len(records)-len(unique))
	return nil
}
