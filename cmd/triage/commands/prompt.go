package commands

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/triage/am"
	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/promptcfg"
)

var promptWatch bool

// PromptCmd manages the prompt configuration
var PromptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Manage the prompt configuration",
	Long: `prompt — Manage the condition, template, and output schema.

The condition and template are edited as plain text reference files
(condition.txt, template.txt) and synced into the JSON prompt config the
pipeline consumes. The output schema lives in the config itself.

Examples:
  triage prompt sync           # Sync reference files into the prompt config
  triage prompt sync --watch   # Keep syncing whenever reference files change
  triage prompt show           # Print the effective prompt configuration`,
}

var promptSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync condition.txt and template.txt into the prompt config",
	RunE:  runPromptSync,
}

var promptShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective prompt configuration",
	RunE:  runPromptShow,
}

func init() {
	promptSyncCmd.Flags().BoolVar(&promptWatch, "watch", false, "Keep watching the reference directory and re-sync on change")

	PromptCmd.AddCommand(promptSyncCmd)
	PromptCmd.AddCommand(promptShowCmd)
}

func runPromptSync(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if cfg.Prompt.ReferenceDir == "" {
		return errors.New("prompt.reference_dir is not configured")
	}

	if err := promptcfg.Sync(cfg.Prompt.ReferenceDir, cfg.Prompt.ConfigPath); err != nil {
		return err
	}
	pterm.Success.Printf("Synced %s -> %s\n", cfg.Prompt.ReferenceDir, cfg.Prompt.ConfigPath)

	if !promptWatch {
		return nil
	}

	watcher, err := promptcfg.NewWatcher(cfg.Prompt.ReferenceDir, cfg.Prompt.ConfigPath)
	if err != nil {
		return err
	}
	watcher.Start()
	defer watcher.Stop()

	pterm.Info.Printf("Watching %s for changes (Ctrl+C to stop)\n", cfg.Prompt.ReferenceDir)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	pterm.Println()
	pterm.Info.Println("Stopped watching")
	return nil
}

func runPromptShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	spec, err := promptcfg.Load(cfg.Prompt.ConfigPath)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal prompt config")
	}
	fmt.Println(string(data))

	if err := spec.Validate(); err != nil {
		return err
	}
	return nil
}
