// Package promptcfg manages the prompt configuration file: the condition,
// the template, and the output schema the model must answer in. The
// condition and template are edited as plain reference files and synced
// into the JSON config so the pipeline consumes a single artifact.
package promptcfg

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/triage"
)

// Reference file names inside the reference directory
const (
	ConditionFile = "condition.txt"
	TemplateFile  = "template.txt"
)

// Load reads the prompt configuration. Any failure here is a configuration
// error: the run aborts before records are touched.
func Load(path string) (*triage.PromptSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, triage.NewConfigError("unreadable prompt config "+path, err)
	}

	var spec triage.PromptSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, triage.NewConfigError("malformed prompt config "+path, err)
	}
	return &spec, nil
}

// Sync reads condition.txt and template.txt from referenceDir and writes
// them into the prompt config at configPath, preserving any output schema
// already configured there. The config write is temp-then-rename so an
// interrupted sync never truncates it.
func Sync(referenceDir, configPath string) error {
	condition, err := readReference(filepath.Join(referenceDir, ConditionFile))
	if err != nil {
		return err
	}
	template, err := readReference(filepath.Join(referenceDir, TemplateFile))
	if err != nil {
		return err
	}

	spec := &triage.PromptSpec{}
	if existing, err := Load(configPath); err == nil {
		spec = existing
	}
	spec.Condition = condition
	spec.Template = template

	return write(spec, configPath)
}

func readReference(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", triage.NewConfigError("unreadable reference file "+path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// write publishes the spec atomically
func write(spec *triage.PromptSpec, configPath string) error {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal prompt config")
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create config directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".prompt-config-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp config file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write temp config file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temp config file")
	}
	if err := os.Rename(tmpName, configPath); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to publish prompt config to %s", configPath)
	}
	return nil
}
