package promptcfg

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/triage/triage"
)

func writeReference(t *testing.T, dir, condition, template string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConditionFile), []byte(condition), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TemplateFile), []byte(template), 0o644))
}

const testTemplate = `Condición: {{CONDITION}}

Datos del caso:
{{RECORD_JSON}}

Responde en JSON con esta forma:
{{OUTPUT_SCHEMA}}`

func TestSyncCreatesConfig(t *testing.T) {
	refDir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "prompt_config.json")
	writeReference(t, refDir, "¿El caso involucra violencia familiar?\n", testTemplate)

	require.NoError(t, Sync(refDir, configPath))

	spec, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "¿El caso involucra violencia familiar?", spec.Condition)
	assert.Contains(t, spec.Template, triage.ConditionMarker)
	assert.Nil(t, spec.Schema)
}

func TestSyncPreservesSchema(t *testing.T) {
	refDir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "prompt_config.json")
	writeReference(t, refDir, "condición vieja", testTemplate)

	// Seed a config that already carries a schema
	seed := &triage.PromptSpec{
		Condition: "condición vieja",
		Template:  testTemplate,
		Schema: &triage.OutputSchema{Fields: []triage.SchemaField{
			{Name: "meets_condition", Type: triage.FieldBoolean, Required: true},
		}},
	}
	data, err := json.MarshalIndent(seed, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0o644))

	writeReference(t, refDir, "condición nueva", testTemplate)
	require.NoError(t, Sync(refDir, configPath))

	spec, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "condición nueva", spec.Condition)
	require.NotNil(t, spec.Schema, "sync must not drop the output schema")
	assert.Equal(t, "meets_condition", spec.Schema.Fields[0].Name)
}

func TestSyncMissingReferenceIsConfigError(t *testing.T) {
	refDir := t.TempDir() // empty: no condition.txt
	configPath := filepath.Join(t.TempDir(), "prompt_config.json")

	err := Sync(refDir, configPath)
	require.Error(t, err)
	assert.True(t, triage.IsConfigError(err))
}

func TestLoadMalformedConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "prompt_config.json")
	require.NoError(t, os.WriteFile(configPath, []byte("{broken"), 0o644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.True(t, triage.IsConfigError(err))
}

func TestWatcherSyncsOnChange(t *testing.T) {
	refDir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "prompt_config.json")
	writeReference(t, refDir, "inicial", testTemplate)
	require.NoError(t, Sync(refDir, configPath))

	w, err := NewWatcher(refDir, configPath)
	require.NoError(t, err)
	w.debouncePeriod = 50 * time.Millisecond
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(refDir, ConditionFile), []byte("actualizada"), 0o644))

	require.Eventually(t, func() bool {
		spec, err := Load(configPath)
		return err == nil && spec.Condition == "actualizada"
	}, 3*time.Second, 25*time.Millisecond, "watcher should re-sync after a reference edit")
}
