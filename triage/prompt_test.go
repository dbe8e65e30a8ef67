package triage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTemplate = `Eres un analista. Condición: {{CONDITION}}

Datos del caso:
{{RECORD_JSON}}

Responde únicamente en JSON con esta forma:
{{OUTPUT_SCHEMA}}`

func testSpec() *PromptSpec {
	return &PromptSpec{
		Condition: "¿El caso involucra robo con violencia?",
		Template:  testTemplate,
		Schema: &OutputSchema{Fields: []SchemaField{
			{Name: "meets_condition", Type: FieldBoolean, Required: true},
			{Name: "confidence", Type: FieldNumber, Required: true},
			{Name: "rationale_short", Type: FieldString},
		}},
	}
}

func TestValidateRejectsMissingMarkers(t *testing.T) {
	spec := testSpec()
	spec.Template = "no markers at all"
	err := spec.Validate()
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	spec = testSpec()
	spec.Template = "only condition: {{CONDITION}}"
	assert.True(t, IsConfigError(spec.Validate()))

	spec = testSpec()
	spec.Condition = "   "
	assert.True(t, IsConfigError(spec.Validate()))
}

func TestValidateAcceptsTemplateWithoutSchemaMarker(t *testing.T) {
	spec := testSpec()
	spec.Template = "{{CONDITION}}\n{{RECORD_JSON}}"
	spec.Schema = nil
	assert.NoError(t, spec.Validate())
}

func TestRenderSubstitutesAllMarkers(t *testing.T) {
	spec := testSpec()
	rec := Record{
		NUC:       "NUC-001",
		Narrative: "El denunciante reporta robo con arma.",
		Metadata:  map[string]any{"delito": "robo"},
	}

	prompt, err := spec.Render(rec)
	require.NoError(t, err)
	assert.Equal(t, "NUC-001", prompt.NUC)
	assert.NotContains(t, prompt.Text, ConditionMarker)
	assert.NotContains(t, prompt.Text, RecordMarker)
	assert.NotContains(t, prompt.Text, SchemaMarker)
	assert.Contains(t, prompt.Text, spec.Condition)
	assert.Contains(t, prompt.Text, `"nuc": "NUC-001"`)
	assert.Contains(t, prompt.Text, `"delito": "robo"`)
	assert.Contains(t, prompt.Text, "```json")
	assert.Equal(t, HashText(prompt.Text), prompt.Hash)
}

func TestRenderDeterministic(t *testing.T) {
	spec := testSpec()
	rec := Record{
		NUC:       "NUC-7",
		Narrative: "texto",
		Metadata:  map[string]any{"b": "2", "a": "1", "c": "3"},
	}

	first, err := spec.Render(rec)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := spec.Render(rec)
		require.NoError(t, err)
		assert.Equal(t, first.Text, again.Text, "render must be byte-identical")
		assert.Equal(t, first.Hash, again.Hash)
	}
}

func TestRenderUpgradesPreFencedMarker(t *testing.T) {
	spec := testSpec()
	spec.Template = "{{CONDITION}}\n```\n{{RECORD_JSON}}\n```\n"
	spec.Schema = nil

	prompt, err := spec.Render(Record{NUC: "N1", Narrative: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(prompt.Text, "```json"), "fence upgraded, not nested")
	assert.NotContains(t, prompt.Text, "```\n```json")
}

func TestSafeNUC(t *testing.T) {
	assert.Equal(t, "NUC-2024_001", SafeNUC("NUC-2024_001"))
	assert.Equal(t, "NUC2024001", SafeNUC("NUC/2024:001 "))
	assert.Equal(t, "unknown", SafeNUC("///"))
	assert.Equal(t, "prompt_NUC-1.md", PromptFilename("NUC-1"))
}

func TestWritePromptsIdempotent(t *testing.T) {
	dir := t.TempDir()
	spec := testSpec()
	records := []Record{
		{NUC: "NUC-1", Narrative: "uno"},
		{NUC: "NUC-2", Narrative: "dos"},
	}

	prompts, err := WritePrompts(spec, records, dir)
	require.NoError(t, err)
	require.Len(t, prompts, 2)

	path := filepath.Join(dir, "prompt_NUC-1.md")
	info1, err := os.Stat(path)
	require.NoError(t, err)

	// Second run: identical hash, artifact untouched
	_, err = WritePrompts(spec, records, dir)
	require.NoError(t, err)
	info2, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime(), "unchanged prompt must not be rewritten")

	// Changed condition: artifact rewritten
	spec.Condition = "¿Condición distinta?"
	_, err = WritePrompts(spec, records, dir)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "¿Condición distinta?")
}

func TestWritePromptsRejectsBadTemplate(t *testing.T) {
	spec := testSpec()
	spec.Template = "missing everything"
	_, err := WritePrompts(spec, []Record{{NUC: "N"}}, t.TempDir())
	assert.True(t, IsConfigError(err))
}
