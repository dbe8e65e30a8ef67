package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaValidate(t *testing.T) {
	good := &OutputSchema{Fields: []SchemaField{
		{Name: "meets_condition", Type: FieldBoolean, Required: true},
		{Name: "confidence", Type: FieldNumber},
	}}
	assert.NoError(t, good.Validate())

	assert.Error(t, (&OutputSchema{}).Validate())
	assert.Error(t, (&OutputSchema{Fields: []SchemaField{{Name: "", Type: FieldString}}}).Validate())
	assert.Error(t, (&OutputSchema{Fields: []SchemaField{{Name: "x", Type: "json"}}}).Validate())
	assert.Error(t, (&OutputSchema{Fields: []SchemaField{
		{Name: "x", Type: FieldString},
		{Name: "x", Type: FieldNumber},
	}}).Validate())
}

func TestSchemaPromptJSON(t *testing.T) {
	s := &OutputSchema{Fields: []SchemaField{
		{Name: "meets_condition", Type: FieldBoolean},
		{Name: "confidence", Type: FieldNumber},
	}}
	want := "{\n  \"meets_condition\": \"boolean\",\n  \"confidence\": \"number\"\n}"
	assert.Equal(t, want, s.PromptJSON())
}

func TestCheckReply(t *testing.T) {
	s := &OutputSchema{Fields: []SchemaField{
		{Name: "meets_condition", Type: FieldBoolean, Required: true},
		{Name: "confidence", Type: FieldNumber, Required: true},
		{Name: "rationale_short", Type: FieldString},
	}}

	assert.NoError(t, s.CheckReply(map[string]any{
		"meets_condition": true,
		"confidence":      0.85,
		"rationale_short": "la narrativa describe robo",
	}))

	// Optional field may be absent
	assert.NoError(t, s.CheckReply(map[string]any{
		"meets_condition": false,
		"confidence":      0.4,
	}))

	// Required field missing
	assert.Error(t, s.CheckReply(map[string]any{"confidence": 0.9}))
	// Required field null
	assert.Error(t, s.CheckReply(map[string]any{"meets_condition": nil, "confidence": 0.9}))
	// Type mismatches
	assert.Error(t, s.CheckReply(map[string]any{"meets_condition": "yes", "confidence": 0.9}))
	assert.Error(t, s.CheckReply(map[string]any{"meets_condition": true, "confidence": "high"}))
}

func TestParseReplyDirectJSON(t *testing.T) {
	fields, err := ParseReply(`{"meets_condition": true, "confidence": 0.9}`)
	require.NoError(t, err)
	assert.Equal(t, true, fields["meets_condition"])
	assert.Equal(t, 0.9, fields["confidence"])
}

func TestParseReplyFencedJSON(t *testing.T) {
	raw := "Aquí está mi análisis:\n```json\n{\"meets_condition\": false}\n```"
	fields, err := ParseReply(raw)
	require.NoError(t, err)
	assert.Equal(t, false, fields["meets_condition"])

	// Generic fence without language tag
	raw = "```\n{\"confidence\": 0.5}\n```"
	fields, err = ParseReply(raw)
	require.NoError(t, err)
	assert.Equal(t, 0.5, fields["confidence"])
}

func TestParseReplyGarbage(t *testing.T) {
	_, err := ParseReply("I think the case meets the condition.")
	assert.Error(t, err)

	_, err = ParseReply("```json\n{truncated\n```")
	assert.Error(t, err)
}

func TestCleanReply(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, CleanReply("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, CleanReply("  {\"a\": 1}  "))
}
