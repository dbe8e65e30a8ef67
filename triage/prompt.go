package triage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/logger"
)

// Template placeholder markers. Rendering is literal substitution; no other
// templating semantics exist.
const (
	ConditionMarker = "{{CONDITION}}"
	RecordMarker    = "{{RECORD_JSON}}"
	SchemaMarker    = "{{OUTPUT_SCHEMA}}"
)

// PromptSpec is the per-run prompt configuration: the investigative
// condition, the template carrying the placeholder markers, and the output
// schema the model must answer in.
type PromptSpec struct {
	Condition string        `json:"condition"`
	Template  string        `json:"prompt_template"`
	Schema    *OutputSchema `json:"output_schema"`
}

// Validate checks the spec before any record is processed. A template
// missing a required marker is a configuration error, not a per-record
// failure.
func (s *PromptSpec) Validate() error {
	if strings.TrimSpace(s.Condition) == "" {
		return NewConfigError("condition is empty", nil)
	}
	if !strings.Contains(s.Template, ConditionMarker) {
		return NewConfigError("template missing "+ConditionMarker+" marker", nil)
	}
	if !strings.Contains(s.Template, RecordMarker) {
		return NewConfigError("template missing "+RecordMarker+" marker", nil)
	}
	if s.Schema != nil {
		if err := s.Schema.Validate(); err != nil {
			return NewConfigError("invalid output schema", err)
		}
	}
	return nil
}

// Prompt is the fully rendered text for one record, plus the content hash
// that drives skip-if-identical regeneration.
type Prompt struct {
	NUC  string
	Text string
	Hash string
}

// Render produces the prompt text for one record. Identical
// (condition, template, record) inputs always yield byte-identical output:
// the record payload is serialized with sorted keys and fixed indentation.
func (s *PromptSpec) Render(rec Record) (Prompt, error) {
	payload, err := recordPayload(rec)
	if err != nil {
		return Prompt{}, errors.Wrapf(err, "failed to serialize record %s", rec.NUC)
	}

	out := strings.ReplaceAll(s.Template, ConditionMarker, s.Condition)
	if s.Schema != nil {
		out = strings.ReplaceAll(out, SchemaMarker,
			"```json\n"+s.Schema.PromptJSON()+"\n```")
	}
	out = substituteFenced(out, payload)

	return Prompt{NUC: rec.NUC, Text: out, Hash: HashText(out)}, nil
}

// recordPayload flattens a record into one JSON object: nuc, narrative, and
// every metadata column at the top level. encoding/json sorts map keys, so
// the serialization is deterministic.
func recordPayload(rec Record) (string, error) {
	obj := make(map[string]any, len(rec.Metadata)+2)
	for k, v := range rec.Metadata {
		obj[k] = v
	}
	obj["nuc"] = rec.NUC
	obj["narrative"] = rec.Narrative

	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// fencedRecordMarker matches a code fence block that contains only the
// record marker, so templates that pre-fence the placeholder don't end up
// with nested fences.
var fencedRecordMarker = regexp.MustCompile("(?s)```[^`]*?" + regexp.QuoteMeta(RecordMarker) + "[^`]*?```")

// substituteFenced replaces the record marker with the payload inside a
// ```json fence, upgrading any generic fence already wrapping the marker.
func substituteFenced(template, payload string) string {
	fenced := "```json\n" + payload + "\n```"
	if fencedRecordMarker.MatchString(template) {
		return fencedRecordMarker.ReplaceAllLiteralString(template, fenced)
	}
	return strings.ReplaceAll(template, RecordMarker, fenced)
}

// HashText returns the hex SHA-256 of prompt text
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// unsafeChars strips everything outside [A-Za-z0-9_-] from artifact names
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SafeNUC sanitizes a NUC for use in artifact file names
func SafeNUC(nuc string) string {
	safe := unsafeChars.ReplaceAllString(strings.TrimSpace(nuc), "")
	if safe == "" {
		safe = "unknown"
	}
	return safe
}

// PromptFilename returns the deterministic artifact name for a NUC
func PromptFilename(nuc string) string {
	return "prompt_" + SafeNUC(nuc) + ".md"
}

// WritePrompts renders and persists one prompt artifact per record under
// dir. An existing artifact with an identical content hash is left
// untouched, making regeneration idempotent. Records must already be
// deduplicated.
func WritePrompts(spec *PromptSpec, records []Record, dir string) ([]Prompt, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create prompts directory %s", dir)
	}

	prompts := make([]Prompt, 0, len(records))
	skipped := 0

	for _, rec := range records {
		prompt, err := spec.Render(rec)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, prompt)

		path := filepath.Join(dir, PromptFilename(rec.NUC))
		if existing, err := os.ReadFile(path); err == nil {
			if HashText(string(existing)) == prompt.Hash {
				skipped++
				continue
			}
		}
		if err := os.WriteFile(path, []byte(prompt.Text), 0o644); err != nil {
			return nil, errors.Wrapf(err, "failed to write prompt artifact %s", path)
		}
	}

	logger.Logger.Infow("prompt artifacts ready",
		logger.FieldRecords, len(prompts),
		logger.FieldSkipped, skipped,
		logger.FieldPath, dir)
	return prompts, nil
}
