package triage

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/teranos/triage/errors"
)

// SchemaField describes one decision field the model must return.
type SchemaField struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // "string", "number", or "boolean"
	Required bool   `json:"required"`
}

// Schema field type names
const (
	FieldString  = "string"
	FieldNumber  = "number"
	FieldBoolean = "boolean"
)

// OutputSchema is the caller-defined shape of a valid model reply. It drives
// both the schema section of the rendered prompt and reply validation.
type OutputSchema struct {
	Fields []SchemaField `json:"fields"`
}

// Validate checks the schema definition itself
func (s *OutputSchema) Validate() error {
	if len(s.Fields) == 0 {
		return errors.New("output schema has no fields")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return errors.New("output schema field with empty name")
		}
		if _, dup := seen[f.Name]; dup {
			return errors.Newf("output schema field %q defined twice", f.Name)
		}
		seen[f.Name] = struct{}{}
		switch f.Type {
		case FieldString, FieldNumber, FieldBoolean:
		default:
			return errors.Newf("output schema field %q has unknown type %q", f.Name, f.Type)
		}
	}
	return nil
}

// PromptJSON renders the schema as the example object shown to the model,
// field order preserved
func (s *OutputSchema) PromptJSON() string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, f := range s.Fields {
		b.WriteString("  \"")
		b.WriteString(f.Name)
		b.WriteString("\": \"")
		b.WriteString(f.Type)
		b.WriteString("\"")
		if i < len(s.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// CheckReply validates parsed decision fields against the schema
func (s *OutputSchema) CheckReply(fields map[string]any) error {
	for _, f := range s.Fields {
		val, present := fields[f.Name]
		if !present || val == nil {
			if f.Required {
				return errors.Newf("missing required field %q", f.Name)
			}
			continue
		}
		switch f.Type {
		case FieldString:
			if _, ok := val.(string); !ok {
				return errors.Newf("field %q must be a string, got %T", f.Name, val)
			}
		case FieldNumber:
			if _, ok := val.(float64); !ok {
				return errors.Newf("field %q must be a number, got %T", f.Name, val)
			}
		case FieldBoolean:
			if _, ok := val.(bool); !ok {
				return errors.Newf("field %q must be a boolean, got %T", f.Name, val)
			}
		}
	}
	return nil
}

// fencePattern matches a markdown code fence with optional language tag
var fencePattern = regexp.MustCompile("(?s)```\\w*\\n(.*?)\\n```")

// CleanReply strips a surrounding markdown code fence from a raw model
// reply, returning the inner content. Replies without a fence pass through
// trimmed.
func CleanReply(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// ParseReply parses a raw model reply into decision fields. Direct JSON is
// tried first; fence-wrapped JSON second. Anything else is a schema failure
// for retry purposes.
func ParseReply(raw string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err == nil {
		return fields, nil
	}

	cleaned := CleanReply(raw)
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, errors.Wrapf(err, "reply is not valid JSON (cleaned: %.120s)", cleaned)
	}
	return fields, nil
}
