package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/triage"
)

// JSONLSource reads records from a file with one JSON object per line.
// Field names resolve the same way CSV headers do.
type JSONLSource struct {
	Path            string
	NUCColumn       string // optional override
	NarrativeColumn string // optional override
}

// Records implements triage.Source
func (s *JSONLSource) Records() ([]triage.Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", s.Path)
	}
	defer f.Close()

	var records []triage.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024) // narratives can be long

	for rowIdx := 0; scanner.Scan(); rowIdx++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, errors.Wrapf(err, "invalid JSON on line %d of %s", rowIdx+1, s.Path)
		}

		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		nucKey := resolveColumn(keys, s.NUCColumn, nucCandidates)
		narrKey := resolveColumn(keys, s.NarrativeColumn, narrativeCandidates)
		if narrKey == "" {
			return nil, errors.Newf("no narrative field on line %d of %s", rowIdx+1, s.Path)
		}

		nuc := stringify(obj[nucKey])
		if nuc == "" {
			nuc = fallbackNUC(rowIdx)
		}

		metadata := make(map[string]any)
		for k, v := range obj {
			if k == nucKey || k == narrKey || v == nil {
				continue
			}
			metadata[k] = v
		}
		if len(metadata) == 0 {
			metadata = nil
		}

		records = append(records, triage.Record{
			NUC:       nuc,
			Narrative: stringify(obj[narrKey]),
			Metadata:  metadata,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", s.Path)
	}
	return records, nil
}

// stringify renders a JSON value as its record-field string form
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}
