package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/triage"
)

// CSVSource reads records from a CSV file with a header row.
type CSVSource struct {
	Path            string
	NUCColumn       string // optional override; normalized matching applies
	NarrativeColumn string // optional override
}

// Records implements triage.Source
func (s *CSVSource) Records() ([]triage.Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", s.Path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows tolerated; short rows pad empty

	headers, err := r.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read header of %s", s.Path)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	nucCol := resolveColumn(headers, s.NUCColumn, nucCandidates)
	if nucCol == "" {
		return nil, errors.Newf("no NUC column found in %s (headers: %v)", s.Path, headers)
	}
	narrCol := resolveColumn(headers, s.NarrativeColumn, narrativeCandidates)
	if narrCol == "" {
		return nil, errors.Newf("no narrative column found in %s (headers: %v)", s.Path, headers)
	}

	colIndex := make(map[string]int, len(headers))
	for i, h := range headers {
		colIndex[h] = i
	}

	var records []triage.Record
	for rowIdx := 0; ; rowIdx++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read row %d of %s", rowIdx+2, s.Path)
		}

		cell := func(col string) string {
			i := colIndex[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		nuc := cell(nucCol)
		if nuc == "" {
			nuc = fallbackNUC(rowIdx)
		}

		metadata := make(map[string]any)
		for _, h := range headers {
			if h == nucCol || h == narrCol {
				continue
			}
			if v := cell(h); v != "" {
				metadata[h] = v
			}
		}
		if len(metadata) == 0 {
			metadata = nil
		}

		records = append(records, triage.Record{
			NUC:       nuc,
			Narrative: cell(narrCol),
			Metadata:  metadata,
		})
	}
	return records, nil
}
