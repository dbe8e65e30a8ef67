package triage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/logger"
)

// StatusMissing flags a summary row whose record has no readable persisted
// response. It never appears on a stored Response.
const StatusMissing ValidationStatus = "missing"

// SummaryRow is one derived line of the summary table. Recomputed fully on
// every aggregation, never persisted incrementally.
type SummaryRow struct {
	NUC           string
	Excerpt       string
	Fields        map[string]any
	Status        ValidationStatus
	Attempts      int
	FailureReason string
}

// Aggregator scans all persisted responses and produces a flat summary
// table keyed by NUC. It never re-invokes the model.
type Aggregator struct {
	store      ResponseStore
	schema     *OutputSchema
	excerptLen int
}

// NewAggregator builds an Aggregator. schema orders the flattened decision
// columns; nil means columns are derived from the responses themselves.
func NewAggregator(store ResponseStore, schema *OutputSchema, excerptLen int) *Aggregator {
	if excerptLen <= 0 {
		excerptLen = 200
	}
	return &Aggregator{store: store, schema: schema, excerptLen: excerptLen}
}

// Rows produces one SummaryRow per NUC. expected lists the NUCs the run
// processed; any of them with no readable response gets a flagged "missing"
// row rather than being omitted. A nil expected set summarizes the store
// contents alone. Returns ErrNoResponses when there is nothing at all to
// summarize.
func (a *Aggregator) Rows(expected []string) ([]SummaryRow, error) {
	responses, err := a.store.List()
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate responses")
	}
	if len(responses) == 0 && len(expected) == 0 {
		return nil, ErrNoResponses
	}

	byNUC := make(map[string]*Response, len(responses))
	for _, resp := range responses {
		byNUC[resp.NUC] = resp
	}

	// Row order: expected order first, then any stored responses outside
	// the expected set, sorted for determinism.
	order := make([]string, 0, len(byNUC))
	inOrder := make(map[string]struct{}, len(byNUC))
	for _, nuc := range expected {
		if _, dup := inOrder[nuc]; dup {
			continue
		}
		inOrder[nuc] = struct{}{}
		order = append(order, nuc)
	}
	var extra []string
	for nuc := range byNUC {
		if _, ok := inOrder[nuc]; !ok {
			extra = append(extra, nuc)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	rows := make([]SummaryRow, 0, len(order))
	for _, nuc := range order {
		resp, ok := byNUC[nuc]
		if !ok {
			rows = append(rows, SummaryRow{
				NUC:           nuc,
				Status:        StatusMissing,
				FailureReason: "no response artifact",
			})
			continue
		}
		rows = append(rows, SummaryRow{
			NUC:           resp.NUC,
			Excerpt:       excerpt(resp.Narrative, a.excerptLen),
			Fields:        resp.Fields,
			Status:        resp.Status,
			Attempts:      resp.Attempts,
			FailureReason: resp.FailureReason,
		})
	}
	return rows, nil
}

// Columns returns the flattened decision field names in summary order
func (a *Aggregator) Columns(rows []SummaryRow) []string {
	if a.schema != nil {
		cols := make([]string, 0, len(a.schema.Fields))
		for _, f := range a.schema.Fields {
			cols = append(cols, f.Name)
		}
		return cols
	}
	// No schema: union of field names across rows, sorted
	set := make(map[string]struct{})
	for _, row := range rows {
		for name := range row.Fields {
			set[name] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for name := range set {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

// WriteCSV writes the summary table, one row per NUC, through a temporary
// file and rename so a crashed aggregation never leaves a truncated table.
func (a *Aggregator) WriteCSV(path string, rows []SummaryRow) error {
	cols := a.Columns(rows)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create summary directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".summary-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp summary file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	header := append([]string{"nuc", "excerpt"}, cols...)
	header = append(header, "status", "attempts", "failure_reason")
	if err := w.Write(header); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write summary header")
	}

	for _, row := range rows {
		line := []string{row.NUC, row.Excerpt}
		for _, col := range cols {
			line = append(line, formatField(row.Fields[col]))
		}
		line = append(line, string(row.Status), strconv.Itoa(row.Attempts), row.FailureReason)
		if err := w.Write(line); err != nil {
			tmp.Close()
			return errors.Wrapf(err, "failed to write summary row for %s", row.NUC)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to flush summary")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp summary file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "failed to publish summary to %s", path)
	}

	logger.Logger.Infow("summary written",
		logger.FieldPath, path,
		logger.FieldRecords, len(rows))
	return nil
}

// excerpt truncates narrative text for the summary table
func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// formatField renders one decision field value for tabular output
func formatField(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
