// Package ingest reads case records from tabular sources. Sources resolve
// the NUC and narrative columns by normalized name matching, so headers
// like "NUC", "Numero_Unico_Caso" or "Hechos" all work without
// configuration. All other columns pass through as record metadata.
package ingest

import (
	"fmt"
	"strings"
	"unicode"
)

// Default column name candidates, matched after normalization
var (
	nucCandidates       = []string{"nuc", "caseid", "id", "folio", "numerounicocaso"}
	narrativeCandidates = []string{"narrative", "hechos", "narrativa", "narracion", "crimenarration"}
)

// normalizeKey lowercases a column name and strips everything non-alphanumeric
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolveColumn finds the original header matching override (if set) or the
// first candidate present. Returns "" when nothing matches.
func resolveColumn(headers []string, override string, candidates []string) string {
	norm := make(map[string]string, len(headers))
	for _, h := range headers {
		key := normalizeKey(h)
		if _, taken := norm[key]; !taken {
			norm[key] = h
		}
	}

	if override != "" {
		if h, ok := norm[normalizeKey(override)]; ok {
			return h
		}
		return ""
	}
	for _, cand := range candidates {
		if h, ok := norm[cand]; ok {
			return h
		}
	}
	return ""
}

// fallbackNUC names records whose NUC cell is empty, keeping them
// addressable without colliding with real identifiers
func fallbackNUC(rowIndex int) string {
	return fmt.Sprintf("row_%d", rowIndex+1)
}
