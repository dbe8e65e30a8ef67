package display

import (
	"github.com/pterm/pterm"

	"github.com/teranos/triage/triage"
)

// maxPreviewRows bounds how many summary rows are printed to the terminal;
// the full table always lands in the CSV.
const maxPreviewRows = 20

// RenderSummary prints summary rows and their status counts
func RenderSummary(rows []triage.SummaryRow) {
	var valid, invalid, missing int
	for _, row := range rows {
		switch row.Status {
		case triage.StatusValid:
			valid++
		case triage.StatusInvalid:
			invalid++
		case triage.StatusMissing:
			missing++
		}
	}

	shown := rows
	if len(shown) > maxPreviewRows {
		shown = shown[:maxPreviewRows]
	}
	for _, row := range shown {
		switch row.Status {
		case triage.StatusValid:
			pterm.Printf("  %s  %s\n", row.NUC, row.Status)
		default:
			pterm.Printf("  %s  %s (%s)\n", row.NUC, row.Status, row.FailureReason)
		}
	}
	if len(rows) > maxPreviewRows {
		pterm.Printf("  ... %d more rows\n", len(rows)-maxPreviewRows)
	}

	pterm.Println()
	pterm.Printf("  Rows: %d (valid %d, invalid %d, missing %d)\n", len(rows), valid, invalid, missing)
}
