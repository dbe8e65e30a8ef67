// Package display holds per-command presentation helpers shared by the
// CLI: JSON rendering and summary row formatting.
package display

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ShouldOutputJSON reports whether a command should emit JSON instead of
// human-readable output, based on its --json flag.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	jsonFlag, _ := cmd.Flags().GetBool("json")
	return jsonFlag
}

// OutputJSON pretty-prints v as JSON to stdout
func OutputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
