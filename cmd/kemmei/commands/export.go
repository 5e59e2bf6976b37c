// ABOUTME: Export command dumps every collection as one JSON document
// ABOUTME: Writes to stdout or atomically to a file
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all study data as JSON",
		Long: `Export cards, users, the current user and every progress namespace
as a single JSON document. Password hashes are never exported.

The cards array can be fed back to "kemmei cards import".`,
		Example: `  kemmei export > backup.json
  kemmei export -o backup.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			dump, err := a.api.Export(cmd.Context())
			if err != nil {
				return fmt.Errorf("exporting: %w", err)
			}

			if output == "" || output == "-" {
				return printJSON(cmd.OutOrStdout(), dump)
			}

			data, err := json.MarshalIndent(dump, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			data = append(data, '\n')
			if err := atomic.WriteFile(output, bytes.NewReader(data)); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d card(s) and %d user(s) to %s\n",
					len(dump.Cards), len(dump.Users), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}
