// ABOUTME: Init command opens the store and creates its schema
// ABOUTME: Prints the engine and location of the store
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the store if it does not exist",
		Long: `Open the configured store, creating the data directory and every
table if they are missing. Running init again is harmless.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.api.Init(cmd.Context())
	if err != nil {
		return err
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Store ready (%s): %s\n", a.api.Engine().Name(), res.Path)
	return nil
}
