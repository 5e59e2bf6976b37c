// ABOUTME: Sync commands for the Charm-backed storage engine
// ABOUTME: Provides status, immediate sync and local wipe
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thumbcoded/kemmei-app-sub000/internal/config"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/charmkv"
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage Charm cloud synchronization",
		Long: `Manage synchronization with Charm cloud.

With KEMMEI_ENGINE=charm every collection lives in a Charm KV database
that syncs across devices linked to the same Charm account via SSH keys.
These commands only apply to the charm engine.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncNowCmd())
	cmd.AddCommand(newSyncWipeCmd())

	return cmd
}

// openCharm opens the store and requires it to be the charm engine
func openCharm(cmd *cobra.Command) (*app, *charmkv.Engine, error) {
	if engineName == "" {
		engineName = config.EngineCharm
	}
	a, err := openApp(cmd)
	if err != nil {
		return nil, nil, err
	}
	engine, ok := a.api.Engine().(*charmkv.Engine)
	if !ok {
		_ = a.Close()
		return nil, nil, fmt.Errorf("sync requires the charm engine, configured engine is %q", a.api.Engine().Name())
	}
	return a, engine, nil
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, engine, err := openCharm(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			id, err := engine.ID()
			if err != nil {
				fmt.Fprintln(out, "Status: Not connected")
				fmt.Fprintf(out, "Reason: %v\n", err)
				return nil
			}

			fmt.Fprintln(out, "Status: Connected")
			fmt.Fprintf(out, "User ID: %s\n", id)
			fmt.Fprintf(out, "Store: %s\n", engine.Path())
			fmt.Fprintf(out, "Auto sync: %t\n", a.cfg.AutoSync)
			return nil
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force immediate sync with Charm cloud",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, engine, err := openCharm(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "Syncing...")
			}
			if err := engine.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
			return nil
		},
	}
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe all local data (nuclear option)",
		Long: `Completely wipe the local copy of the Charm database.

WARNING: This deletes all locally cached data. Your cloud data
remains intact and will be re-synced on next access.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will wipe ALL local data!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}

			a, engine, err := openCharm(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := engine.Wipe(); err != nil {
				return fmt.Errorf("failed to wipe data: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Local data wiped successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}
