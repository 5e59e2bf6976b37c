// ABOUTME: Root command and global flags for the kemmei CLI
// ABOUTME: Wires every subcommand and exposes Execute for main
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	engineName   string
)

const banner = `
██╗  ██╗███████╗███╗   ███╗███╗   ███╗███████╗██╗
██║ ██╔╝██╔════╝████╗ ████║████╗ ████║██╔════╝██║
█████╔╝ █████╗  ██╔████╔██║██╔████╔██║█████╗  ██║
██╔═██╗ ██╔══╝  ██║╚██╔╝██║██║╚██╔╝██║██╔══╝  ██║
██║  ██╗███████╗██║ ╚═╝ ██║██║ ╚═╝ ██║███████╗██║
╚═╝  ╚═╝╚══════╝╚═╝     ╚═╝╚═╝     ╚═╝╚══════╝╚═╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kemmei",
		Short: "Local study store for flashcards, users and progress",
		Long: banner + `

Kemmei keeps quiz cards, local users and per-user study progress in a
single local store. The same data is reachable from the command line,
an interactive shell, an HTTP API and an MCP server for LLM agents.

Storage engines: embedded (default), native, postgres, charm.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print errors and results")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table or json")
	cmd.PersistentFlags().StringVar(&engineName, "engine", "", "Storage engine (overrides KEMMEI_ENGINE)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewShellCmd())
	cmd.AddCommand(NewCallCmd())
	cmd.AddCommand(NewCardsCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
