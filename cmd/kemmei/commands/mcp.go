// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents read cards and record study progress via stdio
package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/thumbcoded/kemmei-app-sub000/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs kemmei as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to query cards and record progress via stdio.

Configure in Claude Desktop's config file to enable the study tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  kemmei mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "kemmei": {
  #       "command": "kemmei",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}

	server := mcpserver.NewMCPServer(
		"Kemmei Study Store",
		versionInfo.Version,
	)
	mcp.RegisterTools(server, a.router, a.logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("MCP server starting on stdio", "engine", a.api.Engine().Name())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		if err := a.Close(); err != nil {
			a.logger.Warn("error closing store", "error", err)
		}
		return nil

	case err := <-serverErr:
		closeErr := a.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return closeErr
	}
}
