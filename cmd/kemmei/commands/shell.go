// ABOUTME: Interactive shell for issuing router calls with line editing
// ABOUTME: Keeps history in the data directory between sessions
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/thumbcoded/kemmei-app-sub000/internal/router"
)

const historyFileName = ".kemmei_history"

// shellRoutes seeds tab completion
var shellRoutes = []string{
	"GET cards",
	"GET cards/",
	"DELETE cards/",
	"POST cards",
	"GET users",
	"GET users/",
	"GET users/by-username/",
	"GET users/current",
	"GET users/current/id",
	"PUT users/current",
	"POST users",
	"GET user-progress/",
	"PUT user-progress/",
	"DELETE user-progress/",
	"GET test-completions/",
	"PUT test-completions/",
	"DELETE test-completions/",
	"GET user-unlocks/",
	"PUT user-unlocks/",
	"DELETE user-unlocks/",
	"GET domainmap",
	"POST init",
}

// NewShellCmd creates the shell command
func NewShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell for router calls",
		Long: `Start an interactive shell where every line is a router call:

  GET cards?cert_id=220-1101
  PUT user-unlocks/u1/domain-1 {"unlocked":true}

Type 'help' for a summary and 'exit' to leave. Tab completes routes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return runShell(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
}

func runShell(ctx context.Context, a *app, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completeRoute)

	history := filepath.Join(a.cfg.DataDir, historyFileName)
	if f, err := os.Open(history); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
	defer saveHistory(line, history)

	fmt.Fprintf(out, "kemmei shell (%s: %s)\n", a.api.Engine().Name(), a.api.Engine().Path())
	fmt.Fprintln(out, "Type 'help' for available commands.")

	for {
		input, err := line.Prompt("kemmei> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if done := shellLine(ctx, a.router, input, out); done {
			return nil
		}
	}
}

// shellLine executes one shell line and reports whether the shell should exit
func shellLine(ctx context.Context, rt *router.Router, input string, out io.Writer) bool {
	switch strings.ToLower(input) {
	case "exit", "quit", "q":
		return true
	case "help", "?":
		printShellHelp(out)
		return false
	}

	if err := runCall(ctx, rt, input, out); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
	return false
}

func printShellHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: [METHOD] PATH [JSON BODY]")
	fmt.Fprintln(out, "Methods: GET (default), POST, PUT, DELETE")
	fmt.Fprintln(out, "Routes:")
	for _, r := range shellRoutes {
		fmt.Fprintf(out, "  %s\n", r)
	}
	fmt.Fprintln(out, "Other: help, exit")
}

// completeRoute offers known routes starting with the typed prefix
func completeRoute(input string) []string {
	var matches []string
	upper := strings.ToUpper(input)
	for _, r := range shellRoutes {
		if strings.HasPrefix(strings.ToUpper(r), upper) {
			matches = append(matches, r)
		}
	}
	return matches
}

func saveHistory(line *liner.State, path string) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	_, _ = line.WriteHistory(f)
	_ = f.Close()
}
