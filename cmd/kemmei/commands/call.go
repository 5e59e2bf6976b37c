// ABOUTME: Call command sends one request through the call router
// ABOUTME: Also holds the line parser shared with the interactive shell
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thumbcoded/kemmei-app-sub000/internal/router"
)

var callMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
}

// errEmptyCall is returned for a blank call line
var errEmptyCall = errors.New("empty call")

// NewCallCmd creates the call command
func NewCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call [METHOD] PATH [BODY]",
		Short: "Send one call through the router",
		Long: `Send one call through the same router the HTTP API and MCP server use,
and print the status and JSON body.

METHOD defaults to GET. BODY is a JSON document for POST and PUT.`,
		Example: `  kemmei call cards?cert_id=220-1101
  kemmei call GET user-progress/u1
  kemmei call PUT user-unlocks/u1/domain-1 '{"unlocked":true}'
  kemmei call DELETE cards/c1`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseCall(strings.Join(args, " "))
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			resp := a.router.Handle(cmd.Context(), req)
			if err := writeResponse(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if resp.Status >= 400 {
				return fmt.Errorf("call failed with status %d", resp.Status)
			}
			return nil
		},
	}
}

// parseCall turns "METHOD path [body]" into a request.
// The method may be omitted, in which case it is GET.
func parseCall(line string) (router.Request, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return router.Request{}, errEmptyCall
	}

	method := "GET"
	first, rest := cutField(line)
	if callMethods[strings.ToUpper(first)] {
		method = strings.ToUpper(first)
		first, rest = cutField(rest)
	}
	if first == "" {
		return router.Request{}, fmt.Errorf("missing path after %s", method)
	}

	req := router.Request{Path: first, Method: method}
	if rest != "" {
		if !json.Valid([]byte(rest)) {
			return router.Request{}, fmt.Errorf("body is not valid JSON: %s", truncate(rest, 40))
		}
		req.Body = json.RawMessage(rest)
	}
	return req, nil
}

// cutField splits off the first whitespace-delimited field
func cutField(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// writeResponse prints a router response as "<status>" followed by its JSON body
func writeResponse(w io.Writer, resp router.Response) error {
	fmt.Fprintf(w, "%d\n", resp.Status)
	return printJSON(w, resp.Body)
}

// runCall handles one line against rt and prints the outcome
func runCall(ctx context.Context, rt *router.Router, line string, w io.Writer) error {
	req, err := parseCall(line)
	if err != nil {
		return err
	}
	return writeResponse(w, rt.Handle(ctx, req))
}
