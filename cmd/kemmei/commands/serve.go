// ABOUTME: Serve command runs the HTTP API in front of the call router
// ABOUTME: Shuts down gracefully on SIGINT or SIGTERM
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thumbcoded/kemmei-app-sub000/internal/httpapi"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the study data over HTTP",
		Long: `Serve every route of the call router under /api/ over HTTP.

GET /api/cards?cert_id=220-1101 behaves exactly like the shell call
"GET cards?cert_id=220-1101". GET /healthz reports liveness.`,
		Example: `  kemmei serve
  kemmei serve --addr 127.0.0.1:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.HTTPAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serveHTTP(ctx, a, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides KEMMEI_HTTP_ADDR)")

	return cmd
}

func serveHTTP(ctx context.Context, a *app, addr string) error {
	handler := httpapi.NewHandler(a.router, a.logger)
	return httpapi.Serve(ctx, addr, handler, a.logger)
}
