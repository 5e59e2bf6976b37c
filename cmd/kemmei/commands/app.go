// ABOUTME: Shared startup for commands that touch the store
// ABOUTME: Loads .env and config, builds the logger, engine, API and router
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/thumbcoded/kemmei-app-sub000/internal/config"
	"github.com/thumbcoded/kemmei-app-sub000/internal/local"
	"github.com/thumbcoded/kemmei-app-sub000/internal/logging"
	"github.com/thumbcoded/kemmei-app-sub000/internal/router"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/backend"
)

// app bundles everything a command needs once the store is open
type app struct {
	cfg    *config.Config
	logger *logging.ZapLogger
	api    *local.API
	router *router.Router
}

// openApp loads configuration and opens the configured store
func openApp(cmd *cobra.Command) (*app, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if engineName != "" {
		cfg.Engine = engineName
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	logger, err := logging.New(logLevel(cfg), cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	engine, err := backend.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	api := local.New(engine,
		local.WithLogger(logger),
		local.WithDomainMapPath(cfg.DomainMapPath))
	if _, err := api.Init(cmd.Context()); err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		api:    api,
		router: router.New(api, logger),
	}, nil
}

// Close releases the store and flushes the logger
func (a *app) Close() error {
	err := a.api.Close()
	_ = a.logger.Sync()
	return err
}

// logLevel lets --verbose and --quiet override the configured level
func logLevel(cfg *config.Config) string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	}
	return cfg.LogLevel
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// wantJSON reports whether structured output was requested
func wantJSON() bool {
	return outputFormat == "json"
}
