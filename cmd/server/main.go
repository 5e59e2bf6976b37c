// ABOUTME: Main entry point for the kemmei HTTP server
// ABOUTME: Opens the configured store and serves the call router over HTTP
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/thumbcoded/kemmei-app-sub000/internal/config"
	"github.com/thumbcoded/kemmei-app-sub000/internal/httpapi"
	"github.com/thumbcoded/kemmei-app-sub000/internal/local"
	"github.com/thumbcoded/kemmei-app-sub000/internal/logging"
	"github.com/thumbcoded/kemmei-app-sub000/internal/router"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/backend"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	engine, err := backend.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to select storage engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := local.New(engine, local.WithLogger(logger), local.WithDomainMapPath(cfg.DomainMapPath))
	if _, err := api.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := api.Close(); err != nil {
			logger.Warn("error closing store", "error", err)
		}
	}()

	handler := httpapi.NewHandler(router.New(api, logger), logger)
	if err := httpapi.Serve(ctx, cfg.HTTPAddr, handler, logger); err != nil {
		logger.Error("server stopped", "error", err)
		return
	}
}
