// ABOUTME: Engine factory selecting a storage backend from configuration
// ABOUTME: Kept apart from package storage so engines can import it without a cycle
package backend

import (
	"fmt"

	"github.com/thumbcoded/kemmei-app-sub000/internal/config"
	"github.com/thumbcoded/kemmei-app-sub000/internal/logging"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/charmkv"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/embedded"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/native"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/postgres"
)

// New returns an unopened engine for cfg.Engine
func New(cfg *config.Config, logger logging.Logger) (storage.Engine, error) {
	switch cfg.Engine {
	case config.EngineNative:
		return native.New(cfg.DBPath(), logger), nil
	case config.EngineEmbedded, "":
		return embedded.New(cfg.DBPath(), logger), nil
	case config.EnginePostgres:
		return postgres.New(cfg.PostgresDSN, logger), nil
	case config.EngineCharm:
		return charmkv.New(charmkv.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: cfg.AutoSync,
		}, nil, logger), nil
	}
	return nil, fmt.Errorf("%w: %q", storage.ErrUnknownEngine, cfg.Engine)
}
