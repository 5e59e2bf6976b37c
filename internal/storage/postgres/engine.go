// ABOUTME: Postgres engine for shared or server-side deployments
// ABOUTME: Uses pgx through database/sql so the SQL layer is shared with SQLite
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/thumbcoded/kemmei-app-sub000/internal/logging"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/sqlstore"
	"github.com/thumbcoded/kemmei-app-sub000/internal/util"
)

// Name is the engine identifier used in configuration
const Name = "postgres"

const (
	connectAttempts = 5
	connectBackoff  = 200 * time.Millisecond
)

// Engine stores the collections in a Postgres database
type Engine struct {
	dsn    string
	logger logging.Logger

	mu    sync.RWMutex
	db    *sql.DB
	store *sqlstore.Store
}

// New returns an unopened engine for the given connection string
func New(dsn string, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{dsn: dsn, logger: logger.With("engine", Name)}
}

// Name returns the engine identifier
func (e *Engine) Name() string { return Name }

// Path returns host/database without credentials
func (e *Engine) Path() string {
	cfg, err := pgx.ParseConfig(e.dsn)
	if err != nil {
		return "postgres"
	}
	return fmt.Sprintf("postgres://%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
}

// Open connects, retrying while the server comes up, and creates the schema
func (e *Engine) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db != nil {
		return nil
	}

	if _, err := pgx.ParseConfig(e.dsn); err != nil {
		return fmt.Errorf("invalid postgres dsn: %w", err)
	}

	db, err := sql.Open("pgx", e.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	err = util.Retry(ctx, connectAttempts, connectBackoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			e.logger.Warn("postgres not reachable, retrying", "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := sqlstore.Migrate(ctx, db, sqlstore.Postgres); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	e.db = db
	e.store = sqlstore.New(db, sqlstore.Postgres)
	e.logger.Debug("database opened", "path", e.Path())
	return nil
}

func (e *Engine) handle() (*sqlstore.Store, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.store == nil {
		return nil, storage.ErrNotOpen
	}
	return e.store, nil
}

// SelectAll returns every record of a collection
func (e *Engine) SelectAll(ctx context.Context, c storage.Collection) ([]storage.Record, error) {
	return e.SelectWhere(ctx, c, nil)
}

// SelectWhere returns records matching a partial key
func (e *Engine) SelectWhere(ctx context.Context, c storage.Collection, partial storage.Key) ([]storage.Record, error) {
	s, err := e.handle()
	if err != nil {
		return nil, err
	}
	return s.SelectWhere(ctx, c, partial)
}

// SelectByKey returns the record with the full key
func (e *Engine) SelectByKey(ctx context.Context, c storage.Collection, key storage.Key) (storage.Record, bool, error) {
	s, err := e.handle()
	if err != nil {
		return nil, false, err
	}
	return s.SelectByKey(ctx, c, key)
}

// Upsert inserts or replaces a record
func (e *Engine) Upsert(ctx context.Context, c storage.Collection, rec storage.Record) error {
	s, err := e.handle()
	if err != nil {
		return err
	}
	return s.Upsert(ctx, c, rec)
}

// DeleteByKey removes a record by its full key
func (e *Engine) DeleteByKey(ctx context.Context, c storage.Collection, key storage.Key) error {
	s, err := e.handle()
	if err != nil {
		return err
	}
	return s.DeleteByKey(ctx, c, key)
}

// DeleteWhere removes records matching a partial key
func (e *Engine) DeleteWhere(ctx context.Context, c storage.Collection, partial storage.Key) (int64, error) {
	s, err := e.handle()
	if err != nil {
		return 0, err
	}
	return s.DeleteWhere(ctx, c, partial)
}

// Close closes the connection pool
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	e.store = nil
	return err
}
