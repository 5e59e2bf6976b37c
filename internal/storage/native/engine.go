// ABOUTME: Native SQLite engine backed by the cgo mattn/go-sqlite3 binding
// ABOUTME: File-backed with WAL; every autocommitted write is durable on return
package native

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/thumbcoded/kemmei-app-sub000/internal/logging"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/sqlstore"
)

// Name is the engine identifier used in configuration
const Name = "native"

// Engine is a file-backed SQLite store
type Engine struct {
	path   string
	logger logging.Logger

	mu    sync.RWMutex
	db    *sql.DB
	store *sqlstore.Store
}

// New returns an unopened engine for the database file at path
func New(path string, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{path: path, logger: logger.With("engine", Name)}
}

// Name returns the engine identifier
func (e *Engine) Name() string { return Name }

// Path returns the database file path
func (e *Engine) Path() string { return e.path }

// Open opens the database file, creating the directory and schema if absent
func (e *Engine) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db != nil {
		return nil
	}

	if err := storage.EnsureDir(e.path); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", e.path+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=FULL")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := sqlstore.Migrate(ctx, db, sqlstore.SQLite); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	e.db = db
	e.store = sqlstore.New(db, sqlstore.SQLite)
	e.logger.Debug("database opened", "path", e.path)
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

// Close closes the database connection. Closing an unopened engine is a no-op.
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
