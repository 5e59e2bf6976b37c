// ABOUTME: Embedded engine: pure-Go in-memory SQLite persisted as a whole-file snapshot
// ABOUTME: Every mutation is serialized and flushed to disk before it is reported committed
package embedded

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/natefinch/atomic"
	_ "modernc.org/sqlite"

	"github.com/thumbcoded/kemmei-app-sub000/internal/logging"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/sqlstore"
)

// Name is the engine identifier used in configuration
const Name = "embedded"

const snapshotSchema = "snapshot"

// Engine holds the whole database in memory and rewrites the file after each write.
//
// The in-memory database lives on a single connection; losing that connection
// loses the image, so the pool is pinned to one connection that never expires.
type Engine struct {
	path   string
	logger logging.Logger

	// mu is held for writing across a mutation and its flush, so a later
	// snapshot can never be written from an image older than an earlier one.
	mu    sync.RWMutex
	db    *sql.DB
	store *sqlstore.Store
}

// New returns an unopened engine persisting to path
func New(path string, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{path: path, logger: logger.With("engine", Name)}
}

// Name returns the engine identifier
func (e *Engine) Name() string { return Name }

// Path returns the snapshot file path
func (e *Engine) Path() string { return e.path }

// Open creates the in-memory database, creates the schema and loads the snapshot if one exists
func (e *Engine) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db != nil {
		return nil
	}

	if err := storage.EnsureDir(e.path); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := sqlstore.Migrate(ctx, db, sqlstore.SQLite); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	e.db = db
	e.store = sqlstore.New(db, sqlstore.SQLite)

	exists, err := snapshotExists(e.path)
	if err != nil {
		e.reset()
		return err
	}
	if exists {
		if err := e.restore(ctx); err != nil {
			e.reset()
			return err
		}
		e.logger.Debug("snapshot loaded", "path", e.path)
		return nil
	}

	// Write the empty schema so the file exists from first use on
	if err := e.flush(ctx); err != nil {
		e.reset()
		return err
	}
	e.logger.Debug("snapshot created", "path", e.path)
	return nil
}

func (e *Engine) reset() {
	if e.db != nil {
		_ = e.db.Close()
	}
	e.db = nil
	e.store = nil
}

func snapshotExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	return info.Size() > 0, nil
}

// restore copies every table of the on-disk snapshot into the in-memory database
func (e *Engine) restore(ctx context.Context) error {
	lit, err := QuoteLiteral(e.path)
	if err != nil {
		return err
	}
	if _, err := e.db.ExecContext(ctx, "ATTACH DATABASE "+lit+" AS "+snapshotSchema); err != nil {
		return fmt.Errorf("failed to attach snapshot: %w", err)
	}
	defer func() {
		if _, err := e.db.ExecContext(context.Background(), "DETACH DATABASE "+snapshotSchema); err != nil {
			e.logger.Warn("failed to detach snapshot", "error", err)
		}
	}()

	for _, t := range storage.Tables() {
		var n int
		err := e.db.QueryRowContext(ctx,
			"SELECT count(*) FROM "+snapshotSchema+".sqlite_master WHERE type = 'table' AND name = ?",
			string(t.Name)).Scan(&n)
		if err != nil {
			return fmt.Errorf("failed to read snapshot schema: %w", err)
		}
		if n == 0 {
			continue
		}

		cols := sqlstore.JoinIdents(t.AllColumns())
		name := sqlstore.QuoteIdent(string(t.Name))
		query := fmt.Sprintf("INSERT OR REPLACE INTO main.%s (%s) SELECT %s FROM %s.%s",
			name, cols, cols, snapshotSchema, name)
		if _, err := e.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to restore %s: %w", t.Name, err)
		}
	}
	return nil
}

// flush writes the whole in-memory image next to the target and swaps it in atomically.
// Callers must hold mu for writing.
func (e *Engine) flush(ctx context.Context) error {
	tmp := e.path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear stale snapshot: %w", err)
	}

	lit, err := QuoteLiteral(tmp)
	if err != nil {
		return err
	}
	if _, err := e.db.ExecContext(ctx, "VACUUM INTO "+lit); err != nil {
		return fmt.Errorf("failed to serialize database: %w", err)
	}
	if err := atomic.ReplaceFile(tmp, e.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// rollback discards the in-memory image and reloads the last flushed snapshot.
// Callers must hold mu for writing.
func (e *Engine) rollback(ctx context.Context) error {
	for _, t := range storage.Tables() {
		if _, err := e.db.ExecContext(ctx, "DELETE FROM main."+sqlstore.QuoteIdent(string(t.Name))); err != nil {
			return fmt.Errorf("failed to clear %s: %w", t.Name, err)
		}
	}
	exists, err := snapshotExists(e.path)
	if err != nil || !exists {
		return err
	}
	return e.restore(ctx)
}

// mutate applies fn and flushes. When the flush fails the change is rolled back
// so memory never runs ahead of disk.
func (e *Engine) mutate(ctx context.Context, fn func(s *sqlstore.Store) (bool, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.store == nil {
		return storage.ErrNotOpen
	}

	changed, err := fn(e.store)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := e.flush(ctx); err != nil {
		if rbErr := e.rollback(ctx); rbErr != nil {
			e.logger.Error("rollback after failed flush", "error", rbErr)
		}
		return err
	}
	return nil
}

func (e *Engine) read() (*sqlstore.Store, func(), error) {
	e.mu.RLock()
	if e.store == nil {
		e.mu.RUnlock()
		return nil, nil, storage.ErrNotOpen
	}
	return e.store, e.mu.RUnlock, nil
}

// SelectAll returns every record of a collection
func (e *Engine) SelectAll(ctx context.Context, c storage.Collection) ([]storage.Record, error) {
	return e.SelectWhere(ctx, c, nil)
}

// SelectWhere returns records matching a partial key
func (e *Engine) SelectWhere(ctx context.Context, c storage.Collection, partial storage.Key) ([]storage.Record, error) {
	s, done, err := e.read()
	if err != nil {
		return nil, err
	}
	defer done()
	return s.SelectWhere(ctx, c, partial)
}

// SelectByKey returns the record with the full key
func (e *Engine) SelectByKey(ctx context.Context, c storage.Collection, key storage.Key) (storage.Record, bool, error) {
	s, done, err := e.read()
	if err != nil {
		return nil, false, err
	}
	defer done()
	return s.SelectByKey(ctx, c, key)
}

// Upsert inserts or replaces a record and flushes the snapshot
func (e *Engine) Upsert(ctx context.Context, c storage.Collection, rec storage.Record) error {
	return e.mutate(ctx, func(s *sqlstore.Store) (bool, error) {
		return true, s.Upsert(ctx, c, rec)
	})
}

// DeleteByKey removes a record and flushes the snapshot
func (e *Engine) DeleteByKey(ctx context.Context, c storage.Collection, key storage.Key) error {
	return e.mutate(ctx, func(s *sqlstore.Store) (bool, error) {
		return true, s.DeleteByKey(ctx, c, key)
	})
}

// DeleteWhere removes matching records; the snapshot is only rewritten when rows were removed
func (e *Engine) DeleteWhere(ctx context.Context, c storage.Collection, partial storage.Key) (int64, error) {
	var n int64
	err := e.mutate(ctx, func(s *sqlstore.Store) (bool, error) {
		var err error
		n, err = s.DeleteWhere(ctx, c, partial)
		return n > 0, err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Close releases the in-memory database. Data is already on disk.
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
