// ABOUTME: Charm KV engine for cloud-synced storage
// ABOUTME: Rows are JSON values under "<collection>:<escaped key parts>" keys
package charmkv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"

	"github.com/thumbcoded/kemmei-app-sub000/internal/logging"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
)

// Name is the engine identifier used in configuration
const Name = "charm"

// Config holds charm connection settings
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// DefaultConfig returns configuration from CHARM_HOST with the default database name
func DefaultConfig() Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = "charm.2389.dev"
	}
	return Config{
		Host:     host,
		DBName:   storage.AppDirName,
		AutoSync: true,
	}
}

// Store is the subset of *kv.KV the engine uses
type Store interface {
	Get(key []byte) ([]byte, error)
	Set(key []byte, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
	Close() error
}

// Opener opens the underlying KV store
type Opener func(cfg Config) (Store, error)

// OpenCharm opens a charm KV database, authenticating with the local SSH key
func OpenCharm(cfg Config) (Store, error) {
	if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
		return nil, fmt.Errorf("failed to set CHARM_HOST: %w", err)
	}
	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}
	return db, nil
}

// Engine stores each row as one KV entry
type Engine struct {
	cfg    Config
	open   Opener
	logger logging.Logger

	mu sync.Mutex
	kv Store
}

// New returns an unopened engine. A nil opener uses OpenCharm.
func New(cfg Config, open Opener, logger logging.Logger) *Engine {
	if open == nil {
		open = OpenCharm
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{cfg: cfg, open: open, logger: logger.With("engine", Name)}
}

// Name returns the engine identifier
func (e *Engine) Name() string { return Name }

// Path returns host/database
func (e *Engine) Path() string { return "charm://" + e.cfg.Host + "/" + e.cfg.DBName }

// Open opens the KV store and pulls remote data when auto-sync is on
func (e *Engine) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.kv != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	db, err := e.open(e.cfg)
	if err != nil {
		return err
	}
	e.kv = db

	if e.cfg.AutoSync {
		if err := db.Sync(); err != nil {
			e.logger.Warn("initial sync failed, continuing with local data", "error", err)
		}
	}
	e.logger.Debug("kv opened", "path", e.Path())
	return nil
}

// EncodeKey renders the KV key for a collection and key tuple.
// Parts are path-escaped so separators inside values cannot collide.
func EncodeKey(c storage.Collection, parts storage.Key) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = escapePart(p)
	}
	return string(c) + ":" + strings.Join(escaped, "/")
}

// prefixFor returns the key prefix matching every row whose leading key parts equal partial
func prefixFor(t storage.Table, partial storage.Key) string {
	if len(partial) == 0 {
		return string(t.Name) + ":"
	}
	key := EncodeKey(t.Name, partial)
	if len(partial) < len(t.Keys) {
		key += "/"
	}
	return key
}

func (e *Engine) handle() (Store, error) {
	if e.kv == nil {
		return nil, storage.ErrNotOpen
	}
	return e.kv, nil
}

func (e *Engine) syncIfEnabled() {
	if !e.cfg.AutoSync {
		return
	}
	if err := e.kv.Sync(); err != nil {
		e.logger.Warn("sync after write failed", "error", err)
	}
}

// SelectAll returns every record of a collection
func (e *Engine) SelectAll(ctx context.Context, c storage.Collection) ([]storage.Record, error) {
	return e.SelectWhere(ctx, c, nil)
}

// SelectWhere returns records matching a partial key, ordered by key
func (e *Engine) SelectWhere(_ context.Context, c storage.Collection, partial storage.Key) ([]storage.Record, error) {
	t, err := storage.Lookup(c)
	if err != nil {
		return nil, err
	}
	if err := t.CheckPartial(partial, false); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	db, err := e.handle()
	if err != nil {
		return nil, err
	}

	_, records, err := collect(db, t, partial)
	if err != nil {
		return nil, err
	}
	sortByKey(t, records)
	return records, nil
}

// SelectByKey returns the record with the full key
func (e *Engine) SelectByKey(_ context.Context, c storage.Collection, key storage.Key) (storage.Record, bool, error) {
	t, err := storage.Lookup(c)
	if err != nil {
		return nil, false, err
	}
	if err := t.CheckKey(key); err != nil {
		return nil, false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	db, err := e.handle()
	if err != nil {
		return nil, false, err
	}
	return getRecord(db, t, EncodeKey(c, key))
}

// Upsert stores the record, replacing any previous value
func (e *Engine) Upsert(_ context.Context, c storage.Collection, rec storage.Record) error {
	t, err := storage.Lookup(c)
	if err != nil {
		return err
	}
	if err := t.CheckRecord(rec); err != nil {
		return err
	}
	data, err := json.Marshal(t.Normalize(rec))
	if err != nil {
		return fmt.Errorf("failed to marshal %s row: %w", c, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	db, err := e.handle()
	if err != nil {
		return err
	}

	key := EncodeKey(c, t.KeyOf(rec))
	if err := db.Set([]byte(key), data); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	e.syncIfEnabled()
	return nil
}

// DeleteByKey removes the record with the full key
func (e *Engine) DeleteByKey(_ context.Context, c storage.Collection, key storage.Key) error {
	t, err := storage.Lookup(c)
	if err != nil {
		return err
	}
	if err := t.CheckKey(key); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	db, err := e.handle()
	if err != nil {
		return err
	}

	k := EncodeKey(c, key)
	if err := db.Delete([]byte(k)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %s: %w", k, err)
	}
	e.syncIfEnabled()
	return nil
}

// DeleteWhere removes every record matching a non-empty partial key
func (e *Engine) DeleteWhere(_ context.Context, c storage.Collection, partial storage.Key) (int64, error) {
	t, err := storage.Lookup(c)
	if err != nil {
		return 0, err
	}
	if err := t.CheckPartial(partial, true); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	db, err := e.handle()
	if err != nil {
		return 0, err
	}

	keys, _, err := collect(db, t, partial)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, k := range keys {
		if err := db.Delete([]byte(k)); err != nil {
			return n, fmt.Errorf("failed to delete key %s: %w", k, err)
		}
		n++
	}
	if n > 0 {
		e.syncIfEnabled()
	}
	return n, nil
}

// Close closes the KV store
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kv == nil {
		return nil
	}
	err := e.kv.Close()
	e.kv = nil
	return err
}

// Sync pushes and pulls changes with the charm server
func (e *Engine) Sync() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	db, err := e.handle()
	if err != nil {
		return err
	}
	return db.Sync()
}

// Wipe deletes all local data
func (e *Engine) Wipe() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	db, err := e.handle()
	if err != nil {
		return err
	}
	return db.Reset()
}

// ID returns the charm account ID of the local key
func (e *Engine) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

func matchingKeys(db Store, prefix string) ([]string, error) {
	keys, err := db.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	var result []string
	for _, key := range keys {
		if k := string(key); strings.HasPrefix(k, prefix) {
			result = append(result, k)
		}
	}
	return result, nil
}

// collect returns the keys and records whose leading key columns equal partial.
// The key prefix narrows the scan; a full key prefix also matches longer
// keys ("c1" vs "c10"), so each record is checked against partial.
func collect(db Store, t storage.Table, partial storage.Key) ([]string, []storage.Record, error) {
	candidates, err := matchingKeys(db, prefixFor(t, partial))
	if err != nil {
		return nil, nil, err
	}
	keys := make([]string, 0, len(candidates))
	records := make([]storage.Record, 0, len(candidates))
	for _, k := range candidates {
		rec, ok, err := getRecord(db, t, k)
		if err != nil {
			return nil, nil, err
		}
		if ok && t.HasPrefix(rec, partial) {
			keys = append(keys, k)
			records = append(records, rec)
		}
	}
	return keys, records, nil
}

func getRecord(db Store, t storage.Table, key string) (storage.Record, bool, error) {
	data, err := db.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && data == nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	var rec storage.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return t.Normalize(rec), true, nil
}

func sortByKey(t storage.Table, records []storage.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, col := range t.Keys {
			a, b := records[i][col], records[j][col]
			if a != b {
				return a < b
			}
		}
		return false
	})
}
