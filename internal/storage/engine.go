// ABOUTME: Engine is the primitive persistence contract shared by every backend
// ABOUTME: The data-access layer is written once against this interface
package storage

import "context"

// Record is one stored row, column name -> text value
type Record map[string]string

// Key is an ordered tuple of key column values.
// A partial key is a prefix of a table's key columns.
type Key []string

// Engine is a storage backend holding the study collections.
//
// Implementations must order Select results by key columns ascending so that
// "first match" lookups are deterministic, and must make every mutation
// durable before returning.
type Engine interface {
	// Name identifies the engine (native, embedded, postgres, charm)
	Name() string

	// Path describes where data lives (file path, DSN host, KV name)
	Path() string

	// Open acquires the underlying handle and creates every collection if absent.
	// It is idempotent.
	Open(ctx context.Context) error

	// SelectAll returns every record of a collection
	SelectAll(ctx context.Context, c Collection) ([]Record, error)

	// SelectWhere returns records whose leading key columns equal the partial key
	SelectWhere(ctx context.Context, c Collection, partial Key) ([]Record, error)

	// SelectByKey returns the record with the full key, reporting whether it exists
	SelectByKey(ctx context.Context, c Collection, key Key) (Record, bool, error)

	// Upsert inserts the record or fully replaces the existing one with the same key
	Upsert(ctx context.Context, c Collection, rec Record) error

	// DeleteByKey removes the record with the full key; absent records are not an error
	DeleteByKey(ctx context.Context, c Collection, key Key) error

	// DeleteWhere removes records matching a non-empty partial key and returns the count
	DeleteWhere(ctx context.Context, c Collection, partial Key) (int64, error)

	// Close releases the handle
	Close() error
}
