// Package sqlstore implements the storage primitives over database/sql.
//
// It is shared by the native, embedded and postgres engines. Query text is
// built only from the fixed table descriptors in package storage; every value
// is passed as a bound parameter. Dialects differ in placeholder syntax and
// the goose dialect used for schema creation.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/migrations"
)

// Dialect captures the SQL differences between engines
type Dialect struct {
	Name        string
	Goose       goose.Dialect
	Placeholder func(n int) string
}

// SQLite uses ? placeholders
var SQLite = Dialect{
	Name:        "sqlite",
	Goose:       goose.DialectSQLite3,
	Placeholder: func(int) string { return "?" },
}

// Postgres uses $n placeholders
var Postgres = Dialect{
	Name:        "postgres",
	Goose:       goose.DialectPostgres,
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

// DBTX is the subset of database/sql used for queries.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store runs the primitive operations against a DBTX
type Store struct {
	db      DBTX
	dialect Dialect
}

// New returns a Store bound to db
func New(db DBTX, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Migrate creates every table if absent using the embedded goose migrations
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	provider, err := goose.NewProvider(dialect.Goose, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// SelectWhere returns rows whose leading key columns equal partial, ordered by key
func (s *Store) SelectWhere(ctx context.Context, c storage.Collection, partial storage.Key) ([]storage.Record, error) {
	t, err := storage.Lookup(c)
	if err != nil {
		return nil, err
	}
	if err := t.CheckPartial(partial, false); err != nil {
		return nil, err
	}

	cols := t.AllColumns()
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		JoinIdents(cols), QuoteIdent(string(t.Name)), s.where(t.Keys[:len(partial)]), JoinIdents(t.Keys))

	rows, err := s.db.QueryContext(ctx, query, keyArgs(partial)...)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", c, err)
	}
	defer func() { _ = rows.Close() }()

	var records []storage.Record
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", c, err)
		}
		rec := make(storage.Record, len(cols))
		for i, col := range cols {
			rec[col] = values[i].String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", c, err)
	}
	return records, nil
}

// SelectByKey returns the row with the full key
func (s *Store) SelectByKey(ctx context.Context, c storage.Collection, key storage.Key) (storage.Record, bool, error) {
	t, err := storage.Lookup(c)
	if err != nil {
		return nil, false, err
	}
	if err := t.CheckKey(key); err != nil {
		return nil, false, err
	}
	records, err := s.SelectWhere(ctx, c, key)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0], true, nil
}

// Upsert inserts rec or replaces every value column of the existing row
func (s *Store) Upsert(ctx context.Context, c storage.Collection, rec storage.Record) error {
	t, err := storage.Lookup(c)
	if err != nil {
		return err
	}
	if err := t.CheckRecord(rec); err != nil {
		return err
	}

	cols := t.AllColumns()
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = s.dialect.Placeholder(i + 1)
		args[i] = rec[col]
	}

	sets := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		sets[i] = fmt.Sprintf("%s = excluded.%s", QuoteIdent(col), QuoteIdent(col))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		QuoteIdent(string(t.Name)), JoinIdents(cols), strings.Join(placeholders, ", "),
		JoinIdents(t.Keys), strings.Join(sets, ", "))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert %s: %w", c, err)
	}
	return nil
}

// DeleteByKey removes the row with the full key
func (s *Store) DeleteByKey(ctx context.Context, c storage.Collection, key storage.Key) error {
	t, err := storage.Lookup(c)
	if err != nil {
		return err
	}
	if err := t.CheckKey(key); err != nil {
		return err
	}
	_, err = s.deleteWhere(ctx, t, key)
	return err
}

// DeleteWhere removes rows matching a non-empty partial key
func (s *Store) DeleteWhere(ctx context.Context, c storage.Collection, partial storage.Key) (int64, error) {
	t, err := storage.Lookup(c)
	if err != nil {
		return 0, err
	}
	if err := t.CheckPartial(partial, true); err != nil {
		return 0, err
	}
	return s.deleteWhere(ctx, t, partial)
}

func (s *Store) deleteWhere(ctx context.Context, t storage.Table, key storage.Key) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s%s", QuoteIdent(string(t.Name)), s.where(t.Keys[:len(key)]))
	result, err := s.db.ExecContext(ctx, query, keyArgs(key)...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", t.Name, err)
	}
	return result.RowsAffected()
}

// where renders " WHERE a = ? AND b = ?" for the given key columns
func (s *Store) where(cols []string) string {
	if len(cols) == 0 {
		return ""
	}
	conds := make([]string, len(cols))
	for i, col := range cols {
		conds[i] = fmt.Sprintf("%s = %s", QuoteIdent(col), s.dialect.Placeholder(i+1))
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func keyArgs(k storage.Key) []any {
	args := make([]any, len(k))
	for i, v := range k {
		args[i] = v
	}
	return args
}

// QuoteIdent double-quotes an identifier. Only table descriptor names are passed here.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// JoinIdents quotes and comma-joins identifiers
func JoinIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
