// ABOUTME: Table descriptors for the study collections
// ABOUTME: Column names here are the only identifiers ever placed in query text
package storage

import (
	"fmt"

	"github.com/thumbcoded/kemmei-app-sub000/internal/models"
)

// Collection names a stored table
type Collection string

const (
	Cards           Collection = "cards"
	Users           Collection = "users"
	Settings        Collection = "settings"
	Progress        Collection = "user_progress"
	TestCompletions Collection = "test_completions"
	Unlocks         Collection = "user_unlocks"
)

// Column names
const (
	ColID           = "id"
	ColTitle        = "title"
	ColContent      = "content"
	ColMetadata     = "metadata"
	ColUsername     = "username"
	ColPasswordHash = "password_hash"
	ColKey          = "key"
	ColValue        = "value"
	ColUserID       = "user_id"
	ColData         = "data"
)

// Table describes a collection's key and value columns
type Table struct {
	Name    Collection
	Keys    []string
	Columns []string
}

var tables = []Table{
	{Name: Cards, Keys: []string{ColID}, Columns: []string{ColTitle, ColContent, ColMetadata}},
	{Name: Users, Keys: []string{ColID}, Columns: []string{ColUsername, ColPasswordHash, ColMetadata}},
	{Name: Settings, Keys: []string{ColKey}, Columns: []string{ColValue}},
	{Name: Progress, Keys: []string{ColUserID, ColKey}, Columns: []string{ColData}},
	{Name: TestCompletions, Keys: []string{ColUserID, ColKey}, Columns: []string{ColData}},
	{Name: Unlocks, Keys: []string{ColUserID, ColKey}, Columns: []string{ColData}},
}

// Tables returns every table descriptor in schema order
func Tables() []Table {
	out := make([]Table, len(tables))
	copy(out, tables)
	return out
}

// Lookup returns the descriptor for a collection
func Lookup(c Collection) (Table, error) {
	for _, t := range tables {
		if t.Name == c {
			return t, nil
		}
	}
	return Table{}, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
}

// NamespaceCollection maps a keyed-blob namespace to its table
func NamespaceCollection(ns models.Namespace) (Collection, error) {
	switch ns {
	case models.NamespaceProgress:
		return Progress, nil
	case models.NamespaceTestCompletions:
		return TestCompletions, nil
	case models.NamespaceUnlocks:
		return Unlocks, nil
	}
	return "", fmt.Errorf("%w: namespace %q", ErrUnknownCollection, ns)
}

// AllColumns returns key columns followed by value columns
func (t Table) AllColumns() []string {
	cols := make([]string, 0, len(t.Keys)+len(t.Columns))
	cols = append(cols, t.Keys...)
	return append(cols, t.Columns...)
}

// KeyOf extracts the full key tuple from a record
func (t Table) KeyOf(r Record) Key {
	k := make(Key, len(t.Keys))
	for i, col := range t.Keys {
		k[i] = r[col]
	}
	return k
}

// CheckKey validates a full key tuple
func (t Table) CheckKey(k Key) error {
	if len(k) != len(t.Keys) {
		return fmt.Errorf("%w: %s wants %d key parts, got %d", ErrKeyMismatch, t.Name, len(t.Keys), len(k))
	}
	return nil
}

// CheckPartial validates a partial key tuple. Empty partial keys are allowed unless nonEmpty is set.
func (t Table) CheckPartial(k Key, nonEmpty bool) error {
	if len(k) > len(t.Keys) {
		return fmt.Errorf("%w: %s has %d key parts, got %d", ErrKeyMismatch, t.Name, len(t.Keys), len(k))
	}
	if nonEmpty && len(k) == 0 {
		return fmt.Errorf("%w: %s bulk delete needs at least one key part", ErrKeyMismatch, t.Name)
	}
	return nil
}

// CheckRecord validates that every key column is set
func (t Table) CheckRecord(r Record) error {
	for _, col := range t.Keys {
		if r[col] == "" {
			return fmt.Errorf("%w: %s.%s is empty", ErrKeyMismatch, t.Name, col)
		}
	}
	return nil
}

// Normalize returns a copy holding exactly the table's columns; missing values become ""
func (t Table) Normalize(r Record) Record {
	out := make(Record, len(t.Keys)+len(t.Columns))
	for _, col := range t.AllColumns() {
		out[col] = r[col]
	}
	return out
}

// HasPrefix reports whether the record's leading key columns equal the partial key
func (t Table) HasPrefix(r Record, partial Key) bool {
	for i, v := range partial {
		if r[t.Keys[i]] != v {
			return false
		}
	}
	return true
}
