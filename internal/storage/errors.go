// ABOUTME: Sentinel errors shared by storage engines
// ABOUTME: Callers match them with errors.Is
package storage

import "errors"

var (
	// ErrNotOpen is returned when an engine is used before Open
	ErrNotOpen = errors.New("storage: engine not open")
	// ErrUnknownCollection is returned for collections outside the schema
	ErrUnknownCollection = errors.New("storage: unknown collection")
	// ErrKeyMismatch is returned when a key tuple does not fit the table
	ErrKeyMismatch = errors.New("storage: key does not fit table")
	// ErrUnknownEngine is returned by the engine factory
	ErrUnknownEngine = errors.New("storage: unknown engine")
)
