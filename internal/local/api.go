// Package local is the data-access layer over a storage.Engine.
//
// API is written once against the engine interface, so every engine yields
// the same observable behavior. Absence is reported as nil or an empty
// collection, missing required arguments as a Result with OK false, and
// engine failures as returned errors.
package local

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/thumbcoded/kemmei-app-sub000/internal/logging"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
)

// ErrorMissing is the Result.Error value for a missing userId or key
const ErrorMissing = "missing"

// Result is the outcome of a write that may be rejected for missing arguments
type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// InitResult reports a successful open and where the data lives
type InitResult struct {
	OK   bool   `json:"ok"`
	Path string `json:"path,omitempty"`
}

// SaveResult carries the ID of a saved card or user
type SaveResult struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// ImportResult counts imported cards
type ImportResult struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}

func ok() Result { return Result{OK: true} }

func missing() Result { return Result{OK: false, Error: ErrorMissing} }

// API is the local data-access surface. It owns the engine for its lifetime.
type API struct {
	engine        storage.Engine
	logger        logging.Logger
	domainMapPath string

	open  singleflight.Group
	ready atomic.Bool
}

// Option configures an API
type Option func(*API)

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithDomainMapPath sets the domain-map reference file
func WithDomainMapPath(path string) Option {
	return func(a *API) { a.domainMapPath = path }
}

// New wraps engine. The engine is opened lazily by the first call.
func New(engine storage.Engine, opts ...Option) *API {
	a := &API{engine: engine, logger: logging.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Engine returns the underlying engine
func (a *API) Engine() storage.Engine { return a.engine }

// Init opens the store and creates the schema if needed.
// Safe to call repeatedly and concurrently.
func (a *API) Init(ctx context.Context) (InitResult, error) {
	if err := a.ensureOpen(ctx); err != nil {
		return InitResult{}, err
	}
	return InitResult{OK: true, Path: a.engine.Path()}, nil
}

// ensureOpen runs at most one engine.Open at a time; concurrent callers share
// its outcome. A failed open leaves the API unready so a later call retries.
func (a *API) ensureOpen(ctx context.Context) error {
	if a.ready.Load() {
		return nil
	}
	_, err, _ := a.open.Do("open", func() (any, error) {
		if a.ready.Load() {
			return nil, nil
		}
		// The open is shared, so one caller's cancellation must not fail the rest.
		if err := a.engine.Open(context.WithoutCancel(ctx)); err != nil {
			a.logger.Error("store open failed", "engine", a.engine.Name(), "error", err)
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		a.ready.Store(true)
		a.logger.Info("store ready", "engine", a.engine.Name(), "path", a.engine.Path())
		return nil, nil
	})
	return err
}

// Close releases the engine. A later call reopens it.
func (a *API) Close() error {
	a.ready.Store(false)
	return a.engine.Close()
}
