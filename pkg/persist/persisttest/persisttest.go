// Package persisttest simulates process restarts for persisted models.
package persisttest

import (
	"context"
	"errors"
	"testing"

	"github.com/vango-dev/vmodel/pkg/model"
	"github.com/vango-dev/vmodel/pkg/persist"
)

// ErrNotPersisted is returned by LoadFromStore when storage has no snapshot.
var ErrNotPersisted = errors.New("persisttest: model not found in storage")

// Config configures a TestModel.
type Config struct {
	// Storage holds snapshots across simulated restarts.
	// If nil, an in-memory storage is created.
	Storage persist.Storage

	// Key is the storage key. Default: the model name.
	Key string
}

// Option configures a TestModel.
type Option func(*Config)

// WithStorage sets the storage snapshots are written to.
func WithStorage(s persist.Storage) Option {
	return func(c *Config) {
		c.Storage = s
	}
}

// WithKey sets the storage key.
func WithKey(key string) Option {
	return func(c *Config) {
		c.Key = key
	}
}

// TestModel wraps a model with lifecycle simulation methods.
// The embedded Model is replaced by a fresh instance on every simulated restart.
type TestModel[S any] struct {
	*model.Model[S]
	factory func() *model.Model[S]
	storage persist.Storage
	key     string
	starts  int
}

// New creates a TestModel. factory builds the model; it is called again on
// every simulated restart.
//
// Example:
//
//	tm := persisttest.New(func() *model.Model[Cart] { return model.New(cartDescriptor()) })
//	tm.Actions().Call(ctx, "add", "apple")
//
//	// Process goes down gracefully
//	if err := tm.SimulateRestart(); err != nil {
//	    t.Fatal(err)
//	}
//
//	// Cart should still be there
//	items := tm.State().Items
func New[S any](factory func() *model.Model[S], opts ...Option) *TestModel[S] {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Storage == nil {
		cfg.Storage = persist.NewMemoryStorage()
	}

	m := factory()
	if cfg.Key == "" {
		cfg.Key = m.Name()
	}
	return &TestModel[S]{
		Model:   m,
		factory: factory,
		storage: cfg.Storage,
		key:     cfg.Key,
		starts:  1,
	}
}

// SimulateRestart simulates a graceful shutdown and restart: the state is
// saved, the model destroyed, and a fresh model hydrated from storage.
func (t *TestModel[S]) SimulateRestart() error {
	if err := t.PersistNow(); err != nil {
		return err
	}
	return t.restart()
}

// SimulateCrash simulates an abrupt stop. Nothing is saved; the fresh model
// is hydrated from whatever snapshot storage already holds, or keeps its
// initial state when there is none.
func (t *TestModel[S]) SimulateCrash() error {
	return t.restart()
}

func (t *TestModel[S]) restart() error {
	t.Model.Destroy()
	t.Model = t.factory()
	t.starts++

	err := t.LoadFromStore()
	if errors.Is(err, ErrNotPersisted) {
		return nil
	}
	return err
}

// SimulateEviction removes the stored snapshot.
func (t *TestModel[S]) SimulateEviction() error {
	return t.storage.Delete(context.Background(), t.key)
}

// PersistNow writes the current state to storage.
func (t *TestModel[S]) PersistNow() error {
	data, err := t.Snapshot()
	if err != nil {
		return err
	}
	return t.storage.Save(context.Background(), t.key, data)
}

// LoadFromStore restores the stored snapshot into the current model.
// Returns ErrNotPersisted if there is none.
func (t *TestModel[S]) LoadFromStore() error {
	data, err := t.storage.Load(context.Background(), t.key)
	if errors.Is(err, persist.ErrNotFound) {
		return ErrNotPersisted
	}
	if err != nil {
		return err
	}
	return t.Restore(data)
}

// Storage returns the underlying storage for advanced testing.
func (t *TestModel[S]) Storage() persist.Storage {
	return t.storage
}

// Starts returns how many model instances have been created, including the first.
func (t *TestModel[S]) Starts() int {
	return t.starts
}

// AssertPersisted verifies that a snapshot is stored.
func (t *TestModel[S]) AssertPersisted(tb testing.TB) {
	tb.Helper()
	_, err := t.storage.Load(context.Background(), t.key)
	if errors.Is(err, persist.ErrNotFound) {
		tb.Fatalf("model %q not found in storage", t.key)
	}
	if err != nil {
		tb.Fatalf("failed to load model from storage: %v", err)
	}
}

// AssertNotPersisted verifies that no snapshot is stored.
func (t *TestModel[S]) AssertNotPersisted(tb testing.TB) {
	tb.Helper()
	_, err := t.storage.Load(context.Background(), t.key)
	if err == nil {
		tb.Fatalf("model %q unexpectedly found in storage", t.key)
	}
	if !errors.Is(err, persist.ErrNotFound) {
		tb.Fatalf("failed to check model in storage: %v", err)
	}
}
