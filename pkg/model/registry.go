package model

import (
	"context"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

// Inspectable is the untyped view of a Model used by tooling: devtools,
// persistence and the CLI. *Model[S] implements it for every S.
type Inspectable interface {
	Name() string
	Version() uint64
	Snapshot() ([]byte, error)
	Restore(data []byte) error
	Watch(fn func(version uint64)) func()
	Dispatch(ctx context.Context, action string, args ...any) error
	ActionNames() []string
}

// Registry is a concurrent set of models by name.
type Registry struct {
	models *xsync.MapOf[string, Inspectable]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		models: xsync.NewMapOf[string, Inspectable](),
	}
}

// Register adds m under its name, replacing any model of the same name.
func (r *Registry) Register(m Inspectable) {
	r.models.Store(m.Name(), m)
}

// Get returns the model registered under name.
func (r *Registry) Get(name string) (Inspectable, bool) {
	return r.models.Load(name)
}

// Delete removes name from the registry.
func (r *Registry) Delete(name string) {
	r.models.Delete(name)
}

// LoadOrCreate returns the model under key, or registers the one built by
// create. create runs at most once per key.
func (r *Registry) LoadOrCreate(key string, create func() Inspectable) (Inspectable, bool) {
	return r.models.LoadOrCompute(key, create)
}

// remove deletes name only while it still maps to m.
func (r *Registry) remove(name string, m Inspectable) {
	r.models.Compute(name, func(old Inspectable, loaded bool) (Inspectable, bool) {
		return old, !loaded || old == m
	})
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.models.Size())
	r.models.Range(func(name string, _ Inspectable) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

// Range calls fn for every model until fn returns false.
func (r *Registry) Range(fn func(m Inspectable) bool) {
	r.models.Range(func(_ string, m Inspectable) bool {
		return fn(m)
	})
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	return r.models.Size()
}
