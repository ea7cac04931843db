package model

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	vmerrors "github.com/vango-dev/vmodel/internal/errors"
	"github.com/vango-dev/vmodel/pkg/reactive"
	"github.com/vango-dev/vmodel/pkg/shallow"
	"github.com/vango-dev/vmodel/pkg/store"
)

// Model is a live store instance created from a Descriptor.
type Model[S any] struct {
	id       uint64
	name     string
	store    *store.Store[Bound[S]]
	actions  *Actions
	registry *Registry
}

// New creates a Model from d. It panics with a coded error when d.State is
// not a mergeable type.
func New[S any](d Descriptor[S], opts ...Option) *Model[S] {
	if _, err := shallow.Merge(d.State, nil); err != nil {
		panic(mergeFailure(d.Name, err))
	}

	o := buildOptions(opts)
	m := &Model[S]{id: reactive.NextID(), registry: o.registry}

	m.name = o.name
	if m.name == "" {
		m.name = d.Name
	}
	if m.name == "" {
		m.name = fmt.Sprintf("model-%d", m.id)
	}

	m.store = store.New(adapt(d, m.name, o.interceptors), store.WithEqual(boundEqual[S]))
	m.actions = m.store.Get().Actions

	if m.registry != nil {
		m.registry.Register(m)
	}
	return m
}

// Name returns the model's name.
func (m *Model[S]) Name() string {
	return m.name
}

// State returns the current state without subscribing.
func (m *Model[S]) State() S {
	return m.store.Get().State
}

// Actions returns the bound action map.
func (m *Model[S]) Actions() *Actions {
	return m.actions
}

// Version returns the number of state changes applied so far.
func (m *Model[S]) Version() uint64 {
	return m.store.Version()
}

// Subscribe calls fn after every state change and returns a function that
// removes it.
func (m *Model[S]) Subscribe(fn func(prev, next S)) func() {
	return m.store.Subscribe(func(c store.Change[Bound[S]]) {
		fn(c.Prev.State, c.Next.State)
	})
}

// Destroy drops all subscribers and removes the model from its registry.
// The state stays readable and actions keep working.
func (m *Model[S]) Destroy() {
	m.store.Destroy()
	if m.registry != nil {
		m.registry.remove(m.name, m)
	}
}

// Destroyed reports whether Destroy was called.
func (m *Model[S]) Destroyed() bool {
	return m.store.Destroyed()
}

// Use returns the full state and the actions. During a render it subscribes
// the rendering view to state changes.
func (m *Model[S]) Use() (S, *Actions) {
	return SelectWith(m, identity[S], shallow.Equal[S])
}

func identity[S any](s S) S { return s }

// ActionNames implements Inspectable.
func (m *Model[S]) ActionNames() []string {
	return m.actions.Names()
}

// Dispatch implements Inspectable.
func (m *Model[S]) Dispatch(ctx context.Context, action string, args ...any) error {
	return m.actions.Call(ctx, action, args...)
}

// Watch implements Inspectable. fn receives the version of every change.
func (m *Model[S]) Watch(fn func(version uint64)) func() {
	return m.store.Subscribe(func(c store.Change[Bound[S]]) {
		fn(c.Version)
	})
}

// Snapshot encodes the current state as JSON.
func (m *Model[S]) Snapshot() ([]byte, error) {
	data, err := sonic.Marshal(m.State())
	if err != nil {
		return nil, vmerrors.New("M020").WithDetailf("model %q", m.name).Wrap(err)
	}
	return data, nil
}

// Restore decodes a JSON snapshot and replaces the state with it.
// Subscribers are notified as for any other change.
func (m *Model[S]) Restore(data []byte) error {
	var next S
	if err := sonic.Unmarshal(data, &next); err != nil {
		return vmerrors.New("M021").WithDetailf("model %q", m.name).Wrap(err)
	}
	m.store.Set(func(b Bound[S]) Bound[S] {
		b.State = next
		return b
	})
	return nil
}
