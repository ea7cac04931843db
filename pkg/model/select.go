package model

import (
	"sync"

	"github.com/vango-dev/vmodel/pkg/reactive"
	"github.com/vango-dev/vmodel/pkg/shallow"
	"github.com/vango-dev/vmodel/pkg/store"
)

// Select returns sel applied to the current state, and the actions.
// During a render the rendering view is subscribed and re-rendered only when
// the projection changes under shallow.Equal.
//
//	n, actions := model.Select(counter, func(s CounterState) int { return s.N })
func Select[S, V any](m *Model[S], sel func(S) V) (V, *Actions) {
	return SelectWith(m, sel, shallow.Equal[V])
}

// SelectWith is Select with a custom projection equality.
func SelectWith[S, V any](m *Model[S], sel func(S) V, eq func(a, b V) bool) (V, *Actions) {
	owner := reactive.CurrentOwner()
	listener := reactive.CurrentListener()
	if owner == nil || listener == nil || !reactive.InRender() {
		return sel(m.State()), m.actions
	}

	owner.TrackHook(reactive.HookSelect)
	var sub *selection[S, V]
	if slot := owner.UseHookSlot(); slot != nil {
		s, ok := slot.(*selection[S, V])
		if !ok {
			panic(reactive.SlotMismatch(reactive.HookSelect, slot))
		}
		sub = s
	} else {
		sub = &selection[S, V]{}
		owner.SetHookSlot(sub)
		owner.OnCleanup(sub.release)
	}
	return sub.bind(m, sel, eq, listener), m.actions
}

// selection is the per-call-site subscription of a rendering view to one
// projection of a model.
type selection[S, V any] struct {
	mu       sync.Mutex
	model    *Model[S]
	sel      func(S) V
	eq       func(a, b V) bool
	last     V
	listener reactive.Listener
	unsub    func()
}

// bind refreshes the selector for this render and returns the projection.
// The subscription is kept across renders and moved if the call site now
// reads a different model. It is registered before the state is read, and a
// change that lands while the projection is computed marks the view dirty.
func (s *selection[S, V]) bind(m *Model[S], sel func(S) V, eq func(a, b V) bool, l reactive.Listener) V {
	s.mu.Lock()
	s.sel, s.eq, s.listener = sel, eq, l
	var stale func()
	if s.model != m {
		stale = s.unsub
		s.model = m
		s.unsub = m.store.Subscribe(s.changed)
	}
	s.mu.Unlock()

	if stale != nil {
		stale()
	}

	version := m.Version()
	v := sel(m.State())

	s.mu.Lock()
	s.last = v
	s.mu.Unlock()

	if m.Version() != version && !eq(v, sel(m.State())) {
		reactive.Notify(l)
	}
	return v
}

func (s *selection[S, V]) changed(c store.Change[Bound[S]]) {
	s.mu.Lock()
	sel, eq, last, l := s.sel, s.eq, s.last, s.listener
	s.mu.Unlock()

	next := sel(c.Next.State)
	if eq(last, next) {
		return
	}

	s.mu.Lock()
	s.last = next
	s.mu.Unlock()
	reactive.Notify(l)
}

func (s *selection[S, V]) release() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.model = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Watch calls fn with the new projection whenever sel's result changes under
// shallow.Equal. It is the non-UI counterpart of Select. The returned
// function stops watching.
func Watch[S, V any](m *Model[S], sel func(S) V, fn func(V)) func() {
	var mu sync.Mutex
	var last V

	// Hold mu until last is set so changes racing the first read compare
	// against it.
	mu.Lock()
	stop := m.store.Subscribe(func(c store.Change[Bound[S]]) {
		next := sel(c.Next.State)

		mu.Lock()
		if shallow.Equal(last, next) {
			mu.Unlock()
			return
		}
		last = next
		mu.Unlock()

		fn(next)
	})
	last = sel(m.State())
	mu.Unlock()
	return stop
}
