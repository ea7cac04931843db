package store

import (
	"sync"
	"sync/atomic"

	vmerrors "github.com/vango-dev/vmodel/internal/errors"
	"github.com/vango-dev/vmodel/internal/goid"
	"github.com/vango-dev/vmodel/pkg/shallow"
)

// SetFunc applies update to the latest state.
type SetFunc[T any] func(update func(T) T)

// GetFunc returns the latest state.
type GetFunc[T any] func() T

// Initializer builds a store's initial state. set and get are bound to the
// store being created and stay valid for its whole life.
type Initializer[T any] func(set SetFunc[T], get GetFunc[T]) T

// Change describes one applied update.
type Change[T any] struct {
	Prev    T
	Next    T
	Version uint64
}

type subscriber[T any] struct {
	fn     func(Change[T])
	active atomic.Bool
}

// Store holds a value of type T and notifies subscribers when it changes.
type Store[T any] struct {
	id    uint64
	equal func(a, b T) bool

	mu      sync.Mutex
	state   T
	version uint64

	// updater is the goroutine running an update function under mu, or 0.
	updater atomic.Uint64

	subsMu sync.Mutex
	subs   []*subscriber[T]

	queueMu  sync.Mutex
	queue    []Change[T]
	draining bool

	destroyed atomic.Bool
}

// Option configures a Store.
type Option[T any] func(*Store[T])

// WithEqual replaces the change detection used by Set.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(s *Store[T]) {
		s.equal = eq
	}
}

var idCounter atomic.Uint64

// New creates a store and runs init to obtain its initial state.
func New[T any](init Initializer[T], opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		id:    idCounter.Add(1),
		equal: shallow.Equal[T],
	}
	for _, opt := range opts {
		opt(s)
	}

	initial := init(s.Set, s.Get)

	s.mu.Lock()
	s.state = initial
	s.mu.Unlock()
	return s
}

// ID returns the store's process-unique identifier.
func (s *Store[T]) ID() uint64 {
	return s.id
}

// Get returns the current state.
func (s *Store[T]) Get() T {
	s.checkReentry("Get")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Version returns the number of applied changes.
func (s *Store[T]) Version() uint64 {
	s.checkReentry("Version")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Set applies update to the latest state. The read-update-write runs under
// the store mutex, so concurrent Sets are applied one after another and none
// is lost. update must not call back into the same store: Get, Set or
// Version from inside update panics with M011.
func (s *Store[T]) Set(update func(T) T) {
	s.checkReentry("Set")
	if s.apply(update) {
		s.drain()
	}
}

func (s *Store[T]) apply(update func(T) T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updater.Store(goid.ID())
	defer s.updater.Store(0)

	prev := s.state
	next := update(prev)
	if s.equal(prev, next) {
		return false
	}
	s.state = next
	s.version++

	// Enqueue before releasing mu so delivery order matches apply order.
	s.queueMu.Lock()
	s.queue = append(s.queue, Change[T]{Prev: prev, Next: next, Version: s.version})
	s.queueMu.Unlock()
	return true
}

// checkReentry panics when the calling goroutine is inside one of this
// store's update functions, where taking mu again would deadlock.
func (s *Store[T]) checkReentry(op string) {
	if g := s.updater.Load(); g != 0 && g == goid.ID() {
		panic(vmerrors.New("M011").WithDetailf("store %d: %s called from inside an update", s.id, op))
	}
}

// Replace stores next as the whole state.
func (s *Store[T]) Replace(next T) {
	s.Set(func(T) T { return next })
}

// Subscribe registers fn for every subsequent change and returns a function
// that removes it. Unsubscribing is idempotent and takes effect immediately,
// even for a delivery round already in progress.
func (s *Store[T]) Subscribe(fn func(Change[T])) func() {
	if s.destroyed.Load() {
		return func() {}
	}

	sub := &subscriber[T]{fn: fn}
	sub.active.Store(true)

	s.subsMu.Lock()
	s.subs = append(s.subs, sub)
	s.subsMu.Unlock()

	return func() {
		if !sub.active.Swap(false) {
			return
		}
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		for i, x := range s.subs {
			if x == sub {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of active subscribers.
func (s *Store[T]) Subscribers() int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return len(s.subs)
}

// Destroy removes all subscribers. The state stays readable and writable,
// but nothing is notified anymore and new subscriptions are ignored.
func (s *Store[T]) Destroy() {
	if s.destroyed.Swap(true) {
		return
	}
	s.subsMu.Lock()
	subs := s.subs
	s.subs = nil
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.active.Store(false)
	}
}

// Destroyed reports whether Destroy was called.
func (s *Store[T]) Destroyed() bool {
	return s.destroyed.Load()
}

// drain delivers queued changes. Only one goroutine drains at a time; a
// Set made while draining, from a subscriber or another goroutine, is
// picked up by the active drainer after the current round.
func (s *Store[T]) drain() {
	s.queueMu.Lock()
	if s.draining {
		s.queueMu.Unlock()
		return
	}
	s.draining = true
	s.queueMu.Unlock()

	finished := false
	defer func() {
		if finished {
			return
		}
		// A subscriber panicked; let the next Set resume delivery.
		s.queueMu.Lock()
		s.draining = false
		s.queueMu.Unlock()
	}()

	for {
		s.queueMu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			finished = true
			s.queueMu.Unlock()
			return
		}
		change := s.queue[0]
		s.queue[0] = Change[T]{}
		s.queue = s.queue[1:]
		s.queueMu.Unlock()

		s.subsMu.Lock()
		subs := s.subs
		s.subsMu.Unlock()

		for _, sub := range subs {
			if sub.active.Load() {
				sub.fn(change)
			}
		}
	}
}
