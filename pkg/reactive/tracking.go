package reactive

import (
	"sync"

	"github.com/vango-dev/vmodel/internal/goid"
)

// trackingState is the per-goroutine reactive state.
type trackingState struct {
	// owner receives hook slots, context values and cleanups.
	owner *Owner

	// listener is subscribed by hooks that read stores during render.
	listener Listener

	// rendering is true between StartRender and EndRender of a View.
	rendering bool

	// batchDepth counts nested Batch calls.
	batchDepth int

	// pending holds listeners queued while batchDepth > 0.
	pending []Listener
}

func (s *trackingState) idle() bool {
	return s.owner == nil && s.listener == nil && !s.rendering &&
		s.batchDepth == 0 && len(s.pending) == 0
}

var trackingStates sync.Map // map[uint64]*trackingState

func currentState() *trackingState {
	gid := goid.ID()
	if s, ok := trackingStates.Load(gid); ok {
		return s.(*trackingState)
	}
	s := &trackingState{}
	trackingStates.Store(gid, s)
	return s
}

// peekState returns the goroutine's state without allocating one.
func peekState() *trackingState {
	if s, ok := trackingStates.Load(goid.ID()); ok {
		return s.(*trackingState)
	}
	return nil
}

// release drops the goroutine's entry once nothing is tracked on it anymore,
// so short-lived goroutines do not leak entries.
func release(s *trackingState) {
	if s.idle() {
		trackingStates.Delete(goid.ID())
	}
}

func getCurrentOwner() *Owner {
	if s := peekState(); s != nil {
		return s.owner
	}
	return nil
}

func getCurrentListener() Listener {
	if s := peekState(); s != nil {
		return s.listener
	}
	return nil
}

func isRendering() bool {
	if s := peekState(); s != nil {
		return s.rendering
	}
	return false
}

func getBatchDepth() int {
	if s := peekState(); s != nil {
		return s.batchDepth
	}
	return 0
}

func queuePending(l Listener) {
	s := currentState()
	s.pending = append(s.pending, l)
}

// CurrentOwner returns the Owner hooks on this goroutine attach to, or nil.
func CurrentOwner() *Owner {
	return getCurrentOwner()
}

// CurrentListener returns the Listener being rendered on this goroutine, or nil.
func CurrentListener() Listener {
	return getCurrentListener()
}

// InRender reports whether the calling goroutine is inside a View render.
// Hooks only memoize into slots while this is true.
func InRender() bool {
	return isRendering()
}

// WithOwner runs fn with owner as the current owner.
// Use it to provide context values on a root scope, or to run code on a
// spawned goroutine on behalf of a component.
func WithOwner(owner *Owner, fn func()) {
	s := currentState()
	old := s.owner
	s.owner = owner
	defer func() {
		s.owner = old
		release(s)
	}()
	fn()
}

// Untracked runs fn with no current listener, so hooks read inside fn do
// not subscribe the rendering view.
func Untracked(fn func()) {
	s := currentState()
	old := s.listener
	s.listener = nil
	defer func() {
		s.listener = old
		release(s)
	}()
	fn()
}

// renderScope installs owner and listener for a render pass and returns the
// function that restores the previous state.
func renderScope(owner *Owner, l Listener) func() {
	s := currentState()
	oldOwner, oldListener, oldRendering := s.owner, s.listener, s.rendering
	s.owner, s.listener, s.rendering = owner, l, true
	return func() {
		s.owner, s.listener, s.rendering = oldOwner, oldListener, oldRendering
		release(s)
	}
}
