package model

import (
	"github.com/vango-dev/vmodel/pkg/shallow"
	"github.com/vango-dev/vmodel/pkg/store"
)

// Setter is the single mutation entry point of a model. It is handed to the
// descriptor's Actions factory and stays bound to the live store.
//
// A Partial that names an unknown struct field, or carries a value that does
// not fit its field, panics with a coded error wrapping the cause.
type Setter[S any] struct {
	model string
	set   store.SetFunc[Bound[S]]
	get   store.GetFunc[Bound[S]]
}

// Set merges p into the latest state.
func (s Setter[S]) Set(p Partial) {
	s.Update(func(S) Partial { return p })
}

// Update calls fn with the latest state and merges the Partial it returns.
// The read and the merge happen atomically, so fn runs under the store lock:
// it must derive the patch from its argument only. Calling Get, Set, Update
// or Replace from inside fn panics with M011.
func (s Setter[S]) Update(fn func(state S) Partial) {
	s.set(func(b Bound[S]) Bound[S] {
		next, err := shallow.Merge(b.State, map[string]any(fn(b.State)))
		if err != nil {
			panic(mergeFailure(s.model, err))
		}
		b.State = next
		return b
	})
}

// Replace swaps the whole state for next.
func (s Setter[S]) Replace(next S) {
	s.set(func(b Bound[S]) Bound[S] {
		b.State = next
		return b
	})
}

// Get returns the latest state. Actions that suspend read it again after
// resuming instead of trusting their state argument.
func (s Setter[S]) Get() S {
	return s.get().State
}
