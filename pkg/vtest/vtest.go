package vtest

import (
	"testing"
	"time"

	"github.com/vango-dev/vmodel/pkg/reactive"
)

// Root returns a root scope disposed at the end of the test.
//
// Example:
//
//	root := vtest.Root(t)
//	reactive.WithOwner(root, func() { model.Provide(reg) })
func Root(t testing.TB) *reactive.Owner {
	t.Helper()
	root := reactive.NewOwner(nil)
	t.Cleanup(root.Dispose)
	return root
}

// Mount renders a view under a fresh root scope.
//
// Example:
//
//	view := vtest.Mount(t, func() { state, actions = model.UseModel(desc) })
func Mount(t testing.TB, render func()) *reactive.View {
	t.Helper()
	return reactive.Mount(Root(t), render)
}

// MountIn renders a view under parent, typically a scope that provides
// context values to it.
func MountIn(parent *reactive.Owner, render func()) *reactive.View {
	return reactive.Mount(parent, render)
}

// ExpectRenders asserts how many times view has rendered.
//
// Example:
//
//	vtest.ExpectRenders(t, view, 1) // no re-render after an equal update
func ExpectRenders(t testing.TB, view *reactive.View, want int) {
	t.Helper()
	if got := view.Renders(); got != want {
		t.Errorf("expected %d renders, got %d", want, got)
	}
}

// WaitFor polls cond until it returns true. It fails the test if cond is
// still false after timeout.
//
// Example:
//
//	vtest.WaitFor(t, time.Second, func() bool { return m.Version() == 3 })
func WaitFor(t testing.TB, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s", timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

// ExpectPanic runs fn and asserts that it panics. It returns the value
// passed to panic.
//
// Example:
//
//	r := vtest.ExpectPanic(t, func() { set.Set(model.Partial{"nope": 1}) })
func ExpectPanic(t testing.TB, fn func()) (recovered any) {
	t.Helper()
	defer func() {
		recovered = recover()
		if recovered == nil {
			t.Error("expected panic, got none")
		}
	}()
	fn()
	return nil
}
