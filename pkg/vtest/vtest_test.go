package vtest

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/vango-dev/vmodel/pkg/reactive"
)

func TestMountDisposedAtCleanup(t *testing.T) {
	var view *reactive.View
	t.Run("inner", func(t *testing.T) {
		view = Mount(t, func() {})
		ExpectRenders(t, view, 1)
	})
	if !view.Disposed() {
		t.Error("view should be disposed when the subtest ends")
	}
}

func TestMountIn(t *testing.T) {
	root := Root(t)
	reactive.WithOwner(root, func() {
		reactive.SetContext("k", "v")
	})

	var got any
	MountIn(root, func() { got = reactive.GetContext("k") })
	if got != "v" {
		t.Errorf("context value = %v, want v", got)
	}
}

func TestWaitFor(t *testing.T) {
	var done atomic.Bool
	go func() {
		time.Sleep(5 * time.Millisecond)
		done.Store(true)
	}()
	WaitFor(t, time.Second, done.Load)
}

func TestExpectPanic(t *testing.T) {
	r := ExpectPanic(t, func() { panic("boom") })
	if r != "boom" {
		t.Errorf("recovered = %v, want boom", r)
	}
}
