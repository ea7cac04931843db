package reactive

import (
	"sync/atomic"

	"github.com/vango-dev/vmodel/internal/errors"
)

// maxRenderPasses bounds how often a view may be re-marked dirty while it is
// rendering before the loop is treated as a bug.
const maxRenderPasses = 100

// View is a re-rendering listener with its own Owner scope.
// Its render function runs with the view as the current listener, so hooks
// that read models subscribe it. MarkDirty re-runs render synchronously on
// the calling goroutine; marks arriving while a render is in progress, on
// any goroutine, are coalesced into one more pass by the renderer.
type View struct {
	id     uint64
	owner  *Owner
	render func()

	dirty    atomic.Bool
	running  atomic.Bool
	disposed atomic.Bool
	renders  atomic.Int64
}

// Mount creates a View under parent and renders it once.
// A nil parent mounts a root view.
func Mount(parent *Owner, render func()) *View {
	v := &View{
		id:     NextID(),
		owner:  NewOwner(parent),
		render: render,
	}
	v.owner.OnCleanup(func() {
		v.disposed.Store(true)
	})
	v.MarkDirty()
	return v
}

// ID implements Listener.
func (v *View) ID() uint64 {
	return v.id
}

// Owner returns the view's scope.
func (v *View) Owner() *Owner {
	return v.owner
}

// Renders returns how many times render has run.
func (v *View) Renders() int {
	return int(v.renders.Load())
}

// Disposed reports whether the view was disposed.
func (v *View) Disposed() bool {
	return v.disposed.Load()
}

// Dispose disposes the view's scope. Subscriptions made by hooks during
// render are released through the scope's cleanups.
func (v *View) Dispose() {
	v.owner.Dispose()
}

// MarkDirty implements Listener by re-rendering the view.
func (v *View) MarkDirty() {
	if v.disposed.Load() {
		return
	}
	v.dirty.Store(true)

	for {
		if !v.running.CompareAndSwap(false, true) {
			// The active renderer picks the mark up.
			return
		}
		v.drain()
		if !v.dirty.Load() || v.disposed.Load() {
			return
		}
	}
}

func (v *View) drain() {
	defer v.running.Store(false)

	passes := 0
	for v.dirty.Swap(false) {
		if v.disposed.Load() {
			return
		}
		passes++
		if passes > maxRenderPasses {
			panic(errors.New("M010").WithDetailf("view %d re-rendered %d times in one update", v.id, passes-1))
		}
		v.renderOnce()
	}
}

func (v *View) renderOnce() {
	restore := renderScope(v.owner, v)
	defer restore()

	v.owner.StartRender()
	v.render()
	v.owner.EndRender()
	v.renders.Add(1)
}
