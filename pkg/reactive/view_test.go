package reactive

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestMountRendersOnce(t *testing.T) {
	var inRender, hasListener bool
	v := Mount(nil, func() {
		inRender = InRender()
		hasListener = CurrentListener() != nil
	})
	defer v.Dispose()

	if v.Renders() != 1 {
		t.Errorf("Renders() = %d, want 1", v.Renders())
	}
	if !inRender || !hasListener {
		t.Error("render should run inside a render scope with a listener")
	}
	if InRender() || CurrentListener() != nil {
		t.Error("render scope leaked")
	}
}

func TestViewReentrantMarkCoalesces(t *testing.T) {
	var v *View
	count := 0
	v = Mount(nil, func() {
		count++
		if count == 1 {
			// Marks during render schedule exactly one more pass.
			v.MarkDirty()
			v.MarkDirty()
		}
	})
	defer v.Dispose()

	if count != 2 {
		t.Errorf("render ran %d times, want 2", count)
	}
}

func TestViewRenderLoopPanics(t *testing.T) {
	var v *View
	defer func() {
		if recover() == nil {
			t.Error("expected render loop panic")
		}
		if v != nil && v.running.Load() {
			t.Error("running flag not reset after panic")
		}
	}()
	v = &View{id: NextID(), owner: NewOwner(nil)}
	v.render = func() { v.MarkDirty() }
	v.MarkDirty()
}

func TestViewDisposedIgnoresMarks(t *testing.T) {
	root := NewOwner(nil)
	v := Mount(root, func() {})
	root.Dispose()

	if !v.Disposed() {
		t.Fatal("disposing the parent should dispose the view")
	}
	v.MarkDirty()
	if v.Renders() != 1 {
		t.Errorf("disposed view rendered: %d", v.Renders())
	}
}

func TestViewConcurrentMarks(t *testing.T) {
	var active, overlap atomic.Int32
	v := Mount(nil, func() {
		if active.Add(1) > 1 {
			overlap.Store(1)
		}
		active.Add(-1)
	})
	defer v.Dispose()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				v.MarkDirty()
			}
		}()
	}
	wg.Wait()

	if overlap.Load() != 0 {
		t.Error("renders overlapped")
	}
	if v.Renders() < 2 {
		t.Errorf("Renders() = %d, want at least 2", v.Renders())
	}
}
