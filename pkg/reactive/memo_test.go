package reactive

import "testing"

func TestUseMemoOutsideRender(t *testing.T) {
	calls := 0
	for i := 0; i < 3; i++ {
		UseMemo(func() int { calls++; return calls }, 1)
	}
	if calls != 3 {
		t.Errorf("compute ran %d times outside render, want 3", calls)
	}
}

func TestUseMemoDeps(t *testing.T) {
	calls := 0
	dep := 1
	var got int

	v := Mount(nil, func() {
		got = UseMemo(func() int {
			calls++
			return dep * 10
		}, dep)
	})
	defer v.Dispose()

	v.MarkDirty()
	if calls != 1 || got != 10 {
		t.Errorf("unchanged deps: calls=%d got=%d, want 1 and 10", calls, got)
	}

	dep = 2
	v.MarkDirty()
	if calls != 2 || got != 20 {
		t.Errorf("changed deps: calls=%d got=%d, want 2 and 20", calls, got)
	}
}

func TestUseMemoSliceDepsShallow(t *testing.T) {
	items := []int{1, 2}
	calls := 0

	v := Mount(nil, func() {
		UseMemo(func() int { calls++; return len(items) }, items)
	})
	defer v.Dispose()

	items = append([]int(nil), items...)
	v.MarkDirty()
	if calls != 1 {
		t.Errorf("copy with equal elements recomputed: calls=%d", calls)
	}

	items = append(items, 3)
	v.MarkDirty()
	if calls != 2 {
		t.Errorf("grown slice not recomputed: calls=%d", calls)
	}
}

func TestUseMemoNilInterface(t *testing.T) {
	v := Mount(nil, func() {
		if err := UseMemo(func() error { return nil }); err != nil {
			t.Errorf("got %v, want nil", err)
		}
	})
	v.MarkDirty()
	v.Dispose()
}
