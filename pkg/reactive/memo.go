package reactive

import "github.com/vango-dev/vmodel/pkg/shallow"

type memoSlot struct {
	deps  []any
	value any
}

// UseMemo returns compute's result, recomputing it only when deps change
// between renders. Deps are compared element-wise with shallow.Equal.
// Outside a render there is no slot to memoize into and compute always runs.
//
//	visible := reactive.UseMemo(func() []Todo {
//	    return filter(todos, mode)
//	}, todos, mode)
func UseMemo[T any](compute func() T, deps ...any) T {
	owner := getCurrentOwner()
	if owner == nil || !isRendering() {
		return compute()
	}

	owner.TrackHook(HookMemo)
	if slot := owner.UseHookSlot(); slot != nil {
		m, ok := slot.(*memoSlot)
		if !ok {
			panic(SlotMismatch(HookMemo, slot))
		}
		if !depsEqual(m.deps, deps) {
			m.deps = deps
			m.value = compute()
		}
		v, _ := m.value.(T)
		return v
	}

	v := compute()
	owner.SetHookSlot(&memoSlot{deps: deps, value: v})
	return v
}

func depsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !shallow.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
