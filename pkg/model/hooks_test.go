package model

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	vmerrors "github.com/vango-dev/vmodel/internal/errors"
	"github.com/vango-dev/vmodel/pkg/reactive"
	"github.com/vango-dev/vmodel/pkg/vtest"
)

type cartState struct {
	Items []string `json:"items"`
	Total int      `json:"total"`
}

var cartDescriptor = Descriptor[*cartState]{
	Name:  "cart",
	State: &cartState{},
	Actions: func(set Setter[*cartState]) map[string]Action[*cartState] {
		return map[string]Action[*cartState]{
			"add": Act2(func(_ context.Context, s *cartState, item string, price int) error {
				items := append(append([]string(nil), s.Items...), item)
				set.Set(Partial{"items": items, "total": s.Total + price})
				return nil
			}),
		}
	},
}

func TestSingletonSharedByConsumers(t *testing.T) {
	cart := Create(&cartDescriptor)

	var a, b *cartState
	var actionsA, actionsB *Actions
	viewA := vtest.Mount(t, func() { a, actionsA = cart.Use() })
	viewB := vtest.Mount(t, func() { b, actionsB = cart.Use() })

	if actionsA != actionsB {
		t.Fatal("consumers received different action maps")
	}
	if err := actionsA.Call(context.Background(), "add", "tea", 4); err != nil {
		t.Fatal(err)
	}

	vtest.ExpectRenders(t, viewA, 2)
	vtest.ExpectRenders(t, viewB, 2)
	if a != b {
		t.Error("consumers observe different state references")
	}
	if a.Total != 4 || len(a.Items) != 1 {
		t.Errorf("state = %+v", a)
	}
	if cart.Destroyed() {
		t.Error("package-level model destroyed by a consumer")
	}
}

func TestCreateMemoizedInScope(t *testing.T) {
	var first, again, other *Model[*cartState]
	renders := 0
	otherDesc := cartDescriptor

	view := vtest.Mount(t, func() {
		renders++
		m := Create(&cartDescriptor)
		if renders == 1 {
			first = m
		} else {
			again = m
		}
		other = Create(&otherDesc)
	})
	view.MarkDirty()

	if first == nil || first != again {
		t.Error("same descriptor in same scope produced different models")
	}
	if other == first {
		t.Error("different descriptor pointers shared a model")
	}

	view.Dispose()
	if !first.Destroyed() || !other.Destroyed() {
		t.Error("scoped models should be destroyed with the scope")
	}
}

func TestUseModelInlineDescriptor(t *testing.T) {
	reg := NewRegistry()
	var state counterState
	var actions *Actions
	seen := map[*Actions]bool{}

	view := vtest.Mount(t, func() {
		state, actions = UseModel(counterDescriptor(), WithRegistry(reg))
		seen[actions] = true
	})

	if err := actions.Call(context.Background(), "inc", 2); err != nil {
		t.Fatal(err)
	}
	view.MarkDirty()

	vtest.ExpectRenders(t, view, 3)
	if len(seen) != 1 {
		t.Errorf("inline descriptor created %d models, want 1", len(seen))
	}
	if state.N != 2 {
		t.Errorf("state.N = %d, want 2", state.N)
	}
	if reg.Len() != 1 {
		t.Fatalf("registry has %d models, want 1", reg.Len())
	}

	view.Dispose()
	if reg.Len() != 0 {
		t.Error("model not destroyed with its component")
	}
}

func TestUseModelSelectRerendersOnProjection(t *testing.T) {
	var label string
	var actions *Actions
	view := vtest.Mount(t, func() {
		label, actions = UseModelSelect(counterDescriptor(), func(s counterState) string {
			return s.Label
		})
	})
	ctx := context.Background()

	_ = actions.Call(ctx, "inc", 1)
	vtest.ExpectRenders(t, view, 1)

	_ = actions.Call(ctx, "rename", "visits")
	vtest.ExpectRenders(t, view, 2)
	if label != "visits" {
		t.Errorf("label = %q, want visits", label)
	}
}

func TestSelectShallowProjection(t *testing.T) {
	m := New(counterDescriptor())
	type pair struct {
		N     int
		Label string
	}

	view := vtest.Mount(t, func() {
		Select(m, func(s counterState) pair { return pair{s.N, s.Label} })
	})

	m.Actions().Call(context.Background(), "touch")
	vtest.ExpectRenders(t, view, 1)

	m.Actions().Call(context.Background(), "inc", 1)
	vtest.ExpectRenders(t, view, 2)
}

func TestSelectWithCustomEquality(t *testing.T) {
	m := New(counterDescriptor())
	sameParity := func(a, b int) bool { return a%2 == b%2 }

	view := vtest.Mount(t, func() {
		SelectWith(m, func(s counterState) int { return s.N }, sameParity)
	})
	ctx := context.Background()

	_ = m.Actions().Call(ctx, "inc", 2)
	vtest.ExpectRenders(t, view, 1)
	_ = m.Actions().Call(ctx, "inc", 1)
	vtest.ExpectRenders(t, view, 2)
}

func TestSelectReleasedOnDispose(t *testing.T) {
	m := New(counterDescriptor())
	view := vtest.Mount(t, func() { m.Use() })

	if m.store.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", m.store.Subscribers())
	}
	view.MarkDirty()
	if m.store.Subscribers() != 1 {
		t.Errorf("re-render added subscribers: %d", m.store.Subscribers())
	}

	view.Dispose()
	if m.store.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d after dispose, want 0", m.store.Subscribers())
	}
}

func TestSelectMovesToNewModel(t *testing.T) {
	a := New(counterDescriptor())
	b := New(counterDescriptor())
	current := a

	view := vtest.Mount(t, func() { current.Use() })
	current = b
	view.MarkDirty()

	if a.store.Subscribers() != 0 || b.store.Subscribers() != 1 {
		t.Errorf("subscribers a=%d b=%d, want 0 and 1",
			a.store.Subscribers(), b.store.Subscribers())
	}

	_ = a.Actions().Call(context.Background(), "inc", 1)
	vtest.ExpectRenders(t, view, 2)
}

func TestSelectOutsideRender(t *testing.T) {
	m := New(counterDescriptor())
	n, actions := Select(m, func(s counterState) int { return s.N })
	if n != 0 || actions != m.Actions() {
		t.Errorf("Select() = %d, %p", n, actions)
	}
	if m.store.Subscribers() != 0 {
		t.Error("Select outside render subscribed")
	}
}

func TestBatchedUpdatesRenderOnce(t *testing.T) {
	m := New(counterDescriptor())
	view := vtest.Mount(t, func() { m.Use() })
	ctx := context.Background()

	reactive.Batch(func() {
		_ = m.Actions().Call(ctx, "inc", 1)
		_ = m.Actions().Call(ctx, "rename", "batched")
	})

	vtest.ExpectRenders(t, view, 2)
}

func TestKeyedModelSharedThroughProvidedRegistry(t *testing.T) {
	reg := NewRegistry()
	root := vtest.Root(t)
	reactive.WithOwner(root, func() { Provide(reg) })

	var a, b *Actions
	var nb int
	vtest.MountIn(root, func() { _, a = UseModel(counterDescriptor(), WithKey("shared")) })
	viewB := vtest.MountIn(root, func() {
		nb, b = UseModelSelect(counterDescriptor(), func(s counterState) int { return s.N }, WithKey("shared"))
	})

	if a != b {
		t.Fatal("keyed consumers got different models")
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "shared" {
		t.Errorf("Names() = %v", names)
	}

	_ = a.Call(context.Background(), "inc", 3)
	vtest.ExpectRenders(t, viewB, 2)
	if nb != 3 {
		t.Errorf("nb = %d, want 3", nb)
	}

	r := vtest.ExpectPanic(t, func() {
		vtest.MountIn(root, func() {
			UseModel(Descriptor[map[string]any]{State: map[string]any{}}, WithKey("shared"))
		})
	})
	var me *vmerrors.ModelError
	if err, _ := r.(error); !errors.As(err, &me) || me.Code != "M007" || !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("panic = %v, want M007", r)
	}
}

func TestKeyedModelOutsideRender(t *testing.T) {
	reg := NewRegistry()
	_, a := UseModel(counterDescriptor(), WithKey("k"), WithRegistry(reg))
	_, b := UseModel(counterDescriptor(), WithKey("k"), WithRegistry(reg))
	if a != b {
		t.Error("keyed UseModel outside render created two models")
	}

	_, c := UseModel(counterDescriptor())
	_, d := UseModel(counterDescriptor())
	if c == d {
		t.Error("unkeyed UseModel outside render should not share")
	}
}

func TestHookSlotMismatchPanics(t *testing.T) {
	useSelect := true
	m := New(counterDescriptor())
	view := vtest.Mount(t, func() {
		if useSelect {
			m.Use()
		} else {
			UseModel(counterDescriptor())
		}
	})

	useSelect = false
	r := vtest.ExpectPanic(t, view.MarkDirty)
	var me *vmerrors.ModelError
	if err, _ := r.(error); !errors.As(err, &me) || me.Code != "M005" {
		t.Errorf("panic = %v, want M005", r)
	}
}

func TestSelectSeesChangeDuringFirstRead(t *testing.T) {
	m := New(counterDescriptor())
	ctx := context.Background()

	var fired atomic.Bool
	var n atomic.Int64
	view := vtest.Mount(t, func() {
		got, _ := Select(m, func(s counterState) int {
			if fired.CompareAndSwap(false, true) {
				if err := m.Actions().Go(ctx, "inc", 7).Wait(ctx); err != nil {
					t.Errorf("inc: %v", err)
				}
			}
			return s.N
		})
		n.Store(int64(got))
	})

	vtest.WaitFor(t, time.Second, func() bool { return n.Load() == 7 })
	if m.State().N != 7 {
		t.Errorf("store N = %d, want 7", m.State().N)
	}
	if view.Renders() < 2 {
		t.Errorf("renders = %d, want a re-render after the concurrent change", view.Renders())
	}
}
