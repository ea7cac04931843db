package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vango-dev/vmodel/pkg/model"
)

func TestCounterIncLaterSeesInterleavedUpdates(t *testing.T) {
	m := model.New(counterDescriptor())
	defer m.Destroy()
	ctx := context.Background()

	pending := m.Actions().Go(ctx, "incLater", 5, 20)
	if err := m.Actions().Call(ctx, "inc", 1); err != nil {
		t.Fatal(err)
	}
	if err := pending.Wait(ctx); err != nil {
		t.Fatalf("incLater: %v", err)
	}
	if got := m.State().N; got != 6 {
		t.Errorf("n = %d, want 6", got)
	}
}

func TestCounterIncLaterCanceled(t *testing.T) {
	m := model.New(counterDescriptor())
	defer m.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := m.Actions().Call(ctx, "incLater", 5, 10_000)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if m.State().N != 0 {
		t.Errorf("canceled action changed state")
	}
}

func TestCounterStep(t *testing.T) {
	m := model.New(counterDescriptor())
	defer m.Destroy()
	a := m.Actions()
	ctx := context.Background()

	_ = a.Call(ctx, "setStep", 10)
	_ = a.Call(ctx, "step")
	_ = a.Call(ctx, "step")
	if got := m.State(); got.N != 20 || got.Step != 10 {
		t.Errorf("state = %+v", got)
	}
	_ = a.Call(ctx, "reset")
	if got := m.State(); got.N != 0 || got.Step != 10 {
		t.Errorf("after reset = %+v", got)
	}
}

func TestTodos(t *testing.T) {
	m := model.New(todosDescriptor())
	defer m.Destroy()
	a := m.Actions()
	ctx := context.Background()

	for _, title := range []string{"one", " two ", "three"} {
		if err := a.Call(ctx, "add", title); err != nil {
			t.Fatalf("add(%q): %v", title, err)
		}
	}
	if err := a.Call(ctx, "add", "  "); !errors.Is(err, errEmptyTitle) {
		t.Errorf("add blank = %v, want errEmptyTitle", err)
	}

	before := m.State().Items
	if err := a.Call(ctx, "toggle", 2); err != nil {
		t.Fatal(err)
	}
	if before[1].Done {
		t.Error("toggle modified the previous state's items")
	}

	s := m.State()
	if len(s.Items) != 3 || s.Items[1].Title != "two" || !s.Items[1].Done || s.NextID != 4 {
		t.Fatalf("state = %+v", s)
	}

	if err := a.Call(ctx, "filter", "done"); err != nil {
		t.Fatal(err)
	}
	if v := m.State().Visible(); len(v) != 1 || v[0].ID != 2 {
		t.Errorf("done filter = %+v", v)
	}
	_ = a.Call(ctx, "filter", "active")
	if v := m.State().Visible(); len(v) != 2 {
		t.Errorf("active filter = %+v", v)
	}
	if err := a.Call(ctx, "filter", "someday"); !errors.Is(err, errBadFilter) {
		t.Errorf("bad filter = %v", err)
	}

	if err := a.Call(ctx, "remove", 99); !errors.Is(err, errNoSuchTodo) {
		t.Errorf("remove missing = %v, want errNoSuchTodo", err)
	}
	if err := a.Call(ctx, "clearDone"); err != nil {
		t.Fatal(err)
	}
	if err := a.Call(ctx, "remove", 1); err != nil {
		t.Fatal(err)
	}
	if items := m.State().Items; len(items) != 1 || items[0].Title != "three" {
		t.Errorf("items = %+v", items)
	}
}

func TestTodosFailedUpdateDoesNotNotify(t *testing.T) {
	m := model.New(todosDescriptor())
	defer m.Destroy()

	notified := 0
	unsub := m.Subscribe(func(_, _ Todos) { notified++ })
	defer unsub()

	_ = m.Actions().Call(context.Background(), "toggle", 1)
	if notified != 0 {
		t.Errorf("notified %d times for a failed toggle", notified)
	}
}
