package main

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/vango-dev/vmodel/pkg/model"
)

// Counter is the state of the demo counter model.
type Counter struct {
	N    int `json:"n"`
	Step int `json:"step"`
}

// counterDescriptor returns the demo counter.
//
//	POST /models/counter/actions/inc       [5]
//	POST /models/counter/actions/incLater  [5, 1000]
func counterDescriptor() model.Descriptor[Counter] {
	return model.Descriptor[Counter]{
		Name:  "counter",
		State: Counter{Step: 1},
		Actions: func(set model.Setter[Counter]) map[string]model.Action[Counter] {
			return map[string]model.Action[Counter]{
				"inc": model.Act1(func(_ context.Context, _ Counter, by int) error {
					set.Update(func(s Counter) model.Partial {
						return model.Partial{"n": s.N + by}
					})
					return nil
				}),
				"step": model.Act0(func(_ context.Context, _ Counter) error {
					set.Update(func(s Counter) model.Partial {
						return model.Partial{"n": s.N + s.Step}
					})
					return nil
				}),
				"setStep": model.Act1(func(_ context.Context, _ Counter, step int) error {
					set.Set(model.Partial{"step": step})
					return nil
				}),
				"reset": model.Act0(func(_ context.Context, _ Counter) error {
					set.Set(model.Partial{"n": 0})
					return nil
				}),
				// incLater blocks for delayMs, then adds to the state current at that time.
				"incLater": model.Act2(func(ctx context.Context, _ Counter, by, delayMs int) error {
					select {
					case <-time.After(time.Duration(delayMs) * time.Millisecond):
					case <-ctx.Done():
						return ctx.Err()
					}
					set.Update(func(s Counter) model.Partial {
						return model.Partial{"n": s.N + by}
					})
					return nil
				}),
			}
		},
	}
}

// Todo is a single todo item.
type Todo struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Todos is the state of the demo todo list.
type Todos struct {
	Items  []Todo `json:"items"`
	NextID int    `json:"nextId"`
	Filter string `json:"filter"`
}

var (
	errEmptyTitle = errors.New("todo title is empty")
	errNoSuchTodo = errors.New("no such todo")
	errBadFilter  = errors.New("filter must be all, active or done")
)

// Visible returns the items that pass the current filter.
func (t Todos) Visible() []Todo {
	switch t.Filter {
	case "active":
		return slices.DeleteFunc(slices.Clone(t.Items), func(td Todo) bool { return td.Done })
	case "done":
		return slices.DeleteFunc(slices.Clone(t.Items), func(td Todo) bool { return !td.Done })
	}
	return t.Items
}

func todosDescriptor() model.Descriptor[Todos] {
	return model.Descriptor[Todos]{
		Name:  "todos",
		State: Todos{NextID: 1, Filter: "all"},
		Actions: func(set model.Setter[Todos]) map[string]model.Action[Todos] {
			// update applies fn to a copy of the items. Items are never
			// modified in place: the previous slice belongs to the previous state.
			update := func(fn func(items []Todo) ([]Todo, error)) error {
				var err error
				set.Update(func(s Todos) model.Partial {
					items, ferr := fn(slices.Clone(s.Items))
					if ferr != nil {
						err = ferr
						return nil
					}
					return model.Partial{"items": items}
				})
				return err
			}

			return map[string]model.Action[Todos]{
				"add": model.Act1(func(_ context.Context, _ Todos, title string) error {
					title = strings.TrimSpace(title)
					if title == "" {
						return errEmptyTitle
					}
					set.Update(func(s Todos) model.Partial {
						return model.Partial{
							"items":  append(slices.Clone(s.Items), Todo{ID: s.NextID, Title: title}),
							"nextId": s.NextID + 1,
						}
					})
					return nil
				}),
				"toggle": model.Act1(func(_ context.Context, _ Todos, id int) error {
					return update(func(items []Todo) ([]Todo, error) {
						i := slices.IndexFunc(items, func(td Todo) bool { return td.ID == id })
						if i < 0 {
							return nil, errNoSuchTodo
						}
						items[i].Done = !items[i].Done
						return items, nil
					})
				}),
				"remove": model.Act1(func(_ context.Context, _ Todos, id int) error {
					return update(func(items []Todo) ([]Todo, error) {
						i := slices.IndexFunc(items, func(td Todo) bool { return td.ID == id })
						if i < 0 {
							return nil, errNoSuchTodo
						}
						return slices.Delete(items, i, i+1), nil
					})
				}),
				"clearDone": model.Act0(func(_ context.Context, _ Todos) error {
					return update(func(items []Todo) ([]Todo, error) {
						return slices.DeleteFunc(items, func(td Todo) bool { return td.Done }), nil
					})
				}),
				"filter": model.Act1(func(_ context.Context, _ Todos, filter string) error {
					switch filter {
					case "all", "active", "done":
						set.Set(model.Partial{"filter": filter})
						return nil
					}
					return errBadFilter
				}),
			}
		},
	}
}
