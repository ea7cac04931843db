package model

import (
	"context"

	"github.com/vango-dev/vmodel/pkg/shallow"
	"github.com/vango-dev/vmodel/pkg/store"
)

// Bound is what a model's store holds: the state together with the action
// map bound to that store.
type Bound[S any] struct {
	State   S
	Actions *Actions
}

// boundEqual compares states shallowly and action maps by identity.
func boundEqual[S any](a, b Bound[S]) bool {
	return a.Actions == b.Actions && shallow.Equal(a.State, b.State)
}

// Adapt turns d into a store initializer. The initializer builds a Setter
// over the store's native set and get, runs d.Actions once with it, and
// binds every action so it receives the state current at call time.
//
//	s := store.New(model.Adapt(counter))
//	s.Get().Actions.Call(ctx, "inc", 5)
func Adapt[S any](d Descriptor[S], opts ...Option) store.Initializer[Bound[S]] {
	o := buildOptions(opts)
	name := o.name
	if name == "" {
		name = d.Name
	}
	return adapt(d, name, o.interceptors)
}

func adapt[S any](d Descriptor[S], name string, interceptors []Interceptor) store.Initializer[Bound[S]] {
	return func(set store.SetFunc[Bound[S]], get store.GetFunc[Bound[S]]) Bound[S] {
		setter := Setter[S]{model: name, set: set, get: get}

		var defs map[string]Action[S]
		if d.Actions != nil {
			defs = d.Actions(setter)
		}

		actions := newActions(name, interceptors, len(defs))
		for actionName, act := range defs {
			actions.add(actionName, func(ctx context.Context, args ...any) error {
				return act(ctx, get().State, args...)
			})
		}

		return Bound[S]{State: d.State, Actions: actions}
	}
}
