package model

import (
	"context"
	"reflect"

	"github.com/vango-dev/vmodel/pkg/shallow"
)

// Partial is a one-level patch. For struct state, keys name fields by
// `model` tag, `json` tag or Go field name. For map state, keys are map keys.
type Partial map[string]any

// Action is a model action. state is the model's state at the moment the
// action is dispatched; args are the caller's arguments. Actions report
// results only through the Setter they closed over.
type Action[S any] func(ctx context.Context, state S, args ...any) error

// Descriptor defines a model: its initial state and a factory that builds
// the named actions from a Setter.
type Descriptor[S any] struct {
	// Name identifies the model in registries, logs and metrics.
	Name string

	// State is the initial state. It must be a struct, a pointer to a struct
	// or a map with string keys.
	State S

	// Actions builds the action map. It runs once per Model.
	Actions func(set Setter[S]) map[string]Action[S]
}

// Act0 adapts an action that takes no arguments.
func Act0[S any](fn func(ctx context.Context, state S) error) Action[S] {
	return func(ctx context.Context, state S, _ ...any) error {
		return fn(ctx, state)
	}
}

// Act1 adapts an action with one typed argument.
func Act1[S, A any](fn func(ctx context.Context, state S, a A) error) Action[S] {
	return func(ctx context.Context, state S, args ...any) error {
		a, err := Arg[A](args, 0)
		if err != nil {
			return err
		}
		return fn(ctx, state, a)
	}
}

// Act2 adapts an action with two typed arguments.
func Act2[S, A, B any](fn func(ctx context.Context, state S, a A, b B) error) Action[S] {
	return func(ctx context.Context, state S, args ...any) error {
		a, err := Arg[A](args, 0)
		if err != nil {
			return err
		}
		b, err := Arg[B](args, 1)
		if err != nil {
			return err
		}
		return fn(ctx, state, a, b)
	}
}

// Arg returns args[i] as a T. Numbers convert between numeric types, so
// arguments decoded from JSON (float64) can feed int parameters.
func Arg[T any](args []any, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(args) {
		return zero, badArgument(i, errMissing)
	}
	if v, ok := args[i].(T); ok {
		return v, nil
	}
	rv, err := shallow.Coerce(args[i], reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, badArgument(i, err)
	}
	v, _ := rv.Interface().(T)
	return v, nil
}
