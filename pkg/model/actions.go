package model

import (
	"context"
	"fmt"
	"slices"

	vmerrors "github.com/vango-dev/vmodel/internal/errors"
)

// Call describes one action dispatch as seen by interceptors.
type Call struct {
	Model  string
	Action string
	Args   []any

	// Async is true for dispatches started with Actions.Go.
	Async bool
}

// Interceptor wraps action dispatch. It must call next to run the action
// (or the rest of the chain) and may inspect or replace its error.
type Interceptor func(ctx context.Context, call Call, next func(context.Context) error) error

type boundAction func(ctx context.Context, args ...any) error

// Actions is the bound action map of one Model. It is built once and the
// same pointer is returned for the Model's whole life.
type Actions struct {
	model        string
	fns          map[string]boundAction
	names        []string
	interceptors []Interceptor
}

func newActions(model string, interceptors []Interceptor, size int) *Actions {
	return &Actions{
		model:        model,
		fns:          make(map[string]boundAction, size),
		interceptors: interceptors,
	}
}

func (a *Actions) add(name string, fn boundAction) {
	if _, ok := a.fns[name]; !ok {
		a.names = append(a.names, name)
		slices.Sort(a.names)
	}
	a.fns[name] = fn
}

// Model returns the name of the model the actions belong to.
func (a *Actions) Model() string {
	return a.model
}

// Names returns the action names in sorted order.
func (a *Actions) Names() []string {
	return slices.Clone(a.names)
}

// Has reports whether name is an action.
func (a *Actions) Has(name string) bool {
	_, ok := a.fns[name]
	return ok
}

// Get returns the action as a plain function, or nil.
func (a *Actions) Get(name string) func(ctx context.Context, args ...any) error {
	if !a.Has(name) {
		return nil
	}
	return func(ctx context.Context, args ...any) error {
		return a.Call(ctx, name, args...)
	}
}

// Call runs the named action on the calling goroutine with the current
// state and returns its error. A panic in the action propagates.
func (a *Actions) Call(ctx context.Context, name string, args ...any) error {
	fn, ok := a.fns[name]
	if !ok {
		return unknownAction(a.model, name)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return a.invoke(ctx, Call{Model: a.model, Action: name, Args: args}, fn)
}

// Go runs the named action on a new goroutine. The returned Pending
// resolves with the action's error; a panic is recovered and reported as
// ErrActionPanic.
func (a *Actions) Go(ctx context.Context, name string, args ...any) *Pending {
	p := newPending()

	fn, ok := a.fns[name]
	if !ok {
		p.resolve(unknownAction(a.model, name))
		return p
	}
	if ctx == nil {
		ctx = context.Background()
	}

	call := Call{Model: a.model, Action: name, Args: args, Async: true}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.resolve(actionPanic(a.model, name, r))
			}
		}()
		p.resolve(a.invoke(ctx, call, fn))
	}()
	return p
}

func (a *Actions) invoke(ctx context.Context, call Call, fn boundAction) error {
	next := func(ctx context.Context) error {
		return fn(ctx, call.Args...)
	}
	for i := len(a.interceptors) - 1; i >= 0; i-- {
		ic, inner := a.interceptors[i], next
		next = func(ctx context.Context) error {
			return ic(ctx, call, inner)
		}
	}
	return next(ctx)
}

func actionPanic(model, name string, r any) error {
	cause := ErrActionPanic
	if err, ok := r.(error); ok {
		cause = fmt.Errorf("%w: %w", ErrActionPanic, err)
	}
	return vmerrors.New("M009").WithDetailf("%s.%s: %v", model, name, r).Wrap(cause)
}

// Pending is the result of an action started with Actions.Go.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(err error) {
	p.err = err
	close(p.done)
}

// Done is closed when the action has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Err returns the action's error once it has finished, nil before.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the action finishes or ctx is done. Cancelling ctx
// stops the wait, not the action.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
