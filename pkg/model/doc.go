// Package model gives application code a "model" shape over a store:
// a descriptor with initial state and a factory of named actions.
//
//	var Counter = model.Descriptor[CounterState]{
//	    Name:  "counter",
//	    State: CounterState{N: 0},
//	    Actions: func(set model.Setter[CounterState]) map[string]model.Action[CounterState] {
//	        return map[string]model.Action[CounterState]{
//	            "inc": model.Act1(func(ctx context.Context, s CounterState, by int) error {
//	                set.Set(model.Partial{"n": s.N + by})
//	                return nil
//	            }),
//	        }
//	    },
//	}
//
// The descriptor is adapted into a store initializer (Adapt). The setter
// merges one level deep: every key of a Partial overwrites the matching
// top-level field or map key, everything else is left alone. Each bound
// action receives the state current at call time, never a snapshot taken
// when the action map was built. Code that suspends inside an action
// (network, timers) and needs fresh state afterwards re-reads it with
// Setter.Get or applies an updater with Setter.Update.
//
// Stores are obtained three ways:
//
//   - New builds a standalone Model.
//   - Create memoizes on a descriptor pointer: outside a render it is a
//     plain constructor for package-level singletons, inside a render the
//     same descriptor in the same scope yields the same Model.
//   - UseModel memoizes per call site, so an inline descriptor still yields
//     one Model for the component's lifetime. WithKey shares the Model
//     through a Registry provided by an ancestor scope.
//
// Reading a Model during a render (Use, Select) subscribes the rendering
// view; it is re-rendered only when the selected projection changes under
// shallow equality.
//
// Concurrent setter calls are serialized by the store: each merge reads the
// state left by the previous one, so overlapping updates resolve as
// last-applied-wins and no update is lost.
package model
