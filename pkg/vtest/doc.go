// Package vtest provides testing helpers for components that read models.
//
// # Quick Start
//
//	func TestCounterView(t *testing.T) {
//	    var n int
//	    view := vtest.Mount(t, func() {
//	        n, _ = model.Select(Counter, func(s CounterState) int { return s.N })
//	    })
//
//	    Counter.Actions().Call(context.Background(), "inc", 1)
//	    vtest.ExpectRenders(t, view, 2)
//	}
//
// Views mounted through vtest live under a root scope that is disposed when
// the test ends, so model subscriptions never leak between tests.
//
// # Asynchronous Actions
//
// Actions started with Actions.Go finish on another goroutine. WaitFor polls
// a condition until it holds or the timeout expires:
//
//	actions.Go(ctx, "load")
//	vtest.WaitFor(t, time.Second, func() bool { return Store.State().Loaded })
package vtest
