// Package reactive is the small UI runtime that models plug into.
//
// It provides the pieces a component system needs to host stores:
//
//   - Owner: a scope (usually one component instance) that owns hook slots,
//     context values and cleanup functions. Disposing an Owner disposes its
//     children and runs its cleanups in reverse order.
//   - View: a Listener that re-runs a render function whenever it is marked
//     dirty. Marks that arrive while a render is in progress are coalesced
//     into one more pass.
//   - Hook slots: per-call-site storage on an Owner that gives hooks a stable
//     identity across renders, the same way UseMemo keeps its value.
//   - Batch: groups notifications so a listener marked several times inside
//     the batch is notified once when the outermost batch completes.
//
// Tracking state (current owner, current listener, render phase and batch
// depth) is kept per goroutine, so concurrent renders on different goroutines
// do not observe each other.
//
// Example:
//
//	root := reactive.NewOwner(nil)
//	view := reactive.Mount(root, func() {
//	    total := reactive.UseMemo(func() int { return expensive(items) }, items)
//	    fmt.Println(total)
//	})
//	defer root.Dispose()
package reactive
