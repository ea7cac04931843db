// Package errors provides coded, actionable errors for vmodel.
//
// Every misuse the runtime can detect has a registered code (M001, M002, ...)
// mapping to a short message, a longer explanation and a documentation link.
// Coded errors wrap their cause, so callers keep using errors.Is against the
// public sentinels in pkg/model and pkg/shallow.
//
// # Usage
//
//	err := errors.New("M001").
//	    WithDetail(`model "cart" has no action "checkout"`).
//	    Wrap(model.ErrUnknownAction)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR M001: Unknown action
//	//
//	//   model "cart" has no action "checkout"
//	//
//	//   Learn more: https://vmodel.dev/docs/errors/M001
package errors
