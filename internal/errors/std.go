package errors

import stderrors "errors"

// Is and As forward to the standard library so callers importing this
// package under the name errors keep both.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As reports whether err's chain contains a target type.
func As(err error, target any) bool { return stderrors.As(err, target) }
