package model

import (
	"errors"
	"fmt"

	vmerrors "github.com/vango-dev/vmodel/internal/errors"
	"github.com/vango-dev/vmodel/pkg/shallow"
)

var (
	// ErrUnknownAction is returned when dispatching a name the model does
	// not define.
	ErrUnknownAction = errors.New("model: unknown action")

	// ErrBadArgument is returned by typed actions when an argument is
	// missing or cannot be converted.
	ErrBadArgument = errors.New("model: bad action argument")

	// ErrActionPanic wraps a panic recovered from an action started with Go.
	ErrActionPanic = errors.New("model: action panicked")

	// ErrTypeMismatch marks a value whose type does not fit its target: a
	// partial value for a state field, or a keyed model requested with a
	// different state type.
	ErrTypeMismatch = errors.New("model: type mismatch")
)

func unknownAction(model, name string) error {
	return vmerrors.New("M001").
		WithDetailf("model %q has no action %q", model, name).
		Wrap(ErrUnknownAction)
}

func badArgument(i int, cause error) error {
	return vmerrors.New("M008").
		WithDetailf("argument %d", i).
		Wrap(fmt.Errorf("%w: %w", ErrBadArgument, cause))
}

// mergeFailure maps a shallow merge error to its coded form. Setters panic
// with it: a malformed partial is a programming error, not a runtime one.
func mergeFailure(model string, err error) error {
	switch {
	case errors.Is(err, shallow.ErrUnknownKey):
		return vmerrors.New("M002").WithDetailf("model %q", model).Wrap(err)
	case errors.Is(err, shallow.ErrTypeMismatch):
		return vmerrors.New("M003").WithDetailf("model %q", model).
			Wrap(fmt.Errorf("%w: %w", ErrTypeMismatch, err))
	default:
		return vmerrors.New("M004").WithDetailf("model %q", model).Wrap(err)
	}
}

var errMissing = errors.New("missing")
