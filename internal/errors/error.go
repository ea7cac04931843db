package errors

import "fmt"

// Category groups error codes by the layer that raises them.
type Category string

const (
	CategoryRuntime  Category = "runtime"
	CategoryState    Category = "state"
	CategoryAction   Category = "action"
	CategoryPersist  Category = "persist"
	CategoryDevtools Category = "devtools"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// ModelError is a structured error with a code, explanation and fix hint.
type ModelError struct {
	// Code is a unique identifier such as "M001".
	Code string

	// Category is the layer that raised the error.
	Category Category

	// Message is a short description.
	Message string

	// Detail explains this occurrence.
	Detail string

	// Suggestion is a hint on how to fix the problem.
	Suggestion string

	// DocURL links to documentation about the code.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ModelError) Unwrap() error {
	return e.Wrapped
}

// WithDetail sets the occurrence-specific explanation.
func (e *ModelError) WithDetail(d string) *ModelError {
	e.Detail = d
	return e
}

// WithDetailf sets a formatted occurrence-specific explanation.
func (e *ModelError) WithDetailf(format string, args ...any) *ModelError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion.
func (e *ModelError) WithSuggestion(s string) *ModelError {
	e.Suggestion = s
	return e
}

// Wrap sets the underlying error.
func (e *ModelError) Wrap(err error) *ModelError {
	e.Wrapped = err
	return e
}

// New creates a ModelError from a registered code.
func New(code string) *ModelError {
	template, ok := registry[code]
	if !ok {
		return &ModelError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ModelError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		DocURL:   template.DocURL,
	}
}

// FromError wraps err in a ModelError with the given code.
// A ModelError is returned unchanged; nil stays nil.
func FromError(err error, code string) *ModelError {
	if err == nil {
		return nil
	}
	if me, ok := err.(*ModelError); ok {
		return me
	}
	return New(code).Wrap(err)
}
