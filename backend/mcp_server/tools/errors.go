package tools

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrValidation marks arguments rejected by a tool's parameter schema.
	ErrValidation = errors.New("invalid arguments")
	// ErrNotFound marks an invocation of a tool the registry does not hold.
	ErrNotFound = errors.New("tool not found")
	// ErrUpstreamTransport marks network and HTTP level failures.
	ErrUpstreamTransport = errors.New("upstream request failed")
	// ErrUpstreamShape marks upstream payloads missing the structure a normalizer requires.
	ErrUpstreamShape = errors.New("unexpected upstream response")
)

// ValidationError names the argument that failed the schema.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return errors.Mark(&ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}, ErrValidation)
}

// ShapeError returns an error marked ErrUpstreamShape.
func ShapeError(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrUpstreamShape)
}

// InvocationError is the caller-visible failure of a tool whose upstream
// call or normalization failed. Error returns only the tool's generic
// message; the cause is kept for logging and errors.Is.
type InvocationError struct {
	Tool    string
	Message string
	cause   error
}

func (e *InvocationError) Error() string {
	return e.Message
}

// Unwrap returns the underlying transport or shape error.
func (e *InvocationError) Unwrap() error {
	return e.cause
}
