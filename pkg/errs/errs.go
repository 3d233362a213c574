// Package errs defines the error taxonomy shared by the engine and the
// boundary layer. Read queries report "no result" as explicit values, not
// errors; these types cover the cases that genuinely are failures, with
// stable codes for client consumption.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable classification of an error.
type Kind string

const (
	// KindNotFound marks an absent page, intent or path.
	KindNotFound Kind = "NOT_FOUND"
	// KindInvalidParameter marks a missing or malformed request field.
	KindInvalidParameter Kind = "INVALID_PARAMETER"
	// KindUnreachable marks a graph with no path between the endpoints.
	// This is a normal outcome, carried as an error only at the boundary.
	KindUnreachable Kind = "UNREACHABLE"
	// KindConfiguration marks an unavailable required backend. Fatal at
	// startup, never recoverable per-call.
	KindConfiguration Kind = "CONFIGURATION"
)

// Error carries a kind, a human-readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// NotFound creates a NOT_FOUND error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidParameter creates an INVALID_PARAMETER error.
func InvalidParameter(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidParameter, Message: fmt.Sprintf(format, args...)}
}

// Unreachable creates an UNREACHABLE error.
func Unreachable(format string, args ...any) *Error {
	return &Error{Kind: KindUnreachable, Message: fmt.Sprintf(format, args...)}
}

// Configuration creates a CONFIGURATION error wrapping its cause.
func Configuration(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the kind of an error, or "" for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps a kind to the status code the boundary layer emits.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound, KindUnreachable:
		return http.StatusNotFound
	case KindInvalidParameter:
		return http.StatusBadRequest
	case KindConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
