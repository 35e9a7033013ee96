// Package apperr defines the typed, recoverable errors raised by the
// service layer.  Every business-rule violation carries a Kind that the
// HTTP boundary maps to a status code; anything that is not an *Error is
// treated as an unexpected internal failure and must not leak detail to
// the caller.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The set is closed; handlers switch on it
// exhaustively when choosing a transport status code.
type Kind int

const (
	// Internal marks unexpected or programming errors. It is also what
	// KindOf reports for errors that did not originate in this package.
	Internal Kind = iota
	// NotFound: the referenced entity does not exist.
	NotFound
	// Forbidden: the caller is authenticated but not allowed to act on
	// this resource.
	Forbidden
	// Unauthorized: the caller could not be authenticated.
	Unauthorized
	// Conflict: a uniqueness or state rule would be violated.
	Conflict
	// InvalidInput: the caller supplied bad data.
	InvalidInput
	// InvalidState: the entity is not in a state permitting the operation.
	InvalidState
	// RateLimited: the operation was attempted again too soon.
	RateLimited
	// DeliveryFailed: an outbound delivery (e.g. verification mail) failed
	// in a context where the failure is surfaced to the caller.
	DeliveryFailed
)

// String returns a stable name for the kind, used in logs.
func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case Unauthorized:
		return "unauthorized"
	case Conflict:
		return "conflict"
	case InvalidInput:
		return "invalid_input"
	case InvalidState:
		return "invalid_state"
	case RateLimited:
		return "rate_limited"
	case DeliveryFailed:
		return "delivery_failed"
	default:
		return "internal"
	}
}

// Error is a business-rule failure with a human-readable description.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, unwrapping as needed. Errors that
// did not come from this package report Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the human-readable description for typed errors and
// an opaque message for everything else, so internal detail never
// crosses the boundary.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
