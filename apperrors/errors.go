// Package apperrors defines the stable error kinds the order, table
// and billing services return to their callers. Every kind is a local,
// recoverable error meant to surface as a user-facing message.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindValidation -> bad input shape or range (negative quantity,
	// discount exceeding subtotal, unknown payment method).
	KindValidation Kind = iota
	// KindOrderNotEditable -> item mutation on an order outside the
	// editable statuses.
	KindOrderNotEditable
	// KindInvalidTransition -> illegal state-machine move.
	KindInvalidTransition
	// KindTableNotAvailable -> table assignment conflict.
	KindTableNotAvailable
	// KindTransitionFailed -> an atomic multi-entity update could not
	// be applied; prior state is intact.
	KindTransitionFailed
	// KindNotFound -> referenced id does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindOrderNotEditable:
		return "OrderNotEditable"
	case KindInvalidTransition:
		return "InvalidTransition"
	case KindTableNotAvailable:
		return "TableNotAvailable"
	case KindTransitionFailed:
		return "TransitionFailed"
	case KindNotFound:
		return "NotFound"
	}
	return "UnknownError"
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error with a formatted message.
func E(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, or KindTransitionFailed when err
// is not an *Error (unexpected persistence failures count as a failed
// transition for the caller).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransitionFailed
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
