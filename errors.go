// Package jniscan implements a columnar bridge between a native Go query
// executor and scanners hosted in a JVM.
package jniscan

import (
	"fmt"
)

// ErrorType represents different classes of bridge errors.
type ErrorType int

const (
	// ErrGeneric is a generic error.
	ErrGeneric ErrorType = iota
	// ErrInit is a session initialization error: bridge library unavailable,
	// symbol resolution failure, or a scanner constructor failure.
	ErrInit
	// ErrProtocol is a batch metadata protocol violation, such as a cursor
	// consuming more or fewer words than the schema defines.
	ErrProtocol
	// ErrForeign is an error raised inside the foreign runtime and detected
	// after a bridge call returned.
	ErrForeign
	// ErrUnsupportedType is reported when a column's logical type has no
	// decoding on one side of the bridge. Always a schema or version
	// mismatch, never transient.
	ErrUnsupportedType
	// ErrRelease is a resource-release failure during close. The foreign
	// resource-tracking invariant is broken at this point.
	ErrRelease
	// ErrClosed is returned when an operation is attempted on a closed or
	// failed session.
	ErrClosed
)

// Error is a bridge-specific error type.
type Error struct {
	Type    ErrorType
	Message string
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("jniscan: %s", e.Message)
}

// NewError creates a new Error.
func NewError(typ ErrorType, message string) *Error {
	return &Error{
		Type:    typ,
		Message: message,
	}
}

// Errorf creates a new Error with a formatted message.
func Errorf(typ ErrorType, format string, args ...any) *Error {
	return &Error{
		Type:    typ,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsError checks if an error is of a specific type.
func IsError(err error, typ ErrorType) bool {
	bridgeErr, ok := err.(*Error)
	if !ok {
		return false
	}
	return bridgeErr.Type == typ
}
