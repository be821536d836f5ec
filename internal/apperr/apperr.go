// Package apperr defines the error taxonomy shared by services and handlers.
// Services return these; the HTTP layer maps each kind to a status code in
// exactly one place.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: malformed or missing input.
	KindValidation
	// KindForbidden: authenticated but role-denied.
	KindForbidden
	// KindNotFound: entity absent or outside the caller's visibility scope.
	KindNotFound
	// KindConflict: a state-machine precondition was violated
	// (double finalize, duplicate contentieux).
	KindConflict
	// KindStorage: the underlying file blob is missing or unreadable.
	KindStorage
)

// Error carries a kind, a human-readable message, and optional per-field
// details for validation failures.
type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Msg: msg} }

// ValidationFields builds a validation error with per-field messages.
func ValidationFields(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Msg: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Msg: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Msg: msg} }

func Storage(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// Wrap attaches context and preserves the error chain.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// KindOf extracts the kind from anywhere in the chain; KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
