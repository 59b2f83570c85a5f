// Package apperrors defines the error taxonomy shared by the auth, policy
// and service layers.
package apperrors

import "errors"

// Kind classifies an error for callers and for the HTTP layer.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindConflict          Kind = "CONFLICT"
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidCredential Kind = "INVALID_CREDENTIAL"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindForbidden         Kind = "FORBIDDEN"
	KindStore             Kind = "STORE"
)

// Error is the domain error type.
type Error struct {
	Kind    Kind   // Machine-readable classification
	Message string // Caller-facing message
	Cause   error  // Wrapped underlying error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a domain error with a kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Sentinels for errors.Is checks. Only the kind is compared.
var (
	ErrValidation        = New(KindValidation, "validation failed")
	ErrConflict          = New(KindConflict, "conflict")
	ErrNotFound          = New(KindNotFound, "not found")
	ErrInvalidCredential = New(KindInvalidCredential, "invalid credentials")
	ErrUnauthorized      = New(KindUnauthorized, "unauthorized")
	ErrForbidden         = New(KindForbidden, "forbidden")
	ErrStore             = New(KindStore, "store failure")
)

// KindOf returns the kind of the first *Error in err's chain. Errors
// outside the taxonomy are reported as store failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

// MessageOf returns the caller-facing message without the wrapped cause.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
