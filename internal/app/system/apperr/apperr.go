// Package apperr defines the domain error taxonomy shared by the stores
// and handlers. Stores return these so the HTTP layer can map them to a
// status code without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUnauthenticated
	KindForbidden
	KindTransient
)

// Error carries a kind, a caller-facing message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Validation(msg string) *Error { return New(KindValidation, msg) }
func Conflict(msg string) *Error   { return New(KindConflict, msg) }
func NotFound(msg string) *Error   { return New(KindNotFound, msg) }

// Unauthenticated is the opaque login-failure signal; callers log the
// cause but never expose it.
func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }

func Forbidden(msg string) *Error { return New(KindForbidden, msg) }

// Validationf formats a field-level validation message.
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// Transient wraps a store/transaction failure that the caller may retry
// as a whole request.
func Transient(err error) *Error {
	return &Error{Kind: KindTransient, Message: "temporary store failure", Err: err}
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsValidation(err error) bool      { return KindOf(err) == KindValidation }
func IsConflict(err error) bool        { return KindOf(err) == KindConflict }
func IsNotFound(err error) bool        { return KindOf(err) == KindNotFound }
func IsUnauthenticated(err error) bool { return KindOf(err) == KindUnauthenticated }
func IsForbidden(err error) bool       { return KindOf(err) == KindForbidden }
func IsTransient(err error) bool       { return KindOf(err) == KindTransient }

// HTTPStatus maps a domain error to the status code the API surfaces.
// Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
