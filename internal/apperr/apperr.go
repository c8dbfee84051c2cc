// Package apperr defines the error taxonomy shared by every HTTP handler:
// a small set of kinds, each mapped to one HTTP status, so handlers never
// hand-pick status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the purposes of HTTP status mapping. These are
// the six kinds the control plane's surface can produce; there is no catch-all
// beyond Internal.
type Kind int

const (
	Internal Kind = iota
	Validation
	Unauthenticated
	Forbidden
	NotFound
	Conflict
	Upstream
)

// Error is an application error carrying a Kind and a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind, chaining the underlying cause
// for logging while keeping the user-facing message separate.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Validationf, Unauthenticatedf, Forbiddenf, NotFoundf, Conflictf, and
// Upstreamf build a formatted Error of the matching kind.
func Validationf(format string, args ...any) *Error {
	return New(Validation, fmt.Sprintf(format, args...))
}

func Unauthenticatedf(format string, args ...any) *Error {
	return New(Unauthenticated, fmt.Sprintf(format, args...))
}

func Forbiddenf(format string, args ...any) *Error {
	return New(Forbidden, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) *Error {
	return New(Conflict, fmt.Sprintf(format, args...))
}

func Upstreamf(format string, args ...any) *Error {
	return New(Upstream, fmt.Sprintf(format, args...))
}

// HTTPStatus maps a Kind to its HTTP status code per the documented taxonomy.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) code() string {
	switch k {
	case Validation:
		return "bad_request"
	case Unauthenticated:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Upstream:
		return "upstream_error"
	default:
		return "internal"
	}
}

// As extracts an *Error from err, if any is present in its chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Status returns the code and HTTP status that should be reported for err,
// defaulting to an opaque 500 for errors that are not *Error.
func Status(err error) (code string, status int, message string) {
	if e, ok := As(err); ok {
		return e.Kind.code(), e.Kind.HTTPStatus(), e.Message
	}
	return "internal", http.StatusInternalServerError, "an internal error occurred"
}
