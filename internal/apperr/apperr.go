// Package apperr defines the closed set of business errors surfaced by the
// core. Services return one of six kinds; the transport maps kinds to HTTP
// status codes and a uniform JSON shape.
//
// Design: kinds are sentinel errors so callers can match with errors.Is
// without knowing the concrete type. The rich *Error carries the wire fields
// (code, description, solution, detail) and reports Is(kind) for its kind,
// so a wrapped *Error still matches the sentinel.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind sentinels. Match with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInternal     = errors.New("internal error")
)

// Error is a business error with the fields the transport serialises.
type Error struct {
	kind        error
	Code        string `json:"code"`
	Description string `json:"description"`
	Solution    string `json:"solution,omitempty"`
	Detail      any    `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	return e.Description
}

// Is reports whether target is this error's kind sentinel, enabling
// errors.Is(err, apperr.ErrNotFound) on wrapped errors.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

// Kind returns the kind sentinel of this error.
func (e *Error) Kind() error {
	return e.kind
}

// Validation returns a 400-class error for malformed or rejected requests.
func Validation(format string, args ...any) *Error {
	return &Error{
		kind:        ErrValidation,
		Code:        "VALIDATION_ERROR",
		Description: fmt.Sprintf(format, args...),
		Solution:    "check the request parameters",
	}
}

// NotFound returns a 404-class error for a missing entity.
func NotFound(format string, args ...any) *Error {
	return &Error{
		kind:        ErrNotFound,
		Code:        "NOT_FOUND",
		Description: fmt.Sprintf(format, args...),
		Solution:    "check the resource identifier",
	}
}

// Conflict returns a 409-class error for uniqueness violations.
func Conflict(format string, args ...any) *Error {
	return &Error{
		kind:        ErrConflict,
		Code:        "CONFLICT",
		Description: fmt.Sprintf(format, args...),
	}
}

// Unauthorized returns a 401-class error for missing caller identity.
func Unauthorized(format string, args ...any) *Error {
	return &Error{
		kind:        ErrUnauthorized,
		Code:        "UNAUTHORIZED",
		Description: fmt.Sprintf(format, args...),
		Solution:    "authenticate and retry",
	}
}

// Forbidden returns a 403-class error for callers lacking permission.
func Forbidden(format string, args ...any) *Error {
	return &Error{
		kind:        ErrForbidden,
		Code:        "FORBIDDEN",
		Description: fmt.Sprintf(format, args...),
	}
}

// Internal returns a 500-class error. The description is human-readable and
// never includes stack traces.
func Internal(format string, args ...any) *Error {
	return &Error{
		kind:        ErrInternal,
		Code:        "INTERNAL_ERROR",
		Description: fmt.Sprintf(format, args...),
		Solution:    "retry later or contact an administrator",
	}
}

// WithCode overrides the business error code, keeping the kind.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithSolution overrides the suggested remediation.
func (e *Error) WithSolution(s string) *Error {
	e.Solution = s
	return e
}

// WithDetail attaches structured detail for the client.
func (e *Error) WithDetail(d any) *Error {
	e.Detail = d
	return e
}

// From normalises an arbitrary error into an *Error. Existing *Error values
// pass through; anything else becomes Internal with its message as the
// description.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("%s", err.Error())
}

// HTTPStatus maps an error to its HTTP status code. Non-business errors map
// to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
