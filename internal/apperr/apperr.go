// Package apperr defines the error taxonomy shared by the service, policy and
// handler layers. Every error a handler is expected to translate carries a
// Code; anything else is treated as an unexpected failure.
//
// Handlers check errors with errors.Is against the sentinels below, which
// match by Code only:
//
//	if errors.Is(err, apperr.ErrForbidden) { ... }
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error category.
type Code string

const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidation      Code = "VALIDATION"
	CodeInvalidToken    Code = "INVALID_TOKEN"
)

// HTTPStatus returns the default status for a code. Individual handlers may
// override it where an endpoint documents a different status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeInvalidToken:
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

// Error is a categorised application error.
type Error struct {
	Code    Code
	Message string
	// Fields holds per-field messages for validation failures.
	Fields map[string]string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the default status for the error's code.
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Fields: e.Fields, cause: err}
}

// Sentinels for errors.Is.
var (
	ErrUnauthenticated = &Error{Code: CodeUnauthenticated, Message: "Authentication credentials were not provided."}
	ErrForbidden       = &Error{Code: CodeForbidden, Message: "You do not have permission to perform this action."}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "Not found."}
	ErrValidation      = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInvalidToken    = &Error{Code: CodeInvalidToken, Message: "Token is invalid or expired"}
)

// Unauthenticated returns an authentication failure with a custom message.
func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// NotFound returns a not found error with a custom message.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// Validation returns a validation error with a custom message.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationFields returns a validation error carrying per-field messages.
func ValidationFields(msg string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Fields: fields}
}

// InvalidToken returns a token failure with a custom message.
func InvalidToken(msg string) *Error {
	return &Error{Code: CodeInvalidToken, Message: msg}
}
