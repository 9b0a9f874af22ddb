// Package errors provides standardized domain errors with codes for the Libris API.
//
// Usage:
//
//	// In services - return typed errors
//	if bornMissing {
//	    return errors.Validation("favoriteGenre is required")
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrNotFound) {
//	    return nil, nil
//	}
//
// Errors carry GraphQL extensions: the Extensions method satisfies the resolver
// error contract of graph-gophers/graphql-go so that codes and offending inputs
// reach the client under the "extensions" key.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound         Code = "NOT_FOUND"
	CodeAlreadyExists    Code = "ALREADY_EXISTS"
	CodeValidation       Code = "VALIDATION"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeWrongCredentials Code = "WRONG_CREDENTIALS"
	CodeTokenInvalid     Code = "TOKEN_INVALID"
	CodeInternal         Code = "INTERNAL"
)

// GraphQLCode maps an internal code to the code exposed in GraphQL extensions.
// User-input-class failures all collapse to BAD_USER_INPUT, matching the
// behavior clients of the original API rely on.
func (c Code) GraphQLCode() string {
	switch c {
	case CodeValidation, CodeUnauthenticated, CodeWrongCredentials, CodeAlreadyExists:
		return "BAD_USER_INPUT"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeTokenInvalid:
		return "UNAUTHENTICATED"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// HTTPStatus returns the appropriate HTTP status for an error code. Only the
// non-GraphQL surface (bearer middleware, health) uses this.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthenticated, CodeWrongCredentials, CodeTokenInvalid:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and the offending input.
type Error struct {
	Code        Code   `json:"code"`
	Message     string `json:"message"`
	InvalidArgs any    `json:"invalid_args,omitempty"`
	cause       error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Extensions returns the GraphQL extensions payload for this error.
// graph-gophers/graphql-go picks this up on any resolver error that
// implements it, so validation failures surface their offending input.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{
		"code": e.Code.GraphQLCode(),
	}
	if e.InvalidArgs != nil {
		ext["invalidArgs"] = e.InvalidArgs
	}
	if e.cause != nil {
		ext["error"] = e.cause.Error()
	}
	return ext
}

// WithInvalidArgs returns a new error carrying the offending input.
func (e *Error) WithInvalidArgs(args any) *Error {
	return &Error{
		Code:        e.Code,
		Message:     e.Message,
		InvalidArgs: args,
		cause:       e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:        e.Code,
		Message:     e.Message,
		InvalidArgs: e.InvalidArgs,
		cause:       err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists    = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation       = &Error{Code: CodeValidation, Message: "validation error"}
	ErrUnauthenticated  = &Error{Code: CodeUnauthenticated, Message: "not authenticated"}
	ErrWrongCredentials = &Error{Code: CodeWrongCredentials, Message: "wrong credentials"}
	ErrTokenInvalid     = &Error{Code: CodeTokenInvalid, Message: "invalid token"}
	ErrInternal         = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated creates a not-authenticated error.
func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// WrongCredentials creates a login failure error. Unknown username and wrong
// password deliberately share this one error.
func WrongCredentials() *Error {
	return &Error{Code: CodeWrongCredentials, Message: "wrong credentials"}
}

// TokenInvalid creates a token verification error.
func TokenInvalid(msg string) *Error {
	return &Error{Code: CodeTokenInvalid, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
