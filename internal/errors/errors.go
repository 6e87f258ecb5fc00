// Package errors provides coded domain errors for the Inkwell workspace engine.
//
// Usage:
//
//	// In lower layers - return typed errors
//	if !info.IsDir() {
//	    return errors.PathNotFoundf("%s is not a folder", path)
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrNoWorkspace) {
//	    // ask the user to pick a folder
//	}
//
//	// Or switch on the Code
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodePermission:
//	        ...
//	    }
//	}
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
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the workspace engine.
const (
	CodeNoWorkspace   Code = "NO_WORKSPACE"
	CodePathNotFound  Code = "PATH_NOT_FOUND"
	CodePermission    Code = "PERMISSION_DENIED"
	CodeFormatDecode  Code = "FORMAT_DECODE"
	CodePersistence   Code = "PERSISTENCE"
	CodeValidation    Code = "VALIDATION"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeInternal      Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNoWorkspace, CodeAlreadyExists:
		return http.StatusConflict
	case CodePathNotFound:
		return http.StatusNotFound
	case CodePermission:
		return http.StatusForbidden
	case CodeFormatDecode:
		return http.StatusUnprocessableEntity
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
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

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNoWorkspace   = &Error{Code: CodeNoWorkspace, Message: "no workspace selected"}
	ErrPathNotFound  = &Error{Code: CodePathNotFound, Message: "path not found"}
	ErrPermission    = &Error{Code: CodePermission, Message: "permission denied"}
	ErrFormatDecode  = &Error{Code: CodeFormatDecode, Message: "failed to decode document"}
	ErrPersistence   = &Error{Code: CodePersistence, Message: "workspace persistence failed"}
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation error"}
	ErrAlreadyExists = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrInternal      = &Error{Code: CodeInternal, Message: "internal error"}
)

// NoWorkspace creates a no-workspace error.
func NoWorkspace(msg string) *Error {
	return &Error{Code: CodeNoWorkspace, Message: msg}
}

// PathNotFound creates a path-not-found error.
func PathNotFound(msg string) *Error {
	return &Error{Code: CodePathNotFound, Message: msg}
}

// PathNotFoundf creates a path-not-found error with formatted message.
func PathNotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodePathNotFound, Message: fmt.Sprintf(format, args...)}
}

// Permission creates a permission error.
func Permission(msg string) *Error {
	return &Error{Code: CodePermission, Message: msg}
}

// Permissionf creates a permission error with formatted message.
func Permissionf(format string, args ...any) *Error {
	return &Error{Code: CodePermission, Message: fmt.Sprintf(format, args...)}
}

// FormatDecode creates a format decode error.
func FormatDecode(msg string) *Error {
	return &Error{Code: CodeFormatDecode, Message: msg}
}

// Persistence creates a persistence error.
func Persistence(msg string) *Error {
	return &Error{Code: CodePersistence, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// AlreadyExistsf creates an already exists error with formatted message.
func AlreadyExistsf(format string, args ...any) *Error {
	return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf(format, args...)}
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

// CodeOf returns the code carried by err, or CodeInternal when err is not a domain error.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
