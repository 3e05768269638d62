// Package errors provides structured error types for psvm.
//
// Error codes give every failure a machine-readable category so the CLI can
// decide between "report and exit" and "fall back to another source". Codes
// follow a hierarchical naming convention:
//   - MALFORMED_*: fetched or local text does not match its expected shape
//   - NOT_FOUND / NETWORK_*: transport-level failures
//   - CHECK_FAILED: check mode found out-of-date dependencies
//   - INTERNAL_*: programmer errors
//
// Usage:
//
//	err := errors.New(errors.ErrCodeMalformedInput, "invalid lock file: %v", cause)
//	if errors.Is(err, errors.ErrCodeMalformedInput) {
//	    // handle parse failure
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input shape errors
	ErrCodeMalformedInput Code = "MALFORMED_INPUT"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Caller errors
	ErrCodeUnsupportedSource Code = "UNSUPPORTED_SOURCE"

	// Transport errors
	ErrCodeNetwork  Code = "NETWORK_ERROR"
	ErrCodeNotFound Code = "NOT_FOUND"

	// Rewrite errors
	ErrCodeRewrite Code = "REWRITE_ERROR"

	// Policy errors
	ErrCodeCheckFailed Code = "CHECK_FAILED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
