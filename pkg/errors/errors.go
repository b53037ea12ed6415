// Package errors provides structured error types for the autoroute application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the router core, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into three groups:
//   - INVALID_*: Input or configuration validation failures
//   - Routing outcomes: OVERLAP, DEAD_END, SEARCH_EXHAUSTED, NO_PATH
//   - Resource failures: GRID_ALLOCATION, CANCELED, INTERNAL_ERROR
//
// # Usage
//
//	err := errors.New(errors.ErrCodeOverlap, "lead at %d,%d overlaps an obstacle", x, y)
//	if errors.Is(err, errors.ErrCodeOverlap) {
//	    // Report to the operator, nothing changed
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNoPath, cause, "route %d", conn)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Routing errors
	ErrCodeOverlap         Code = "OVERLAP"          // lead footprint collides with an obstacle
	ErrCodeDeadEnd         Code = "DEAD_END"         // search ran out of candidates before the target
	ErrCodeSearchExhausted Code = "SEARCH_EXHAUSTED" // search visited every cell without reaching the target
	ErrCodeNoPath          Code = "NO_PATH"          // final indefinite search failed

	// Resource errors
	ErrCodeGridAllocation Code = "GRID_ALLOCATION"
	ErrCodeCanceled       Code = "CANCELED"

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
// It walks the error chain and matches the first *Error it finds.
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

// IsRoutingFailure reports whether err is one of the search outcomes that
// leave a connection unrouted without invalidating the session.
func IsRoutingFailure(err error) bool {
	switch GetCode(err) {
	case ErrCodeDeadEnd, ErrCodeSearchExhausted, ErrCodeNoPath:
		return true
	}
	return false
}
