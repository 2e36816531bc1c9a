// Package errors provides the structured error types shared by the
// parcellation packages.
//
// Three categories are distinguished:
//   - INVALID_SHAPE: mismatched array lengths or dimensions, non-binary masks
//   - INVALID_CONFIG: impossible parameters such as more regions than vertices
//   - NUMERIC_DEGENERACY: NaN/Inf produced inside otherwise valid data
//
// Shape and configuration errors are fatal and returned before any work starts.
// Numeric degeneracy is recovered in place and surfaced as a diagnostic value of
// the same *Error type, so callers can log or collect it without failing.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "regions %d exceed vertex count %d", k, v)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // reject the request
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the three failure categories.
const (
	ErrCodeInvalidShape      Code = "INVALID_SHAPE"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"
	ErrCodeNumericDegeneracy Code = "NUMERIC_DEGENERACY"
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

// Shape is shorthand for New(ErrCodeInvalidShape, ...).
func Shape(format string, args ...any) *Error {
	return New(ErrCodeInvalidShape, format, args...)
}

// Config is shorthand for New(ErrCodeInvalidConfig, ...).
func Config(format string, args ...any) *Error {
	return New(ErrCodeInvalidConfig, format, args...)
}

// Degenerate builds a numeric-degeneracy diagnostic.
func Degenerate(format string, args ...any) *Error {
	return New(ErrCodeNumericDegeneracy, format, args...)
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

// IsFatal reports whether err belongs to a category that must abort the
// computation. Diagnostics and nil are not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return GetCode(err) != ErrCodeNumericDegeneracy
}
