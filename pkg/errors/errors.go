// Package errors provides structured error types for llumina.
//
// Every error that crosses a package boundary carries a machine-readable
// [Code] so the CLI and the preview server can react without string matching:
//
//   - INVALID_*: bad caller input (dimensions, colors, modes, paths)
//   - UNINITIALIZED_ENGINE: a reveal engine used before Initialize
//   - *NOT_FOUND / SESSION_EXPIRED: lookups that failed
//   - INTERNAL_ERROR / UNSUPPORTED: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidColor, "mask color %q is not #RRGGBB", s)
//	if errors.Is(err, errors.ErrCodeInvalidColor) {
//	    // configuration problem, report to the user
//	}
//
//	err = errors.Wrap(errors.ErrCodeInternal, cause, "encode frame %d", i)
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
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidDimensions Code = "INVALID_DIMENSIONS"
	ErrCodeInvalidColor      Code = "INVALID_COLOR"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidMode       Code = "INVALID_MODE"
	ErrCodeInvalidTone       Code = "INVALID_TONE"
	ErrCodeInvalidPersona    Code = "INVALID_PERSONA"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// Engine state errors
	ErrCodeUninitializedEngine Code = "UNINITIALIZED_ENGINE"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"
	ErrCodeSessionExpired  Code = "SESSION_EXPIRED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// IsInvalid reports whether err carries one of the INVALID_* codes.
func IsInvalid(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidDimensions, ErrCodeInvalidColor,
		ErrCodeInvalidFormat, ErrCodeInvalidMode, ErrCodeInvalidTone,
		ErrCodeInvalidPersona, ErrCodeInvalidPath:
		return true
	}
	return false
}
