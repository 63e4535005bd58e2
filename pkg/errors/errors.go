// Package errors provides structured error types for the pystudio engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - ENV_*: Interpreter environment failures
//   - INSTALL_* / SESSION_* / PROCESS_*: Orchestration failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEnvCreation, "target already exists: %s", path)
//	if errors.Is(err, errors.ErrCodeEnvCreation) {
//	    // Handle creation failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeProcessSpawn, origErr, "cannot start %s", interp)
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
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidScript Code = "INVALID_SCRIPT"

	// Environment errors
	ErrCodeEnvCreation Code = "ENV_CREATION_FAILED"
	ErrCodeEnvBroken   Code = "ENV_BROKEN"
	ErrCodeEnvNotFound Code = "ENV_NOT_FOUND"
	ErrCodeEnvNotReady Code = "ENV_NOT_READY"

	// Concurrency-limit violations
	ErrCodeInstallBusy Code = "INSTALL_BUSY"
	ErrCodeSessionBusy Code = "SESSION_BUSY"

	// Process errors
	ErrCodeProcessSpawn   Code = "PROCESS_SPAWN_FAILED"
	ErrCodePartialInstall Code = "PARTIAL_INSTALL"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

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

// PartialInstallError reports an install attempt where only part of the
// requested distributions ended up installed. Residual holds the names
// that are still missing after the attempt, in request order.
type PartialInstallError struct {
	Requested []string // Distributions originally requested
	Residual  []string // Distributions still missing afterwards
	Output    string   // Captured package-manager output for diagnosis
}

// Error implements the error interface.
func (e *PartialInstallError) Error() string {
	return fmt.Sprintf("install partially failed: %d of %d distributions still missing",
		len(e.Residual), len(e.Requested))
}

// Code returns the error code for this error type.
func (e *PartialInstallError) Code() Code {
	return ErrCodePartialInstall
}
