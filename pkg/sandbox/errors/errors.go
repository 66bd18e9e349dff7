// Package errors defines the application error type and the error codes
// shared by every layer of the runtime sandbox.
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents an application-level error with a code and optional cause
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the error code of err if it is (or wraps) an AppError,
// or the empty string otherwise.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code string) bool {
	return CodeOf(err) == code
}

// Error codes
const (
	ErrCodeInvalidPath         = "INVALID_PATH"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeSpawnFailed         = "SPAWN_FAILED"
	ErrCodeProviderTimeout     = "PROVIDER_TIMEOUT"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeContextNotFound     = "CONTEXT_NOT_FOUND"
	ErrCodeSessionNotFound     = "SESSION_NOT_FOUND"
	ErrCodeTerminalFailed      = "TERMINAL_FAILED"
	ErrCodeStoreFailed         = "STORE_FAILED"
	ErrCodeConfigInvalid       = "CONFIG_INVALID"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeFileOperation       = "FILE_OPERATION_FAILED"
)
