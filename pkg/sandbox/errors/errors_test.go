package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidPath, "path escapes workspace", nil)

	assert.NotNil(t, err)
	assert.Equal(t, ErrCodeInvalidPath, err.Code)
	assert.Equal(t, "path escapes workspace", err.Message)
	assert.Nil(t, err.Cause)
}

func TestAppError_Error_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(ErrCodeSpawnFailed, "process did not start", cause)

	errorString := err.Error()
	assert.Contains(t, errorString, ErrCodeSpawnFailed)
	assert.Contains(t, errorString, "process did not start")
	assert.Contains(t, errorString, "underlying error")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(ErrCodeStoreFailed, "write failed", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestCodeOf(t *testing.T) {
	err := New(ErrCodeNotFound, "no such file", nil)

	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
	assert.Equal(t, ErrCodeNotFound, CodeOf(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, "", CodeOf(errors.New("plain error")))
	assert.Equal(t, "", CodeOf(nil))
}

func TestHasCode(t *testing.T) {
	err := New(ErrCodeProviderTimeout, "completion timed out", nil)

	assert.True(t, HasCode(err, ErrCodeProviderTimeout))
	assert.False(t, HasCode(err, ErrCodeProviderUnavailable))
}

func TestErrorCodes_Unique(t *testing.T) {
	codes := []string{
		ErrCodeInvalidPath,
		ErrCodeNotFound,
		ErrCodeSpawnFailed,
		ErrCodeProviderTimeout,
		ErrCodeProviderUnavailable,
		ErrCodeContextNotFound,
		ErrCodeSessionNotFound,
		ErrCodeTerminalFailed,
		ErrCodeStoreFailed,
		ErrCodeConfigInvalid,
		ErrCodeInvalidInput,
		ErrCodeFileOperation,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code)
		assert.False(t, seen[code], "duplicate error code: %s", code)
		seen[code] = true
	}
}
