package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Registry errors
	ErrServiceDisabled ErrorCode = "SERVICE_DISABLED"
	ErrInvalidName     ErrorCode = "INVALID_NAME"
	ErrAlreadyAcquired ErrorCode = "ALREADY_ACQUIRED"
	ErrProvisionFailed ErrorCode = "PROVISION_FAILED"
	ErrMigrationFailed ErrorCode = "MIGRATION_FAILED"

	// Storage handle errors
	ErrStorageRevoked ErrorCode = "STORAGE_REVOKED"
	ErrPathEscape     ErrorCode = "PATH_ESCAPE"
	ErrFileAccess     ErrorCode = "FILE_ACCESS"
	ErrFileWrite      ErrorCode = "FILE_WRITE"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"
)

// PlugfsError represents a structured error with code and details
type PlugfsError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *PlugfsError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PlugfsError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *PlugfsError) Is(target error) bool {
	var targetErr *PlugfsError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new PlugfsError with the given code and message
func New(code ErrorCode, message string) *PlugfsError {
	return &PlugfsError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new PlugfsError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PlugfsError {
	return &PlugfsError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a PlugfsError
func Wrap(err error, code ErrorCode, message string) *PlugfsError {
	if err == nil {
		return nil
	}
	return &PlugfsError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PlugfsError {
	if err == nil {
		return nil
	}
	return &PlugfsError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *PlugfsError) WithDetail(key string, value interface{}) *PlugfsError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var plugfsErr *PlugfsError
	if errors.As(err, &plugfsErr) {
		return plugfsErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a PlugfsError
func GetErrorCode(err error) ErrorCode {
	var plugfsErr *PlugfsError
	if errors.As(err, &plugfsErr) {
		return plugfsErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a PlugfsError
func GetErrorDetails(err error) map[string]interface{} {
	var plugfsErr *PlugfsError
	if errors.As(err, &plugfsErr) {
		return plugfsErr.Details
	}
	return nil
}
