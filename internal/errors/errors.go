package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Authentication & Authorization
	ErrCodeAuthRequired  ErrorCode = "AUTH_REQUIRED"
	ErrCodeAuthExpired   ErrorCode = "AUTH_EXPIRED"
	ErrCodeAuthInvalid   ErrorCode = "AUTH_INVALID"
	ErrCodeAdminRequired ErrorCode = "ADMIN_REQUIRED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"

	// Validation
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidSite   ErrorCode = "INVALID_SITE"
	ErrCodeInvalidPeriod ErrorCode = "INVALID_PERIOD"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Upstream
	ErrCodeSync   ErrorCode = "SYNC_ERROR"
	ErrCodeGA4    ErrorCode = "GA4_API_ERROR"
	ErrCodeGSC    ErrorCode = "GSC_API_ERROR"
	ErrCodeNotify ErrorCode = "NOTIFY_ERROR"

	// Internal
	ErrCodeConfig   ErrorCode = "CONFIG_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func AuthRequired() *AppError {
	return New(ErrCodeAuthRequired, "Authentication required")
}

func AuthExpired() *AppError {
	return New(ErrCodeAuthExpired, "Session expired")
}

func AuthInvalid(message string) *AppError {
	return New(ErrCodeAuthInvalid, message)
}

func AdminRequired() *AppError {
	return New(ErrCodeAdminRequired, "Administrator access required")
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidSite(site string) *AppError {
	return New(ErrCodeInvalidSite, fmt.Sprintf("Unknown site: %s", site))
}

func InvalidPeriod(period string) *AppError {
	return New(ErrCodeInvalidPeriod, fmt.Sprintf("Period must be YYYY-MM, got: %s", period))
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func SyncFailed(cause error) *AppError {
	return Wrap(ErrCodeSync, "Article sync failed", cause)
}

func NotifyFailed(reason string) *AppError {
	return New(ErrCodeNotify, fmt.Sprintf("Failed to send notification: %s", reason))
}

func ConfigError(message string) *AppError {
	return New(ErrCodeConfig, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
