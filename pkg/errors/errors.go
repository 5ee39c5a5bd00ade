// Package errors provides structured error handling for the knowledge graph service
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation indicates invalid input data
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeNotFound indicates a requested resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates missing or invalid authentication
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeForbidden indicates insufficient permissions
	ErrorTypeForbidden ErrorType = "FORBIDDEN"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an upstream provider failure
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeTimeout indicates an operation timeout
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypeRateLimit indicates the upstream provider throttled the request
	ErrorTypeRateLimit ErrorType = "RATE_LIMIT"

	// ErrorTypeUnavailable indicates a service is unavailable
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"

	// ErrorTypeDatabase indicates a persistence layer failure
	ErrorTypeDatabase ErrorType = "DATABASE"

	// ErrorTypeNotConfigured indicates a dependency is missing required configuration
	ErrorTypeNotConfigured ErrorType = "NOT_CONFIGURED"

	// ErrorTypeMalformedResponse indicates an upstream response that could not be parsed
	ErrorTypeMalformedResponse ErrorType = "MALFORMED_RESPONSE"

	// ErrorTypeDimensionMismatch indicates vectors of different dimensionality were compared
	ErrorTypeDimensionMismatch ErrorType = "DIMENSION_MISMATCH"
)

// AppError represents an application error with context
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Type, e.Message))
	if e.Code != "" {
		sb.WriteString(fmt.Sprintf(" (code: %s)", e.Code))
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	return sb.String()
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause attaches an underlying cause to the error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithCode attaches a machine-readable code to the error
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails attaches structured detail to the error
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(errType ErrorType, message string, status int) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: status,
		StackTrace: captureStackTrace(),
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource, id string) *AppError {
	return newError(ErrorTypeNotFound, fmt.Sprintf("%s not found: %s", resource, id), http.StatusNotFound).
		WithDetails("resource", resource).
		WithDetails("id", id)
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return newError(ErrorTypeConflict, message, http.StatusConflict)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return newError(ErrorTypeUnauthorized, message, http.StatusUnauthorized)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return newError(ErrorTypeInternal, message, http.StatusInternalServerError)
}

// NewExternalError creates an upstream provider error
func NewExternalError(provider, message string) *AppError {
	return newError(ErrorTypeExternal, message, http.StatusBadGateway).
		WithDetails("provider", provider)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(operation string) *AppError {
	return newError(ErrorTypeTimeout, fmt.Sprintf("operation timed out: %s", operation), http.StatusRequestTimeout)
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(provider string) *AppError {
	return newError(ErrorTypeRateLimit, fmt.Sprintf("rate limited by %s", provider), http.StatusTooManyRequests).
		WithDetails("provider", provider)
}

// NewDatabaseError creates a persistence error
func NewDatabaseError(operation string, cause error) *AppError {
	return newError(ErrorTypeDatabase, fmt.Sprintf("database operation failed: %s", operation), http.StatusInternalServerError).
		WithDetails("operation", operation).
		WithCause(cause)
}

// NewNotConfiguredError creates a missing configuration error
func NewNotConfiguredError(component string) *AppError {
	return newError(ErrorTypeNotConfigured, fmt.Sprintf("%s is not configured", component), http.StatusServiceUnavailable).
		WithDetails("component", component)
}

// NewMalformedResponseError creates an unparseable upstream response error
func NewMalformedResponseError(provider, message string) *AppError {
	return newError(ErrorTypeMalformedResponse, message, http.StatusBadGateway).
		WithDetails("provider", provider)
}

// NewDimensionMismatchError creates a vector dimensionality error
func NewDimensionMismatchError(want, got int) *AppError {
	return newError(ErrorTypeDimensionMismatch, fmt.Sprintf("vector dimension mismatch: want %d, got %d", want, got), http.StatusInternalServerError).
		WithDetails("want", want).
		WithDetails("got", got)
}

// Wrap wraps an error with additional context, preserving an existing AppError type
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		return &AppError{
			Type:       appErr.Type,
			Message:    fmt.Sprintf("%s: %s", message, appErr.Message),
			Code:       appErr.Code,
			Details:    appErr.Details,
			Cause:      appErr,
			HTTPStatus: appErr.HTTPStatus,
			StackTrace: appErr.StackTrace,
		}
	}
	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetAppError extracts an AppError from an error chain, or returns nil
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks whether an error chain contains an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Type == errType
	}
	return false
}

// IsNotFound checks for a not found error
func IsNotFound(err error) bool { return IsType(err, ErrorTypeNotFound) }

// IsValidation checks for a validation error
func IsValidation(err error) bool { return IsType(err, ErrorTypeValidation) }

// IsRateLimit checks for a rate limit error
func IsRateLimit(err error) bool { return IsType(err, ErrorTypeRateLimit) }

// IsNotConfigured checks for a missing configuration error
func IsNotConfigured(err error) bool { return IsType(err, ErrorTypeNotConfigured) }

// IsDatabase checks for a persistence error
func IsDatabase(err error) bool { return IsType(err, ErrorTypeDatabase) }

// IsExternal checks for an upstream provider error
func IsExternal(err error) bool { return IsType(err, ErrorTypeExternal) }

// IsMalformedResponse checks for an unparseable upstream response error
func IsMalformedResponse(err error) bool { return IsType(err, ErrorTypeMalformedResponse) }

func captureStackTrace() string {
	const depth = 16
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") {
			break
		}
		sb.WriteString(fmt.Sprintf("%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return sb.String()
}
