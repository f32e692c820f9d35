// Package errors defines the application-facing error type used
// throughout verifyd's HTTP and service layers: a classified error with
// a fixed HTTP status mapping, optional details, and an optional cause.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError for HTTP status mapping and safe
// message selection.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDatabase   ErrorType = "database"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	// ErrorTypeUnavailable marks a dependency outage (cache or database)
	// that degrades the verify pipeline per-component rather than
	// producing a decision.
	ErrorTypeUnavailable ErrorType = "unavailable"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:  http.StatusBadRequest,
	ErrorTypeAuth:        http.StatusUnauthorized,
	ErrorTypeNotFound:    http.StatusNotFound,
	ErrorTypeConflict:    http.StatusConflict,
	ErrorTypeTimeout:     http.StatusRequestTimeout,
	ErrorTypeRateLimit:   http.StatusTooManyRequests,
	ErrorTypeDatabase:    http.StatusInternalServerError,
	ErrorTypeNetwork:     http.StatusInternalServerError,
	ErrorTypeInternal:    http.StatusInternalServerError,
	ErrorTypeUnavailable: http.StatusServiceUnavailable,
}

// AppError is a classified, HTTP-mappable application error.
type AppError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Details    string
	Cause      error
}

func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		StatusCode: statusByType[errType],
	}
}

func Wrap(err error, errType ErrorType, message string) *AppError {
	e := New(errType, message)
	e.Cause = err
	return e
}

func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *AppError {
	return Wrap(err, errType, fmt.Sprintf(format, args...))
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails sets Details and returns the same error, mutated in place.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithDetailsf(format string, args ...interface{}) *AppError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

func NewDatabaseError(operation string, cause error) *AppError {
	return Wrap(cause, ErrorTypeDatabase, "database operation failed: "+operation)
}

func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, resource+" not found")
}

func NewAuthError(message string) *AppError {
	return New(ErrorTypeAuth, message)
}

func NewTimeoutError(operation string) *AppError {
	return New(ErrorTypeTimeout, "operation timed out: "+operation)
}

// IsType reports whether err is an *AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == errType
}

// GetType returns err's ErrorType, or ErrorTypeInternal for any other
// error (including nil).
func GetType(err error) ErrorType {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetStatusCode returns err's mapped HTTP status, or 500 for any other
// error.
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// errorMessages holds the client-safe messages returned for error types
// whose internal Message must not leak implementation detail.
type errorMessages struct {
	ResourceNotFound        string
	AuthenticationFailed    string
	OperationTimeout        string
	RateLimitExceeded       string
	ConcurrentModification  string
}

// ErrorMessages is the fixed set of client-safe messages used by
// SafeErrorMessage.
var ErrorMessages = errorMessages{
	ResourceNotFound:       "The requested resource was not found",
	AuthenticationFailed:   "Authentication failed",
	OperationTimeout:       "The operation timed out",
	RateLimitExceeded:      "Rate limit exceeded",
	ConcurrentModification: "The resource was modified concurrently",
}

// SafeErrorMessage returns a message safe to return to an API client:
// validation messages pass through verbatim (they describe client
// input, not internals), other known types map to a fixed safe
// message, and everything else collapses to a generic message.
func SafeErrorMessage(err error) string {
	appErr, ok := err.(*AppError)
	if !ok {
		return "An unexpected error occurred"
	}
	switch appErr.Type {
	case ErrorTypeValidation:
		return appErr.Message
	case ErrorTypeNotFound:
		return ErrorMessages.ResourceNotFound
	case ErrorTypeAuth:
		return ErrorMessages.AuthenticationFailed
	case ErrorTypeTimeout:
		return ErrorMessages.OperationTimeout
	case ErrorTypeRateLimit:
		return ErrorMessages.RateLimitExceeded
	case ErrorTypeConflict:
		return ErrorMessages.ConcurrentModification
	default:
		return "An internal error occurred"
	}
}

// LogFields returns a structured field map suitable for a log entry.
func LogFields(err error) map[string]interface{} {
	fields := map[string]interface{}{
		"error": err.Error(),
	}
	appErr, ok := err.(*AppError)
	if !ok {
		return fields
	}
	fields["error_type"] = string(appErr.Type)
	fields["status_code"] = appErr.StatusCode
	if appErr.Details != "" {
		fields["error_details"] = appErr.Details
	}
	if appErr.Cause != nil {
		fields["underlying_error"] = appErr.Cause.Error()
	}
	return fields
}

// Chain joins non-nil errors with " -> ". It returns nil for an empty
// or all-nil input, and the single error itself when only one is
// non-nil.
func Chain(errs ...error) error {
	var msgs []string
	var first error
	count := 0
	for _, err := range errs {
		if err == nil {
			continue
		}
		count++
		if first == nil {
			first = err
		}
		msgs = append(msgs, err.Error())
	}
	switch count {
	case 0:
		return nil
	case 1:
		return first
	default:
		joined := msgs[0]
		for _, m := range msgs[1:] {
			joined += " -> " + m
		}
		return fmt.Errorf("%s", joined)
	}
}
