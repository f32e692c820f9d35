// Package errors provides lightweight, composable error helpers shared
// across verifyd's packages. It is deliberately independent from
// internal/errors.AppError: this package models low-level operational
// failures (what failed, against which component and resource), while
// internal/errors carries HTTP-facing classification and status codes.
package errors

import (
	"fmt"
	"strings"
)

// OperationError describes a failed operation against an optional
// component and resource, wrapping an underlying cause.
type OperationError struct {
	Operation string
	Component string
	Resource  string
	Cause     error
}

func (e *OperationError) Error() string {
	var b strings.Builder
	b.WriteString("failed to ")
	b.WriteString(e.Operation)
	if e.Component != "" {
		b.WriteString(", component: ")
		b.WriteString(e.Component)
	}
	if e.Resource != "" {
		b.WriteString(", resource: ")
		b.WriteString(e.Resource)
	}
	if e.Cause != nil {
		b.WriteString(", cause: ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// FailedTo builds a minimal OperationError for the given action.
func FailedTo(action string, cause error) error {
	return &OperationError{Operation: action, Cause: cause}
}

// FailedToWithDetails builds a fully populated OperationError.
func FailedToWithDetails(operation, component, resource string, cause error) error {
	return &OperationError{
		Operation: operation,
		Component: component,
		Resource:  resource,
		Cause:     cause,
	}
}

// Wrapf wraps err with a formatted message, or returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// DatabaseError builds an OperationError for the database component.
func DatabaseError(op string, cause error) error {
	return FailedToWithDetails(op, "database", "", cause)
}

// NetworkError builds an OperationError for the network component,
// recording the remote endpoint as the resource.
func NetworkError(op, endpoint string, cause error) error {
	return FailedToWithDetails(op, "network", endpoint, cause)
}

// ValidationError reports a field-level validation failure.
func ValidationError(field, message string) error {
	return fmt.Errorf("validation failed for field %s: %s", field, message)
}

// ConfigurationError reports a misconfigured setting.
func ConfigurationError(setting, message string) error {
	return fmt.Errorf("configuration error for setting %s: %s", setting, message)
}

// TimeoutError reports an operation that exceeded its deadline.
func TimeoutError(op, duration string) error {
	return fmt.Errorf("timeout while %s after %s", op, duration)
}

// AuthenticationError reports a failed authentication attempt.
func AuthenticationError(message string) error {
	return fmt.Errorf("authentication failed: %s", message)
}

// AuthorizationError reports a denied authorization check.
func AuthorizationError(action, resource string) error {
	return fmt.Errorf("authorization failed: insufficient permissions to %s %s", action, resource)
}

// ParseError reports a failure decoding target from the given format.
func ParseError(target, format string, cause error) error {
	return fmt.Errorf("failed to parse %s as %s: %w", target, format, cause)
}

// IsRetryable reports whether err looks like a transient failure worth
// retrying, based on well-known substrings.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "service unavailable")
}

// Chain joins multiple non-nil errors into one. It returns nil if all
// inputs are nil, the single error itself if only one is non-nil, and
// a "multiple errors: " joined message otherwise.
func Chain(errs ...error) error {
	var nonNil []string
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
		nonNil = append(nonNil, err.Error())
	}
	switch count {
	case 0:
		return nil
	case 1:
		return first
	default:
		return fmt.Errorf("multiple errors: %s", strings.Join(nonNil, "; "))
	}
}
