// Package errors provides the error type shared by every Cortex layer.
//
// Services return *UnifiedError values built through the fluent builder.
// The HTTP layer maps the Type to a status code, logs by Severity and
// advertises Retry-After for retryable outages. Codes are stable enough for
// clients and tests to branch on.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType is the category of an error, used for status mapping.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"

	ErrorTypeInternal   ErrorType = "INTERNAL"
	ErrorTypeTimeout    ErrorType = "TIMEOUT"
	ErrorTypeConnection ErrorType = "CONNECTION"

	// ErrorTypeExternal covers upstream collaborators (LLM, page fetches).
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// ErrorSeverity picks the log level used when a rejected request is reported.
type ErrorSeverity string

const (
	SeverityLow    ErrorSeverity = "LOW"
	SeverityMedium ErrorSeverity = "MEDIUM"
	SeverityHigh   ErrorSeverity = "HIGH"
)

// UnifiedError is the single error type returned across layers.
type UnifiedError struct {
	Type      ErrorType     `json:"type"`
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	Details   string        `json:"details,omitempty"`
	Operation string        `json:"operation,omitempty"`
	Severity  ErrorSeverity `json:"severity"`
	Retryable bool          `json:"retryable"`
	Cause     error         `json:"-"`
}

func (e *UnifiedError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *UnifiedError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder builds a UnifiedError step by step.
type ErrorBuilder struct {
	err *UnifiedError
}

func newBuilder(errType ErrorType, code, message string, severity ErrorSeverity, retryable bool) *ErrorBuilder {
	return &ErrorBuilder{err: &UnifiedError{
		Type:      errType,
		Code:      code,
		Message:   message,
		Severity:  severity,
		Retryable: retryable,
	}}
}

func (b *ErrorBuilder) WithDetails(details string) *ErrorBuilder {
	b.err.Details = details
	return b
}

func (b *ErrorBuilder) WithOperation(operation string) *ErrorBuilder {
	b.err.Operation = operation
	return b
}

func (b *ErrorBuilder) WithRetryable(retryable bool) *ErrorBuilder {
	b.err.Retryable = retryable
	return b
}

func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.err.Cause = cause
	return b
}

// Build returns the constructed error.
func (b *ErrorBuilder) Build() *UnifiedError {
	return b.err
}

// Validation is bad caller input.
func Validation(code, message string) *ErrorBuilder {
	return newBuilder(ErrorTypeValidation, code, message, SeverityLow, false)
}

// NotFound is a missing item or notification.
func NotFound(code, message string) *ErrorBuilder {
	return newBuilder(ErrorTypeNotFound, code, message, SeverityLow, false)
}

// Conflict is a concurrent modification.
func Conflict(code, message string) *ErrorBuilder {
	return newBuilder(ErrorTypeConflict, code, message, SeverityMedium, true)
}

// Unauthorized is a missing or invalid token.
func Unauthorized(code, message string) *ErrorBuilder {
	return newBuilder(ErrorTypeUnauthorized, code, message, SeverityMedium, false)
}

// Forbidden is a valid token asking for another user's data.
func Forbidden(code, message string) *ErrorBuilder {
	return newBuilder(ErrorTypeForbidden, code, message, SeverityMedium, false)
}

// Timeout is a deadline hit inside a dependency.
func Timeout(code, message string) *ErrorBuilder {
	return newBuilder(ErrorTypeTimeout, code, message, SeverityMedium, true)
}

// Connection is an unreachable store or broker.
func Connection(code, message string) *ErrorBuilder {
	return newBuilder(ErrorTypeConnection, code, message, SeverityHigh, true)
}

// External is a failed LLM call or page fetch.
func External(code, message string) *ErrorBuilder {
	return newBuilder(ErrorTypeExternal, code, message, SeverityMedium, true)
}

func as(err error) (*UnifiedError, bool) {
	var unifiedErr *UnifiedError
	ok := errors.As(err, &unifiedErr)
	return unifiedErr, ok
}

func isType(err error, errType ErrorType) bool {
	e, ok := as(err)
	return ok && e.Type == errType
}

func IsValidation(err error) bool   { return isType(err, ErrorTypeValidation) }
func IsNotFound(err error) bool     { return isType(err, ErrorTypeNotFound) }
func IsConflict(err error) bool     { return isType(err, ErrorTypeConflict) }
func IsUnauthorized(err error) bool { return isType(err, ErrorTypeUnauthorized) }
func IsForbidden(err error) bool    { return isType(err, ErrorTypeForbidden) }
func IsTimeout(err error) bool      { return isType(err, ErrorTypeTimeout) }
func IsConnection(err error) bool   { return isType(err, ErrorTypeConnection) }
func IsExternal(err error) bool     { return isType(err, ErrorTypeExternal) }

// IsRetryable reports whether the operation behind err may be retried.
func IsRetryable(err error) bool {
	e, ok := as(err)
	return ok && e.Retryable
}

// GetSeverity returns the severity of err. Foreign errors are high: nothing
// classified them.
func GetSeverity(err error) ErrorSeverity {
	if e, ok := as(err); ok {
		return e.Severity
	}
	return SeverityHigh
}

// Code returns the code of err, or "" for foreign errors.
func Code(err error) string {
	if e, ok := as(err); ok {
		return e.Code
	}
	return ""
}

// Message returns the client-facing message of err.
func Message(err error) string {
	if e, ok := as(err); ok {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Wrap adds operation context to err. A UnifiedError keeps its type, code
// and flags, and its message moves to Details. Any other error becomes
// INTERNAL.
func Wrap(err error, operation, message string) *UnifiedError {
	if err == nil {
		return nil
	}
	if existing, ok := as(err); ok {
		return &UnifiedError{
			Type:      existing.Type,
			Code:      existing.Code,
			Message:   message,
			Details:   existing.Message,
			Operation: operation,
			Severity:  existing.Severity,
			Retryable: existing.Retryable,
			Cause:     err,
		}
	}
	return &UnifiedError{
		Type:      ErrorTypeInternal,
		Code:      "WRAP_ERROR",
		Message:   message,
		Details:   err.Error(),
		Operation: operation,
		Severity:  SeverityHigh,
		Cause:     err,
	}
}
