// Package errors provides the unified error model used across the canvas core.
// Every layer builds its failures through the same fluent builder so callers can
// classify an error by type, code and resource without string matching.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ============================================================================
// ERROR TYPES AND CLASSIFICATION
// ============================================================================

// ErrorType defines the category of error for proper handling.
type ErrorType string

const (
	// Business logic errors
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeDomain     ErrorType = "DOMAIN"

	// Infrastructure errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeTimeout     ErrorType = "TIMEOUT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
)

// ErrorSeverity defines the severity level for logging and monitoring.
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "LOW"
	SeverityMedium   ErrorSeverity = "MEDIUM"
	SeverityHigh     ErrorSeverity = "HIGH"
	SeverityCritical ErrorSeverity = "CRITICAL"
)

// ============================================================================
// UNIFIED ERROR STRUCTURE
// ============================================================================

// UnifiedError is the single error type of the canvas core.
type UnifiedError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details"`

	Operation string `json:"operation"`
	Resource  string `json:"resource"`

	Severity  ErrorSeverity `json:"severity"`
	Retryable bool          `json:"retryable"`
	Cause     error         `json:"-"`

	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e *UnifiedError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the underlying cause.
func (e *UnifiedError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a UnifiedError with the same type and code.
// Sentinels declared with the builder therefore match copies produced by
// WithDetails or Wrap.
func (e *UnifiedError) Is(target error) bool {
	var t *UnifiedError
	if !errors.As(target, &t) {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// String provides a detailed representation for logging.
func (e *UnifiedError) String() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Error: %s\n", e.Error()))
	if e.Operation != "" {
		builder.WriteString(fmt.Sprintf("Operation: %s\n", e.Operation))
	}
	if e.Resource != "" {
		builder.WriteString(fmt.Sprintf("Resource: %s\n", e.Resource))
	}
	builder.WriteString(fmt.Sprintf("Severity: %s\n", e.Severity))
	if e.Cause != nil {
		builder.WriteString(fmt.Sprintf("Cause: %v\n", e.Cause))
	}
	if e.File != "" && e.Line > 0 {
		builder.WriteString(fmt.Sprintf("Location: %s:%d\n", e.File, e.Line))
	}

	return builder.String()
}

// WithDetails returns a copy of the error carrying additional details.
// Sentinels are shared values, so call sites attach context through a copy.
func (e *UnifiedError) WithDetails(format string, args ...interface{}) *UnifiedError {
	clone := *e
	clone.Details = fmt.Sprintf(format, args...)
	return &clone
}

// ============================================================================
// ERROR BUILDER
// ============================================================================

// ErrorBuilder provides a fluent interface for constructing UnifiedError instances.
type ErrorBuilder struct {
	error *UnifiedError
}

// NewError creates a new error builder with the specified type and message.
func NewError(errType ErrorType, code, message string) *ErrorBuilder {
	_, file, line, _ := runtime.Caller(1)

	return &ErrorBuilder{
		error: &UnifiedError{
			Type:     errType,
			Code:     code,
			Message:  message,
			Severity: SeverityMedium,
			File:     file,
			Line:     line,
		},
	}
}

// WithDetails adds additional details to the error.
func (b *ErrorBuilder) WithDetails(details string) *ErrorBuilder {
	b.error.Details = details
	return b
}

// WithOperation specifies the operation that failed.
func (b *ErrorBuilder) WithOperation(operation string) *ErrorBuilder {
	b.error.Operation = operation
	return b
}

// WithResource specifies the resource being operated on.
func (b *ErrorBuilder) WithResource(resource string) *ErrorBuilder {
	b.error.Resource = resource
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.error.Severity = severity
	return b
}

// WithRetryable marks the error as retryable.
func (b *ErrorBuilder) WithRetryable(retryable bool) *ErrorBuilder {
	b.error.Retryable = retryable
	return b
}

// WithCause adds the underlying cause error.
func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.error.Cause = cause
	return b
}

// Build returns the constructed UnifiedError.
func (b *ErrorBuilder) Build() *UnifiedError {
	return b.error
}

// ============================================================================
// CONVENIENCE CONSTRUCTORS
// ============================================================================

// Validation creates a validation error.
func Validation(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeValidation, code, message).
		WithSeverity(SeverityLow).
		WithRetryable(false)
}

// NotFound creates a not found error.
func NotFound(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeNotFound, code, message).
		WithSeverity(SeverityLow).
		WithRetryable(false)
}

// Conflict creates a conflict error.
func Conflict(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeConflict, code, message).
		WithSeverity(SeverityLow).
		WithRetryable(false)
}

// Domain creates a business rule violation.
func Domain(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeDomain, code, message).
		WithSeverity(SeverityMedium).
		WithRetryable(false)
}

// Internal creates an internal error.
func Internal(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeInternal, code, message).
		WithSeverity(SeverityHigh).
		WithRetryable(false)
}

// Unavailable creates an error for a collaborator that cannot be reached.
func Unavailable(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeUnavailable, code, message).
		WithSeverity(SeverityMedium).
		WithRetryable(true)
}

// ============================================================================
// ERROR CLASSIFICATION AND CHECKING
// ============================================================================

// IsType checks if an error is of a specific type.
func IsType(err error, errType ErrorType) bool {
	var unifiedErr *UnifiedError
	if errors.As(err, &unifiedErr) {
		return unifiedErr.Type == errType
	}
	return false
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// IsDomain checks if an error is a business rule violation.
func IsDomain(err error) bool {
	return IsType(err, ErrorTypeDomain)
}

// IsInternal checks if an error is an internal error.
func IsInternal(err error) bool {
	return IsType(err, ErrorTypeInternal)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var unifiedErr *UnifiedError
	if errors.As(err, &unifiedErr) {
		return unifiedErr.Retryable
	}
	return false
}

// GetSeverity returns the severity of an error.
func GetSeverity(err error) ErrorSeverity {
	var unifiedErr *UnifiedError
	if errors.As(err, &unifiedErr) {
		return unifiedErr.Severity
	}
	return SeverityMedium
}

// CodeOf returns the code of a UnifiedError, or the empty string.
func CodeOf(err error) string {
	var unifiedErr *UnifiedError
	if errors.As(err, &unifiedErr) {
		return unifiedErr.Code
	}
	return ""
}

// ============================================================================
// WRAPPING
// ============================================================================

// Wrap wraps an existing error with additional context while preserving the chain.
func Wrap(err error, operation, message string) *UnifiedError {
	if err == nil {
		return nil
	}

	var existingErr *UnifiedError
	if errors.As(err, &existingErr) {
		return &UnifiedError{
			Type:      existingErr.Type,
			Code:      existingErr.Code,
			Message:   message,
			Details:   existingErr.Message,
			Operation: operation,
			Resource:  existingErr.Resource,
			Severity:  existingErr.Severity,
			Retryable: existingErr.Retryable,
			Cause:     err,
			File:      existingErr.File,
			Line:      existingErr.Line,
		}
	}

	_, file, line, _ := runtime.Caller(1)
	return &UnifiedError{
		Type:      ErrorTypeInternal,
		Code:      CodeInternalError.String(),
		Message:   message,
		Details:   err.Error(),
		Operation: operation,
		Severity:  SeverityMedium,
		Cause:     err,
		File:      file,
		Line:      line,
	}
}
