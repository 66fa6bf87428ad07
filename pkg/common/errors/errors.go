package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the matflow module

var (
	// ErrClosed indicates that work was submitted to a pool that is draining or terminated
	ErrClosed = errors.New("resource is closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled before it completed
	ErrCanceled = errors.New("operation canceled")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDimensionMismatch indicates that the inner dimensions of two operands disagree
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrResultMismatch indicates that a strategy's product differs from the reference product
	ErrResultMismatch = errors.New("result mismatch")

	// ErrInvalidDimensions indicates a non-positive or ragged matrix shape
	ErrInvalidDimensions = errors.New("invalid dimensions")

	// ErrNilMatrix indicates that a required matrix operand was nil
	ErrNilMatrix = errors.New("nil matrix")

	// ErrTaskPanic indicates that a task panicked while executing
	ErrTaskPanic = errors.New("task panicked")
)

// ValidationError describes a configuration field that failed validation.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap lets errors.Is match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled returns true if the operation stopped because its caller gave up,
// either through cancellation or a deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, ErrTimeout)
}
