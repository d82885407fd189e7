package core

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for comparison using errors.Is()
// These are generic errors that can be wrapped with additional context
var (
	// Gateway/transport errors
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrBadRequest         = errors.New("bad request")
	ErrServerFailure      = errors.New("server failure")
	ErrRequestFailed      = errors.New("request failed")
	ErrTimeout            = errors.New("request timeout")
	ErrCircuitOpen        = errors.New("circuit breaker open")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing required configuration")

	// Operation errors
	ErrUnsupportedMethod = errors.New("unsupported method")
)

// StoreError provides structured error information with context.
// It implements the error interface and supports error wrapping.
type StoreError struct {
	Op      string // Operation that failed (e.g., "session.Login")
	Kind    string // Error kind (e.g., "auth", "gateway", "config")
	Message string // Human-readable message surfaced to the user
	Err     error  // Underlying error for wrapping
}

// Error returns the string representation of the error
func (e *StoreError) Error() string {
	if e.Op != "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(op, kind string, err error) *StoreError {
	return &StoreError{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// ErrorMessage extracts the user-facing message carried by err. It falls
// back to fallback when err carries no message of its own. Stores use this
// as the single translation point from a gateway failure to the string
// recorded in their error field.
func ErrorMessage(err error, fallback string) string {
	var se *StoreError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

// IsUnauthorized checks if an error represents a rejected credential
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNotFound checks if an error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable checks if an error is a transient transport failure
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServerFailure) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRequestFailed)
}

// IsConfigurationError checks if an error is configuration-related
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingConfiguration)
}
