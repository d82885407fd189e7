package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestStoreErrorFormatting(t *testing.T) {
	err := &StoreError{Op: "session.Login", Kind: "auth", Err: ErrUnauthorized}
	if got := err.Error(); got != "session.Login: unauthorized" {
		t.Errorf("unexpected error string: %q", got)
	}

	msgOnly := &StoreError{Kind: "validation", Message: "Please enter a discount code"}
	if got := msgOnly.Error(); got != "Please enter a discount code" {
		t.Errorf("unexpected error string: %q", got)
	}

	bare := &StoreError{Kind: "gateway"}
	if got := bare.Error(); got != "gateway error" {
		t.Errorf("unexpected error string: %q", got)
	}
}

func TestStoreErrorUnwrap(t *testing.T) {
	err := &StoreError{Op: "gateway.Request", Kind: "auth", Err: ErrUnauthorized}

	if !errors.Is(err, ErrUnauthorized) {
		t.Error("sentinel not reachable through Unwrap")
	}
	if !IsUnauthorized(err) {
		t.Error("IsUnauthorized should match")
	}
	if IsNotFound(err) {
		t.Error("IsNotFound should not match")
	}
}

func TestStoreErrorThroughWrapping(t *testing.T) {
	inner := &StoreError{Op: "gateway.Request", Kind: "request", Message: "Not Found: No such product", Err: ErrNotFound}
	wrapped := fmt.Errorf("fetch page: %w", inner)

	if !IsNotFound(wrapped) {
		t.Error("sentinel lost through outer wrapping")
	}

	var se *StoreError
	if !errors.As(wrapped, &se) || se.Message != "Not Found: No such product" {
		t.Errorf("StoreError not recoverable: %v", se)
	}
}

func TestErrorMessage(t *testing.T) {
	withMessage := &StoreError{Message: "Email taken", Err: ErrBadRequest}
	if got := ErrorMessage(withMessage, "fallback"); got != "Email taken" {
		t.Errorf("expected carried message, got %q", got)
	}

	plain := errors.New("raw failure")
	if got := ErrorMessage(plain, "fallback"); got != "raw failure" {
		t.Errorf("expected error text, got %q", got)
	}

	if got := ErrorMessage(errors.New(""), "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := ErrorMessage(nil, "fallback"); got != "fallback" {
		t.Errorf("expected fallback for nil, got %q", got)
	}
}

func TestIsRetryable(t *testing.T) {
	for _, err := range []error{ErrServerFailure, ErrTimeout, ErrRequestFailed} {
		if !IsRetryable(fmt.Errorf("wrapped: %w", err)) {
			t.Errorf("%v should be retryable", err)
		}
	}
	for _, err := range []error{ErrBadRequest, ErrNotFound, ErrUnauthorized} {
		if IsRetryable(err) {
			t.Errorf("%v should not be retryable", err)
		}
	}
}
