package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainErrorFormat(t *testing.T) {
	err := NewDomainError("NR-TEST-0001", "something failed")
	if got := err.Error(); got != "[NR-TEST-0001] something failed" {
		t.Fatalf("Error() = %q", got)
	}

	withDetails := err.WithDetails("token 7")
	if got := withDetails.Error(); got != "[NR-TEST-0001] something failed: token 7" {
		t.Fatalf("Error() with details = %q", got)
	}
}

func TestErrorsIsComparesByCode(t *testing.T) {
	base := ErrInvalidTokenID
	wrapped := ErrInvalidTokenID.WithDetails("token 42")

	if !errors.Is(wrapped, base) {
		t.Fatal("errors.Is failed for same code with details")
	}
	if errors.Is(wrapped, ErrUnauthorized) {
		t.Fatal("errors.Is matched across different codes")
	}
}

func TestUnwrapCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := ErrStorageError.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable via errors.Is")
	}
}

func TestIsDomainError(t *testing.T) {
	err := fmt.Errorf("wrapping: %w", ErrMintNotAllowed)

	if !IsDomainError(err, "NR-MINT-4030") {
		t.Fatal("IsDomainError missed wrapped domain error")
	}
	if !IsDomainError(err, "") {
		t.Fatal("IsDomainError with empty code missed domain error")
	}
	if IsDomainError(errors.New("plain"), "") {
		t.Fatal("IsDomainError matched a plain error")
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := GetErrorCode(ErrOutsideMintWindow); got != "NR-MINT-4003" {
		t.Fatalf("GetErrorCode = %q, want NR-MINT-4003", got)
	}
	if got := GetErrorCode(errors.New("plain")); got != "" {
		t.Fatalf("GetErrorCode on plain error = %q, want empty", got)
	}
}
