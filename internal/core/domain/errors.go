// Package domain defines the core domain models for the token registry.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured
// error code of the form NR-<AREA>-<nnnn>.
type DomainError struct {
	Code    string // Error code (e.g., "NR-LEDG-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support, comparing by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Ledger Errors (LEDG)
// ============================================================================

var (
	// ErrUnauthorized indicates the caller is not owner, approved
	// delegate, operator, or custodian for the attempted operation.
	ErrUnauthorized = NewDomainError("NR-LEDG-4030", "caller not authorized")

	// ErrInvalidTokenID indicates the token id has never been minted.
	ErrInvalidTokenID = NewDomainError("NR-LEDG-4040", "invalid token id")

	// ErrZeroIdentity indicates the sentinel identity was used where a
	// real identity is required (e.g. safe-transfer destination).
	ErrZeroIdentity = NewDomainError("NR-LEDG-4001", "zero identity not allowed")

	// ErrOwnershipMismatch indicates the stated source identity does
	// not own the token.
	ErrOwnershipMismatch = NewDomainError("NR-LEDG-4002", "token not owned by stated source")
)

// ============================================================================
// Mint Errors (MINT)
// ============================================================================

var (
	// ErrMintNotAllowed covers both a syntactically unacceptable URI
	// and a recipient missing from the whitelist. The two causes are
	// deliberately indistinguishable to callers.
	ErrMintNotAllowed = NewDomainError("NR-MINT-4030", "mint not allowed")

	// ErrOutsideMintWindow indicates the mint window is not open.
	ErrOutsideMintWindow = NewDomainError("NR-MINT-4003", "outside mint window")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrAPIKeyMissing indicates no API key was provided.
	ErrAPIKeyMissing = NewDomainError("NR-AUTH-4010", "api key not provided")

	// ErrAPIKeyInvalid indicates the API key is invalid or unknown.
	ErrAPIKeyInvalid = NewDomainError("NR-AUTH-4011", "invalid api key")
)

// ============================================================================
// Admin Errors (ADMIN)
// ============================================================================

var (
	// ErrAdminPermissionDenied indicates the admin role is required.
	ErrAdminPermissionDenied = NewDomainError("NR-ADMIN-4030", "admin role required")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("NR-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("NR-ARG-1002", "missing required argument")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("NR-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("NR-SYS-5001", "storage error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("NR-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("NR-SYS-4290", "too many requests")

	// ErrServiceUnavailable indicates the service is not ready.
	ErrServiceUnavailable = NewDomainError("NR-SYS-5030", "service unavailable")
)
