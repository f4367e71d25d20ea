package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "PM-TOKN-4100")
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

// Is implements errors.Is() support for error comparison.
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

// ============================================================================
// Reference Errors (REF)
// ============================================================================

var (
	// ErrInvalidReference indicates a handle could not be bound to a
	// resolvable token. Fatal to the construction attempt that raised it.
	ErrInvalidReference = NewDomainError("PM-REF-4000", "invalid reference")

	// ErrOutsideScope indicates the location lies outside every permitted
	// root and cannot be encoded.
	ErrOutsideScope = NewDomainError("PM-REF-4030", "location outside permitted scope")
)

// ============================================================================
// Token Errors (TOKN)
// ============================================================================

var (
	// ErrTokenMalformed indicates the token bytes are not a valid frame.
	ErrTokenMalformed = NewDomainError("PM-TOKN-4000", "malformed token")

	// ErrTokenUnresolvable indicates the token no longer resolves to any
	// entry: the target was deleted or moved beyond the relocation scan.
	ErrTokenUnresolvable = NewDomainError("PM-TOKN-4100", "token no longer resolves")
)

// ============================================================================
// File-System Errors (META / FS / SCOPE)
// ============================================================================

var (
	// ErrMetadataUnavailable indicates the entry vanished between
	// resolution and the metadata read.
	ErrMetadataUnavailable = NewDomainError("PM-META-4040", "metadata unavailable")

	// ErrDeleteFailed indicates a delete operation failed. Non-fatal: the
	// handle keeps its binding when a permanent delete fails.
	ErrDeleteFailed = NewDomainError("PM-FS-5001", "delete failed")

	// ErrScopeDenied indicates the access-scope bracket could not be
	// acquired for the operation.
	ErrScopeDenied = NewDomainError("PM-SCOPE-4030", "access scope denied")
)

// ============================================================================
// System Errors (SYS / ARG)
// ============================================================================

var (
	// ErrStorageError indicates a settings-store layer error.
	ErrStorageError = NewDomainError("PM-SYS-5001", "storage error")

	// ErrValueNotFound indicates the named settings value does not exist.
	ErrValueNotFound = NewDomainError("PM-SYS-4040", "settings value not found")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("PM-ARG-1001", "invalid argument")
)
