package domain

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DomainError
		want string
	}{
		{
			"without details",
			NewDomainError("PM-TEST-1", "something broke"),
			"[PM-TEST-1] something broke",
		},
		{
			"with details",
			NewDomainError("PM-TEST-1", "something broke").WithDetails("at /tmp/x"),
			"[PM-TEST-1] something broke: at /tmp/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrTokenUnresolvable.WithDetails("gone"))

	if !errors.Is(wrapped, ErrTokenUnresolvable) {
		t.Error("errors.Is should match by code through wrapping")
	}
	if errors.Is(wrapped, ErrTokenMalformed) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := os.ErrNotExist
	err := ErrMetadataUnavailable.WithCause(cause)

	if !errors.Is(err, os.ErrNotExist) {
		t.Error("cause should be reachable via errors.Is")
	}
	if !errors.Is(err, ErrMetadataUnavailable) {
		t.Error("the domain error itself should still match")
	}
}

func TestIsDomainError(t *testing.T) {
	err := ErrInvalidReference.WithDetails("no token")

	if !IsDomainError(err, ErrInvalidReference.Code) {
		t.Error("IsDomainError should match the code")
	}
	if IsDomainError(err, ErrStorageError.Code) {
		t.Error("IsDomainError should reject a different code")
	}
	if !IsDomainError(err, "") {
		t.Error("empty code should match any DomainError")
	}
	if IsDomainError(errors.New("plain"), "") {
		t.Error("plain errors are not DomainErrors")
	}
}

func TestDomainError_WithCause_Copies(t *testing.T) {
	base := ErrDeleteFailed
	derived := base.WithCause(os.ErrPermission)

	if base.Cause != nil {
		t.Error("WithCause must not mutate the sentinel")
	}
	if derived.Cause != os.ErrPermission {
		t.Error("derived error should carry the cause")
	}
}
