package service

import (
	"errors"
	"fmt"
	"testing"

	"familylink/internal/validation"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"username taken", ErrUsernameTaken, ErrConflict},
		{"wrapped conflict", fmt.Errorf("register: %w", ErrEmailTaken), ErrConflict},
		{"bad credentials", ErrInvalidCredentials, ErrUnauthenticated},
		{"inactive", ErrAccountInactive, ErrForbidden},
		{"child not found", ErrChildNotFound, ErrNotFound},
		{"invalid code", ErrInvalidParentCode, ErrValidation},
		{"field validation", validation.ValidationError{Field: "email", Message: "invalid email format"}, ErrValidation},
		{"unexpected", errors.New("disk full"), nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(ErrUsernameTaken); got != "Username already exists" {
		t.Errorf("PublicMessage() = %q", got)
	}
	if got := PublicMessage(validation.ValidationError{Field: "password", Message: "password is required"}); got != "password is required" {
		t.Errorf("PublicMessage() = %q", got)
	}
	if got := PublicMessage(errors.New("pq: connection refused")); got != MsgUnexpected {
		t.Errorf("PublicMessage() leaked internal error: %q", got)
	}
}
