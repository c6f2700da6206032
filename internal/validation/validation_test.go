package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "user@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "missing local part",
			email:   "@example.com",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
		{
			name:    "spaces in email",
			email:   "test @example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "valid password",
			password: "password123",
			wantErr:  false,
		},
		{
			name:     "password exactly 6 characters",
			password: "pass12",
			wantErr:  false,
		},
		{
			name:     "password too short",
			password: "pass1",
			wantErr:  true,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  true,
		},
		{
			name:     "long password",
			password: "thisIsAVeryLongPasswordThatShouldBeValid123",
			wantErr:  false,
		},
		{
			name:     "password exactly 72 bytes",
			password: strings.Repeat("a", PasswordMaxLength),
			wantErr:  false,
		},
		{
			name:     "password over 72 bytes",
			password: strings.Repeat("a", PasswordMaxLength+1),
			wantErr:  true,
		},
		{
			name:     "multibyte password over 72 bytes",
			password: strings.Repeat("é", 40),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "alice", false},
		{"minimum length", "bob", false},
		{"with separators", "little_bob-2.0", false},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 65), true},
		{"empty", "", true},
		{"only spaces", "   ", true},
		{"contains space", "bob smith", true},
		{"contains at sign", "bob@home", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRole(t *testing.T) {
	for _, role := range []string{"parent", "child"} {
		if err := ValidateRole(role); err != nil {
			t.Errorf("ValidateRole(%q) = %v, want nil", role, err)
		}
	}
	for _, role := range []string{"", "admin", "Parent"} {
		err := ValidateRole(role)
		var verr ValidationError
		if !errors.As(err, &verr) || verr.Field != "role" {
			t.Errorf("ValidateRole(%q) = %v, want role ValidationError", role, err)
		}
	}
}

func TestValidateParentCode(t *testing.T) {
	if err := ValidateParentCode("AB12CD34"); err != nil {
		t.Errorf("ValidateParentCode() = %v, want nil", err)
	}
	if err := ValidateParentCode(""); err == nil {
		t.Error("empty parent code should fail")
	}
	if err := ValidateParentCode(strings.Repeat("X", 33)); err == nil {
		t.Error("overlong parent code should fail")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}
