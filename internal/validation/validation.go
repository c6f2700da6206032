package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	UsernameMinLength   = 3
	UsernameMaxLength   = 64
	PasswordMinLength   = 6
	PasswordMaxLength   = 72 // bcrypt input limit, in bytes
	EmailMaxLength      = 120
	ParentCodeMaxLength = 32
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]+$`)
)

// ValidationError represents a validation error on a single input field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if len(email) > EmailMaxLength {
		return ValidationError{Field: "email", Message: fmt.Sprintf("email must be at most %d characters", EmailMaxLength)}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < PasswordMinLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters long", PasswordMinLength)}
	}
	if len(password) > PasswordMaxLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at most %d bytes long", PasswordMaxLength)}
	}
	return nil
}

// ValidateUsername checks length and allowed characters
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	n := utf8.RuneCountInString(username)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return ValidationError{Field: "username", Message: fmt.Sprintf("username must be between %d and %d characters", UsernameMinLength, UsernameMaxLength)}
	}
	if !usernameRegex.MatchString(username) {
		return ValidationError{Field: "username", Message: "username may only contain letters, digits, '.', '_' and '-'"}
	}
	return nil
}

// ValidateRole checks the role is parent or child
func ValidateRole(role string) error {
	switch role {
	case "":
		return ValidationError{Field: "role", Message: "role is required"}
	case "parent", "child":
		return nil
	default:
		return ValidationError{Field: "role", Message: "role must be 'parent' or 'child'"}
	}
}

// ValidateParentCode checks the shape of a parent code supplied by a client
func ValidateParentCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ValidationError{Field: "parent_code", Message: "Parent code is required for child registration"}
	}
	if len(code) > ParentCodeMaxLength {
		return ValidationError{Field: "parent_code", Message: fmt.Sprintf("parent code must be at most %d characters", ParentCodeMaxLength)}
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
