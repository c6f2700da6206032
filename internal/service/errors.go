package service

import (
	"errors"

	"familylink/internal/validation"
)

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
)

// Error is a client-safe service error carrying its kind
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrUsernameTaken      = newError(ErrConflict, "Username already exists")
	ErrEmailTaken         = newError(ErrConflict, "Email already registered")
	ErrInvalidCredentials = newError(ErrUnauthenticated, "Invalid email or password")
	ErrSessionNotFound    = newError(ErrUnauthenticated, "Authentication required")
	ErrSessionExpired     = newError(ErrUnauthenticated, "Session expired")
	ErrAccountInactive    = newError(ErrForbidden, "Account is deactivated")
	ErrParentCodeRequired = newError(ErrValidation, "Parent code is required for child registration")
	ErrInvalidParentCode  = newError(ErrValidation, "Invalid parent code")
	ErrInvalidRole        = newError(ErrValidation, "Role must be 'parent' or 'child'")
	ErrParentOnly         = newError(ErrForbidden, "This endpoint is only accessible to parent accounts")
	ErrChildOnly          = newError(ErrForbidden, "This endpoint is only accessible to child accounts")
	ErrChildNotFound      = newError(ErrNotFound, "Child not found or not associated with this parent")
	ErrNoParent           = newError(ErrNotFound, "No parent associated with this account")
	ErrUserNotFound       = newError(ErrNotFound, "User not found")
	ErrCodeGeneration     = errors.New("could not generate a unique parent code")
)

// KindOf classifies err into one of the error kinds, or nil for unexpected errors
func KindOf(err error) error {
	var verr validation.ValidationError
	if errors.As(err, &verr) {
		return ErrValidation
	}
	for _, kind := range []error{ErrValidation, ErrConflict, ErrUnauthenticated, ErrForbidden, ErrNotFound} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// MsgUnexpected is shown to clients in place of unexpected errors
const MsgUnexpected = "An unexpected error occurred"

// PublicMessage returns the message safe to show a client for err
func PublicMessage(err error) string {
	var verr validation.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Message
	}
	return MsgUnexpected
}
