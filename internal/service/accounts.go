package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"familylink/internal/credentials"
	"familylink/internal/models"
	"familylink/internal/repository"
	"familylink/internal/validation"
)

const maxCodeAttempts = 10

// ProfileInput holds optional profile changes; nil fields are left unchanged
type ProfileInput struct {
	Username *string
	Email    *string
}

// uniqueParentCode draws codes until one is unused
func uniqueParentCode(ctx context.Context, users *repository.UserRepository) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := credentials.GenerateParentCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate parent code: %w", err)
		}
		taken, err := users.ParentCodeTaken(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check parent code uniqueness: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeGeneration
}

// checkIdentityFree returns a conflict error when username or email belongs to
// a user other than selfID
func checkIdentityFree(ctx context.Context, users *repository.UserRepository, username, email string, selfID int64) error {
	taken, err := users.UsernameTaken(ctx, username, selfID)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return ErrUsernameTaken
	}

	taken, err = users.EmailTaken(ctx, email, selfID)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

// applyProfile validates the requested changes and writes them onto user
func applyProfile(user *models.User, in ProfileInput) error {
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return err
		}
		user.Username = username
	}
	if in.Email != nil {
		if err := validation.ValidateEmail(*in.Email); err != nil {
			return err
		}
		user.Email = validation.NormalizeEmail(*in.Email)
	}
	return nil
}

// updateProfile applies in to the stored copy of userID inside the caller's transaction
func updateProfile(ctx context.Context, users *repository.UserRepository, userID int64, in ProfileInput) (*models.User, error) {
	user, err := users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := applyProfile(user, in); err != nil {
		return nil, err
	}
	if err := checkIdentityFree(ctx, users, user.Username, user.Email, user.ID); err != nil {
		return nil, err
	}
	if err := users.UpdateUser(ctx, user); err != nil {
		return nil, mapDuplicate(err)
	}
	return user, nil
}

// ErrAccountExists covers unique violations caught by the store after the pre-checks passed
var ErrAccountExists = newError(ErrConflict, "Username or email already exists")

func mapDuplicate(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrAccountExists
	}
	return err
}
