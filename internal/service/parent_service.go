package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"familylink/internal/database"
	"familylink/internal/models"
	"familylink/internal/repository"
	"familylink/internal/security"
	"familylink/internal/validation"
)

// AddChildInput is the payload for a parent creating a child account
type AddChildInput struct {
	Username string
	Email    string
	Password string
}

// UpdateChildInput holds optional changes a parent may make to a child
type UpdateChildInput struct {
	Username *string
	Email    *string
	IsActive *bool
}

// ParentDashboard is the overview shown to a parent
type ParentDashboard struct {
	Parent     *models.User
	Children   []models.User
	ParentCode string
}

// ParentService implements operations available to parent accounts
type ParentService struct {
	db       *database.DB
	users    *repository.UserRepository
	sessions repository.SessionStore
}

// NewParentService creates a new parent service
func NewParentService(db *database.DB, users *repository.UserRepository, sessions repository.SessionStore) *ParentService {
	return &ParentService{db: db, users: users, sessions: sessions}
}

// GetParentCode returns the parent's code, assigning one if the account has none
func (s *ParentService) GetParentCode(ctx context.Context, parent models.ParentAccount) (string, error) {
	if code := parent.Code(); code != "" {
		return code, nil
	}
	return s.GenerateParentCode(ctx, parent)
}

// GenerateParentCode replaces the parent's code with a new unique one.
// The previous code stops resolving immediately.
func (s *ParentService) GenerateParentCode(ctx context.Context, parent models.ParentAccount) (string, error) {
	user := parent.User()
	var code string

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := s.users.WithTx(tx)
		var err error
		code, err = uniqueParentCode(ctx, users)
		if err != nil {
			return err
		}
		if err := users.SetParentCode(ctx, user.ID, code); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrCodeGeneration
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	user.ParentCode = &code
	log.Info().Int64("parent_id", user.ID).Msg("Parent code regenerated")
	return code, nil
}

// ListChildren returns the children linked to the parent
func (s *ParentService) ListChildren(ctx context.Context, parent models.ParentAccount) ([]models.User, error) {
	children, err := s.users.ListChildren(ctx, parent.User().ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return children, nil
}

// GetChild returns a child owned by the parent. Children of other parents
// are reported as not found.
func (s *ParentService) GetChild(ctx context.Context, parent models.ParentAccount, childID int64) (*models.User, error) {
	return s.ownedChild(ctx, s.users, parent, childID)
}

func (s *ParentService) ownedChild(ctx context.Context, users *repository.UserRepository, parent models.ParentAccount, childID int64) (*models.User, error) {
	child, err := users.GetUserByID(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil || !child.IsChild() || child.ParentID == nil || *child.ParentID != parent.User().ID {
		return nil, ErrChildNotFound
	}
	return child, nil
}

// AddChild creates a child account linked to the parent
func (s *ParentService) AddChild(ctx context.Context, parent models.ParentAccount, in AddChildInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := validation.NormalizeEmail(in.Email)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	parentID := parent.User().ID
	child := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleChild,
		ParentID:     &parentID,
		IsActive:     true,
	}

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := s.users.WithTx(tx)
		if err := checkIdentityFree(ctx, users, username, email, 0); err != nil {
			return err
		}
		return mapDuplicate(users.CreateUser(ctx, child))
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("parent_id", parentID).Int64("child_id", child.ID).Msg("Child account added")
	return child, nil
}

// UpdateChild changes a child's username, email or active flag.
// Deactivating a child revokes its sessions.
func (s *ParentService) UpdateChild(ctx context.Context, parent models.ParentAccount, childID int64, in UpdateChildInput) (*models.User, error) {
	var child *models.User

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := s.users.WithTx(tx)

		var err error
		child, err = s.ownedChild(ctx, users, parent, childID)
		if err != nil {
			return err
		}

		if err := applyProfile(child, ProfileInput{Username: in.Username, Email: in.Email}); err != nil {
			return err
		}
		if in.IsActive != nil {
			child.IsActive = *in.IsActive
		}

		if err := checkIdentityFree(ctx, users, child.Username, child.Email, child.ID); err != nil {
			return err
		}
		return mapDuplicate(users.UpdateUser(ctx, child))
	})
	if err != nil {
		return nil, err
	}

	if !child.IsActive {
		if err := s.sessions.DeleteUserSessions(ctx, child.ID); err != nil {
			log.Warn().Err(err).Int64("child_id", child.ID).Msg("Failed to revoke sessions of deactivated child")
		}
	}

	return child, nil
}

// RemoveChild unlinks a child from the parent. The child account is kept.
func (s *ParentService) RemoveChild(ctx context.Context, parent models.ParentAccount, childID int64) error {
	parentID := parent.User().ID

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		ok, err := s.users.WithTx(tx).UnlinkChild(ctx, parentID, childID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrChildNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Int64("parent_id", parentID).Int64("child_id", childID).Msg("Child unlinked")
	return nil
}

// UpdateProfile changes the parent's own username or email
func (s *ParentService) UpdateProfile(ctx context.Context, parent models.ParentAccount, in ProfileInput) (*models.User, error) {
	var updated *models.User
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		updated, err = updateProfile(ctx, s.users.WithTx(tx), parent.User().ID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Dashboard gathers the parent's profile, children and code
func (s *ParentService) Dashboard(ctx context.Context, parent models.ParentAccount) (*ParentDashboard, error) {
	code, err := s.GetParentCode(ctx, parent)
	if err != nil {
		return nil, err
	}
	children, err := s.ListChildren(ctx, parent)
	if err != nil {
		return nil, err
	}
	return &ParentDashboard{
		Parent:     parent.User(),
		Children:   children,
		ParentCode: code,
	}, nil
}
