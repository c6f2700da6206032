package service

import (
	"context"
	"fmt"

	"familylink/internal/database"
	"familylink/internal/models"
	"familylink/internal/repository"
)

// ChildProfile is a child together with its linked parent, if any
type ChildProfile struct {
	Child  *models.User
	Parent *models.User
}

// ChildService implements operations available to child accounts
type ChildService struct {
	db    *database.DB
	users *repository.UserRepository
}

// NewChildService creates a new child service
func NewChildService(db *database.DB, users *repository.UserRepository) *ChildService {
	return &ChildService{db: db, users: users}
}

// GetProfile returns the child and its parent
func (s *ChildService) GetProfile(ctx context.Context, child models.ChildAccount) (*ChildProfile, error) {
	profile := &ChildProfile{Child: child.User()}

	parentID, linked := child.ParentID()
	if !linked {
		return profile, nil
	}

	parent, err := s.users.GetUserByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	if parent != nil && parent.IsParent() {
		profile.Parent = parent
	}
	return profile, nil
}

// UpdateProfile changes the child's own username or email
func (s *ChildService) UpdateProfile(ctx context.Context, child models.ChildAccount, in ProfileInput) (*models.User, error) {
	var updated *models.User
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		updated, err = updateProfile(ctx, s.users.WithTx(tx), child.User().ID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetParent returns the linked parent or ErrNoParent
func (s *ChildService) GetParent(ctx context.Context, child models.ChildAccount) (*models.User, error) {
	profile, err := s.GetProfile(ctx, child)
	if err != nil {
		return nil, err
	}
	if profile.Parent == nil {
		return nil, ErrNoParent
	}
	return profile.Parent, nil
}

// Dashboard is the child's overview: itself and its parent, if linked
func (s *ChildService) Dashboard(ctx context.Context, child models.ChildAccount) (*ChildProfile, error) {
	return s.GetProfile(ctx, child)
}
