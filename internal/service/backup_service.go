package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"familylink/internal/database"
	"familylink/internal/models"
	"familylink/internal/repository"
)

const backupVersion = "1.0"

// BackupData is the complete account export
type BackupData struct {
	Version      string       `json:"version"`
	ExportedAt   time.Time    `json:"exported_at"`
	DatabaseType string       `json:"database_type"`
	Users        []UserBackup `json:"users"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	ParentCode   *string   `json:"parent_code"`
	ParentID     *int64    `json:"parent_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BackupService exports and restores accounts
type BackupService struct {
	db    *database.DB
	users *repository.UserRepository
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, users *repository.UserRepository) *BackupService {
	return &BackupService{db: db, users: users}
}

// ExportToWriter writes every account as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) (*BackupData, error) {
	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}

	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.MigrationsSubdir(),
		Users:        make([]UserBackup, 0, len(users)),
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			Role:         string(u.Role),
			ParentCode:   u.ParentCode,
			ParentID:     u.ParentID,
			IsActive:     u.IsActive,
			CreatedAt:    u.CreatedAt,
			UpdatedAt:    u.UpdatedAt,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Info().Int("users", len(backup.Users)).Msg("Database exported")
	return backup, nil
}

// ImportFromReader restores accounts from a backup in one transaction.
// With clear set, existing users (and their sessions) are removed first.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader, clear bool) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}

	if err := validateBackup(&backup); err != nil {
		return nil, err
	}

	log.Info().Str("version", backup.Version).Time("exported_at", backup.ExportedAt).Msg("Importing backup")

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := s.users.WithTx(tx)

		if clear {
			if _, err := tx.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
				return fmt.Errorf("failed to clear sessions: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "UPDATE users SET parent_id = NULL"); err != nil {
				return fmt.Errorf("failed to clear parent links: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM users"); err != nil {
				return fmt.Errorf("failed to clear users: %w", err)
			}
		}

		// Insert unlinked first so parent rows exist before children reference them
		for _, ub := range backup.Users {
			u := ub.toUser()
			u.ParentID = nil
			if err := users.InsertUserWithID(ctx, u); err != nil {
				return err
			}
		}
		for _, ub := range backup.Users {
			if ub.ParentID == nil {
				continue
			}
			if err := users.SetParentID(ctx, ub.ID, ub.ParentID); err != nil {
				return err
			}
		}

		return users.SyncIDSequence(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import users: %w", err)
	}

	log.Info().Int("users", len(backup.Users)).Msg("Database import completed")
	return &backup, nil
}

func (ub UserBackup) toUser() *models.User {
	return &models.User{
		ID:           ub.ID,
		Username:     ub.Username,
		Email:        ub.Email,
		PasswordHash: ub.PasswordHash,
		Role:         models.Role(ub.Role),
		ParentCode:   ub.ParentCode,
		ParentID:     ub.ParentID,
		IsActive:     ub.IsActive,
		CreatedAt:    ub.CreatedAt,
		UpdatedAt:    ub.UpdatedAt,
	}
}

// validateBackup checks the role invariants before anything is written
func validateBackup(b *BackupData) error {
	if b.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %q", b.Version)
	}

	roles := make(map[int64]models.Role, len(b.Users))
	for _, u := range b.Users {
		role := models.Role(u.Role)
		if !role.Valid() {
			return fmt.Errorf("user %d has invalid role %q", u.ID, u.Role)
		}
		if _, dup := roles[u.ID]; dup {
			return fmt.Errorf("duplicate user id %d", u.ID)
		}
		roles[u.ID] = role
	}

	for _, u := range b.Users {
		switch models.Role(u.Role) {
		case models.RoleParent:
			if u.ParentID != nil {
				return fmt.Errorf("parent %d must not have a parent", u.ID)
			}
		case models.RoleChild:
			if u.ParentCode != nil {
				return fmt.Errorf("child %d must not have a parent code", u.ID)
			}
			if u.ParentID != nil && roles[*u.ParentID] != models.RoleParent {
				return fmt.Errorf("child %d references %d which is not a parent", u.ID, *u.ParentID)
			}
		}
	}
	return nil
}
