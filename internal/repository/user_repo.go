package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"familylink/internal/database"
	"familylink/internal/models"
)

// ErrDuplicate is returned when an insert or update hits a unique constraint
var ErrDuplicate = errors.New("duplicate value violates unique constraint")

const userColumns = `id, username, email, password_hash, role, parent_code, parent_id, is_active, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to the transaction
func (r *UserRepository) WithTx(tx *database.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user       models.User
		role       string
		parentCode sql.NullString
		parentID   sql.NullInt64
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&role,
		&parentCode,
		&parentID,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = models.Role(role)
	if parentCode.Valid {
		code := parentCode.String
		user.ParentCode = &code
	}
	if parentID.Valid {
		id := parentID.Int64
		user.ParentID = &id
	}
	return &user, nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, args ...any) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + where
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) getMany(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// CreateUser inserts a new user and fills in its ID and timestamps
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO users (username, email, password_hash, role, parent_code, parent_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		nullString(user.ParentCode),
		nullInt64(user.ParentID),
		user.IsActive,
		now,
		now,
	)
	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = ?", email)
}

// GetParentByCode retrieves the parent owning code, if any
func (r *UserRepository) GetParentByCode(ctx context.Context, code string) (*models.User, error) {
	return r.getOne(ctx, "parent_code = ? AND role = ?", code, string(models.RoleParent))
}

// UsernameTaken reports whether another user (not excludeID) has the username
func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	return r.exists(ctx, "username = ? AND id <> ?", username, excludeID)
}

// EmailTaken reports whether another user (not excludeID) has the email
func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, "email = ? AND id <> ?", email, excludeID)
}

// ParentCodeTaken reports whether any user holds the code
func (r *UserRepository) ParentCodeTaken(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, "parent_code = ?", code)
}

func (r *UserRepository) exists(ctx context.Context, where string, args ...any) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

// ListChildren returns the children linked to parentID, oldest first
func (r *UserRepository) ListChildren(ctx context.Context, parentID int64) ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE parent_id = ? AND role = ? ORDER BY created_at, id"
	return r.getMany(ctx, query, parentID, string(models.RoleChild))
}

// GetAllUsers returns every user ordered by ID
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	return r.getMany(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
}

// UpdateUser persists username, email and active flag
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	query := `
		UPDATE users
		SET username = ?, email = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.IsActive, now, user.ID)
	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	user.UpdatedAt = now
	return nil
}

// SetParentCode replaces a parent's code
func (r *UserRepository) SetParentCode(ctx context.Context, parentID int64, code string) error {
	query := "UPDATE users SET parent_code = ?, updated_at = ? WHERE id = ? AND role = ?"
	_, err := r.db.ExecContext(ctx, query, code, time.Now().UTC(), parentID, string(models.RoleParent))
	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to set parent code: %w", err)
	}
	return nil
}

// SetParentID links a child to parentID, or unlinks it when parentID is nil
func (r *UserRepository) SetParentID(ctx context.Context, childID int64, parentID *int64) error {
	query := "UPDATE users SET parent_id = ?, updated_at = ? WHERE id = ? AND role = ?"
	_, err := r.db.ExecContext(ctx, query, nullInt64(parentID), time.Now().UTC(), childID, string(models.RoleChild))
	if err != nil {
		return fmt.Errorf("failed to set parent: %w", err)
	}
	return nil
}

// UnlinkChild clears parent_id for a child owned by parentID.
// It returns false when no such child exists.
func (r *UserRepository) UnlinkChild(ctx context.Context, parentID, childID int64) (bool, error) {
	query := "UPDATE users SET parent_id = NULL, updated_at = ? WHERE id = ? AND parent_id = ? AND role = ?"
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), childID, parentID, string(models.RoleChild))
	if err != nil {
		return false, fmt.Errorf("failed to unlink child: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to unlink child: %w", err)
	}
	return n > 0, nil
}

// InsertUserWithID inserts a user keeping its ID and timestamps. Used by restore.
func (r *UserRepository) InsertUserWithID(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, role, parent_code, parent_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		nullString(user.ParentCode),
		nullInt64(user.ParentID),
		user.IsActive,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user %d: %w", user.ID, err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

// SyncIDSequence advances the PostgreSQL id sequence past rows inserted with explicit IDs.
// Other dialects track this automatically.
func (r *UserRepository) SyncIDSequence(ctx context.Context) error {
	if _, ok := r.db.GetDialect().(*database.PostgresDialect); !ok {
		return nil
	}
	query := "SELECT setval(pg_get_serial_sequence('users', 'id'), COALESCE(MAX(id), 1)) FROM users"
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to sync id sequence: %w", err)
	}
	return nil
}
