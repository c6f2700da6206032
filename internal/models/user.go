package models

import "time"

// Role discriminates the two kinds of account stored in the users table
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleParent || r == RoleChild
}

// DashboardPath is the post-login landing page for the role
func (r Role) DashboardPath() string {
	return "/" + string(r) + "/dashboard"
}

// User is a row of the users table. Parents carry a ParentCode, children
// may carry a ParentID pointing at a parent row.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	ParentCode   *string
	ParentID     *int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsParent reports whether the user has the parent role
func (u *User) IsParent() bool {
	return u.Role == RoleParent
}

// IsChild reports whether the user has the child role
func (u *User) IsChild() bool {
	return u.Role == RoleChild
}

// UserBasic is the minimal public representation of a user
type UserBasic struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// UserFull is the public representation returned for profiles
type UserFull struct {
	UserBasic
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	ParentID   *int64    `json:"parent_id,omitempty"`
	ParentCode string    `json:"parent_code,omitempty"`
}

// Basic returns the non-sensitive basic representation
func (u *User) Basic() UserBasic {
	return UserBasic{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// Full returns the non-sensitive full representation
func (u *User) Full() UserFull {
	full := UserFull{
		UserBasic: u.Basic(),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	switch u.Role {
	case RoleParent:
		if u.ParentCode != nil {
			full.ParentCode = *u.ParentCode
		}
	case RoleChild:
		full.ParentID = u.ParentID
	}
	return full
}

// Session represents an authenticated session
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
