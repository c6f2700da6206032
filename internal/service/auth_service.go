package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"familylink/internal/database"
	"familylink/internal/models"
	"familylink/internal/repository"
	"familylink/internal/security"
	"familylink/internal/validation"
)

// RegisterInput is the payload for creating an account
type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	Role       string
	ParentCode string
}

// LoginResult is returned on successful login
type LoginResult struct {
	User     *models.User
	Session  *models.Session
	Token    string
	Redirect string
}

// AuthService handles authentication business logic
type AuthService struct {
	db              *database.DB
	users           *repository.UserRepository
	sessions        repository.SessionStore
	tokens          *security.TokenManager
	notifier        Notifier
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(db *database.DB, users *repository.UserRepository, sessions repository.SessionStore, tokens *security.TokenManager, notifier Notifier, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		db:              db,
		users:           users,
		sessions:        sessions,
		tokens:          tokens,
		notifier:        notifier,
		sessionDuration: sessionDuration,
	}
}

// Register validates the input, creates the account and links a child to
// the parent owning its code. Parents receive a fresh parent code.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := validation.NormalizeEmail(in.Email)
	parentCode := strings.TrimSpace(in.ParentCode)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validation.ValidateRole(in.Role); err != nil {
		return nil, err
	}
	role := models.Role(in.Role)
	if role == models.RoleChild {
		if parentCode == "" {
			return nil, ErrParentCodeRequired
		}
		if err := validation.ValidateParentCode(parentCode); err != nil {
			return nil, err
		}
	}

	// Hash outside the transaction; bcrypt is slow
	passwordHash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
	}
	var parent *models.User

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := s.users.WithTx(tx)

		if err := checkIdentityFree(ctx, users, username, email, 0); err != nil {
			return err
		}

		switch role {
		case models.RoleParent:
			code, err := uniqueParentCode(ctx, users)
			if err != nil {
				return err
			}
			user.ParentCode = &code
		case models.RoleChild:
			p, err := users.GetParentByCode(ctx, parentCode)
			if err != nil {
				return fmt.Errorf("failed to look up parent code: %w", err)
			}
			if p == nil {
				return ErrInvalidParentCode
			}
			parent = p
			user.ParentID = &p.ID
		}

		return mapDuplicate(users.CreateUser(ctx, user))
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("User registered")
	s.notifyRegistered(ctx, user, parent)

	return user, nil
}

func (s *AuthService) notifyRegistered(ctx context.Context, user, parent *models.User) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendWelcomeEmail(ctx, user); err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to send welcome email")
	}
	if parent != nil {
		if err := s.notifier.NotifyChildLinked(ctx, parent, user); err != nil {
			log.Warn().Err(err).Int64("parent_id", parent.ID).Msg("Failed to notify parent of linked child")
		}
	}
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, newError(ErrValidation, "Email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	session := &models.Session{
		ID:        security.GenerateSessionID(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionDuration).UTC().Truncate(time.Second),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.tokens.Generate(user.ID, string(user.Role), session.ID, session.ExpiresAt)
	if err != nil {
		_ = s.sessions.DeleteSession(ctx, session.ID)
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &LoginResult{
		User:     user,
		Session:  session,
		Token:    token,
		Redirect: user.Role.DashboardPath(),
	}, nil
}

// Logout deletes the session. Unknown or empty IDs are not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// LogoutToken ends the session a signed token refers to. Tokens that do
// not verify are ignored.
func (s *AuthService) LogoutToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return s.Logout(ctx, claims.SessionID)
}

// CurrentIdentity resolves a session token to its user and session
func (s *AuthService) CurrentIdentity(ctx context.Context, token string) (*models.User, *models.Session, error) {
	if token == "" {
		return nil, nil, ErrSessionNotFound
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, ErrSessionNotFound
	}

	session, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.sessions.DeleteSession(ctx, session.ID)
		return nil, nil, ErrSessionExpired
	}

	if uid, err := claims.UserID(); err != nil || uid != session.UserID {
		return nil, nil, ErrSessionNotFound
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.IsActive {
		_ = s.sessions.DeleteSession(ctx, session.ID)
		return nil, nil, ErrSessionNotFound
	}

	return user, session, nil
}

// ValidateParentCode returns the parent owning code, or nil if none does
func (s *AuthService) ValidateParentCode(ctx context.Context, code string) (*models.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	parent, err := s.users.GetParentByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to validate parent code: %w", err)
	}
	return parent, nil
}

// CleanupExpiredSessions removes expired sessions from the store
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpiredSessions(ctx)
}
