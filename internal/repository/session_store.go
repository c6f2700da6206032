package repository

import (
	"context"

	"familylink/internal/models"
)

// SessionStore persists server-side sessions. GetSession returns nil, nil
// for unknown IDs.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteUserSessions(ctx context.Context, userID int64) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
