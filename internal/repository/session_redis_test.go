package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"familylink/internal/models"
)

// Requires a reachable Redis; set REDIS_ADDR to run.
func TestRedisSessionStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	store, err := NewRedisSessionStore(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("NewRedisSessionStore() error = %v", err)
	}
	defer store.Close()

	userID := time.Now().UnixNano()
	s1 := &models.Session{ID: "redis-test-1", UserID: userID, ExpiresAt: time.Now().Add(time.Minute)}
	s2 := &models.Session{ID: "redis-test-2", UserID: userID, ExpiresAt: time.Now().Add(time.Minute)}
	for _, s := range []*models.Session{s1, s2} {
		if err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
	}

	got, err := store.GetSession(ctx, s1.ID)
	if err != nil || got == nil || got.UserID != userID {
		t.Fatalf("GetSession() = %+v, %v", got, err)
	}

	if err := store.DeleteSession(ctx, s1.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if got, _ := store.GetSession(ctx, s1.ID); got != nil {
		t.Error("deleted session still present")
	}

	if err := store.DeleteUserSessions(ctx, userID); err != nil {
		t.Fatalf("DeleteUserSessions() error = %v", err)
	}
	if got, _ := store.GetSession(ctx, s2.ID); got != nil {
		t.Error("user session survived DeleteUserSessions")
	}

	if err := store.CreateSession(ctx, &models.Session{ID: "redis-test-3", UserID: userID, ExpiresAt: time.Now().Add(-time.Second)}); err == nil {
		t.Error("expected an already expired session to be rejected")
	}
}
