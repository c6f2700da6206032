package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"familylink/internal/credentials"
	"familylink/internal/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerParent(t, "alice")
	code := alice.Code()
	if len(code) != credentials.ParentCodeLength {
		t.Fatalf("parent code %q has length %d", code, len(code))
	}

	bob := env.registerChild(t, "bob", code)
	if id, linked := bob.ParentID(); !linked || id != alice.User().ID {
		t.Errorf("bob parent = %d, %v, want %d", id, linked, alice.User().ID)
	}
	if bob.User().ParentCode != nil {
		t.Error("child must not receive a parent code")
	}

	if len(env.notifier.linked) != 1 || env.notifier.linked[0] != [2]string{"alice", "bob"} {
		t.Errorf("linked notifications = %v", env.notifier.linked)
	}

	tests := []struct {
		name string
		in   RegisterInput
		kind error
		want error
	}{
		{
			name: "duplicate email as parent",
			in:   RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "password123", Role: "parent"},
			kind: ErrConflict,
			want: ErrEmailTaken,
		},
		{
			name: "duplicate email as child",
			in:   RegisterInput{Username: "alice3", Email: "ALICE@example.com", Password: "password123", Role: "child", ParentCode: code},
			kind: ErrConflict,
			want: ErrEmailTaken,
		},
		{
			name: "duplicate username",
			in:   RegisterInput{Username: "bob", Email: "other@example.com", Password: "password123", Role: "parent"},
			kind: ErrConflict,
			want: ErrUsernameTaken,
		},
		{
			name: "unknown parent code",
			in:   RegisterInput{Username: "carl", Email: "carl@example.com", Password: "password123", Role: "child", ParentCode: "NOPE0000"},
			kind: ErrValidation,
			want: ErrInvalidParentCode,
		},
		{
			name: "missing parent code",
			in:   RegisterInput{Username: "carl", Email: "carl@example.com", Password: "password123", Role: "child"},
			kind: ErrValidation,
			want: ErrParentCodeRequired,
		},
		{
			name: "invalid role",
			in:   RegisterInput{Username: "carl", Email: "carl@example.com", Password: "password123", Role: "admin"},
			kind: ErrValidation,
		},
		{
			name: "short password",
			in:   RegisterInput{Username: "carl", Email: "carl@example.com", Password: "123", Role: "parent"},
			kind: ErrValidation,
		},
		{
			name: "password longer than bcrypt accepts",
			in:   RegisterInput{Username: "carl", Email: "carl@example.com", Password: strings.Repeat("x", 80), Role: "parent"},
			kind: ErrValidation,
		},
		{
			name: "missing username",
			in:   RegisterInput{Email: "carl@example.com", Password: "password123", Role: "parent"},
			kind: ErrValidation,
		},
		{
			name: "bad email",
			in:   RegisterInput{Username: "carl", Email: "carl", Password: "password123", Role: "parent"},
			kind: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := env.countRows(t, "SELECT COUNT(*) FROM users")
			_, err := env.auth.Register(ctx, tt.in)
			assertKind(t, err, tt.kind)
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Register() error = %v, want %v", err, tt.want)
			}
			if after := env.countRows(t, "SELECT COUNT(*) FROM users"); after != before {
				t.Errorf("failed registration changed user count from %d to %d", before, after)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerParent(t, "alice")
	env.registerChild(t, "bob", alice.Code())

	t.Run("role specific redirect", func(t *testing.T) {
		for email, want := range map[string]string{
			"alice@example.com": "/parent/dashboard",
			"bob@example.com":   "/child/dashboard",
		} {
			res, err := env.auth.Login(ctx, email, "password123")
			if err != nil {
				t.Fatalf("Login(%s) error = %v", email, err)
			}
			if res.Redirect != want {
				t.Errorf("Login(%s) redirect = %q, want %q", email, res.Redirect, want)
			}
			if res.Token == "" || res.Session == nil {
				t.Errorf("Login(%s) returned no session", email)
			}
		}
	})

	t.Run("wrong password creates no session", func(t *testing.T) {
		before := env.countRows(t, "SELECT COUNT(*) FROM sessions")
		_, err := env.auth.Login(ctx, "alice@example.com", "wrong-password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
		}
		assertKind(t, err, ErrUnauthenticated)
		if after := env.countRows(t, "SELECT COUNT(*) FROM sessions"); after != before {
			t.Errorf("session count changed from %d to %d", before, after)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "nobody@example.com", "password123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "", "")
		assertKind(t, err, ErrValidation)
	})

	t.Run("inactive account", func(t *testing.T) {
		u, _ := env.users.GetUserByEmail(ctx, "bob@example.com")
		u.IsActive = false
		if err := env.users.UpdateUser(ctx, u); err != nil {
			t.Fatalf("UpdateUser() error = %v", err)
		}
		_, err := env.auth.Login(ctx, "bob@example.com", "password123")
		if !errors.Is(err, ErrAccountInactive) {
			t.Errorf("Login() error = %v, want ErrAccountInactive", err)
		}
	})
}

func TestCurrentIdentityAndLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerParent(t, "alice")
	res, err := env.auth.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	user, session, err := env.auth.CurrentIdentity(ctx, res.Token)
	if err != nil {
		t.Fatalf("CurrentIdentity() error = %v", err)
	}
	if user.Username != "alice" || session.ID != res.Session.ID {
		t.Errorf("CurrentIdentity() = %s, %s", user.Username, session.ID)
	}

	if _, _, err := env.auth.CurrentIdentity(ctx, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("CurrentIdentity(\"\") error = %v", err)
	}
	if _, _, err := env.auth.CurrentIdentity(ctx, "garbage"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("CurrentIdentity(garbage) error = %v", err)
	}

	if err := env.auth.Logout(ctx, session.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, _, err := env.auth.CurrentIdentity(ctx, res.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("token still valid after logout: %v", err)
	}

	// idempotent
	if err := env.auth.Logout(ctx, session.ID); err != nil {
		t.Errorf("second Logout() error = %v", err)
	}
	if err := env.auth.Logout(ctx, ""); err != nil {
		t.Errorf("Logout(\"\") error = %v", err)
	}
}

func TestLogoutToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerParent(t, "alice")
	res, err := env.auth.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	for _, token := range []string{"", "not-a-token"} {
		if err := env.auth.LogoutToken(ctx, token); err != nil {
			t.Errorf("LogoutToken(%q) error = %v", token, err)
		}
	}
	if _, _, err := env.auth.CurrentIdentity(ctx, res.Token); err != nil {
		t.Fatalf("unrelated logout ended the session: %v", err)
	}

	if err := env.auth.LogoutToken(ctx, res.Token); err != nil {
		t.Fatalf("LogoutToken() error = %v", err)
	}
	if n := env.countRows(t, "SELECT COUNT(*) FROM sessions WHERE id = ?", res.Session.ID); n != 0 {
		t.Error("session row survived logout")
	}
	if err := env.auth.LogoutToken(ctx, res.Token); err != nil {
		t.Errorf("repeated LogoutToken() error = %v", err)
	}
}

func TestExpiredSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerParent(t, "alice")
	stale := &models.Session{ID: "stale", UserID: alice.User().ID, ExpiresAt: time.Now().Add(-time.Minute)}
	if err := env.sessions.CreateSession(ctx, stale); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	token, err := env.auth.tokens.Generate(alice.User().ID, "parent", "stale", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, _, err := env.auth.CurrentIdentity(ctx, token); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("CurrentIdentity() error = %v, want ErrSessionExpired", err)
	}
	if n := env.countRows(t, "SELECT COUNT(*) FROM sessions WHERE id = ?", "stale"); n != 0 {
		t.Error("expired session was not deleted on sight")
	}

	env.sessions.CreateSession(ctx, &models.Session{ID: "stale2", UserID: alice.User().ID, ExpiresAt: time.Now().Add(-time.Minute)})
	n, err := env.auth.CleanupExpiredSessions(ctx)
	if err != nil || n != 1 {
		t.Errorf("CleanupExpiredSessions() = %d, %v, want 1", n, err)
	}
}

func TestValidateParentCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerParent(t, "alice")

	parent, err := env.auth.ValidateParentCode(ctx, alice.Code())
	if err != nil || parent == nil || parent.ID != alice.User().ID {
		t.Errorf("ValidateParentCode(valid) = %v, %v", parent, err)
	}
	parent, err = env.auth.ValidateParentCode(ctx, "ZZZZZZZZ")
	if err != nil || parent != nil {
		t.Errorf("ValidateParentCode(unknown) = %v, %v", parent, err)
	}
	parent, err = env.auth.ValidateParentCode(ctx, "  ")
	if err != nil || parent != nil {
		t.Errorf("ValidateParentCode(blank) = %v, %v", parent, err)
	}
}
