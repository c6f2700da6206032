package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"users", "sessions", "migrations"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running migrations twice is a no-op
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second RunMigrations() failed: %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 2 {
		t.Errorf("migrations recorded = %d, want 2", count)
	}
}

func TestWithTx(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	ctx := context.Background()

	insert := "INSERT INTO users (username, email, password_hash, role, parent_code) VALUES (?, ?, ?, ?, ?)"

	t.Run("commit", func(t *testing.T) {
		var id int64
		err := db.WithTx(ctx, func(tx *Tx) error {
			var err error
			id, err = tx.ExecReturningID(ctx, insert, "alice", "alice@example.com", "hash", "parent", "AAAA1111")
			return err
		})
		if err != nil {
			t.Fatalf("WithTx() error = %v", err)
		}
		if id == 0 {
			t.Error("expected a generated id")
		}
	})

	t.Run("rollback on error", func(t *testing.T) {
		sentinel := errors.New("abort")
		err := db.WithTx(ctx, func(tx *Tx) error {
			if _, err := tx.ExecContext(ctx, insert, "bob", "bob@example.com", "hash", "parent", "BBBB2222"); err != nil {
				return err
			}
			return sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Fatalf("WithTx() error = %v, want %v", err, sentinel)
		}

		var count int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", "bob").Scan(&count)
		if count != 0 {
			t.Error("rolled back insert is visible")
		}
	})

	t.Run("unique violation detected", func(t *testing.T) {
		_, err := db.ExecContext(ctx, insert, "alice2", "alice@example.com", "hash", "parent", "CCCC3333")
		if err == nil {
			t.Fatal("expected duplicate email to fail")
		}
		if !db.IsUniqueViolation(err) {
			t.Errorf("IsUniqueViolation(%v) = false, want true", err)
		}
	})

	t.Run("role check constraint", func(t *testing.T) {
		_, err := db.ExecContext(ctx, insert, "kid", "kid@example.com", "hash", "child", "DDDD4444")
		if err == nil {
			t.Error("expected child row with parent_code to be rejected")
		}
	})
}
