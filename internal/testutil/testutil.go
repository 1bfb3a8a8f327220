// Package testutil holds shared helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/smartnotes/smartnotes/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// TruncateAll empties every application table. Migrations must already be applied.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "TRUNCATE notes, users CASCADE"); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a non-staff user with a unique username.
// The password hash is a placeholder and will not verify.
func NewTestUser(t testing.TB, prefix string) *model.User {
	t.Helper()
	return &model.User{
		ID:           ulid.Make().String(),
		Username:     UniqueName(prefix),
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestNote creates a private note owned by userID.
func NewTestNote(t testing.TB, userID string) *model.Note {
	t.Helper()
	id := ulid.Make().String()
	return &model.Note{
		ID:        id,
		Title:     "django note " + id[len(id)-6:],
		Text:      "body of " + id,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		UserID:    userID,
	}
}

// UniqueName generates a unique, username-safe name for tests.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
