package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartnotes/smartnotes/internal/model"
)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user:sessions:"

	// DefaultSessionTTL applies when a non-positive TTL is requested.
	DefaultSessionTTL = 14 * 24 * time.Hour
)

// ErrSessionNotFound is returned when a session does not exist or has expired.
var ErrSessionNotFound = errors.New("session not found")

// CreateSession stores a session and indexes it under its user.
func (c *Cache) CreateSession(ctx context.Context, session *model.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if session.ExpiresAt.IsZero() || ttl <= 0 {
		ttl = DefaultSessionTTL
		session.ExpiresAt = time.Now().Add(ttl)
	}

	key := sessionKeyPrefix + session.ID
	userKey := userSessionKeyPrefix + session.UserID

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    session.UserID,
		"created_at": strconv.FormatInt(session.CreatedAt.UnixNano(), 10),
		"expires_at": strconv.FormatInt(session.ExpiresAt.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, userKey, session.ID)
	pipe.Expire(ctx, userKey, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// GetSession loads a session by ID.
// Returns ErrSessionNotFound if it is missing or expired.
func (c *Cache) GetSession(ctx context.Context, id string) (*model.Session, error) {
	result, err := c.client.HGetAll(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(result) == 0 || result["user_id"] == "" {
		return nil, ErrSessionNotFound
	}

	session := &model.Session{
		ID:        id,
		UserID:    result["user_id"],
		CreatedAt: parseUnixNano(result["created_at"]),
		ExpiresAt: parseUnixNano(result["expires_at"]),
	}
	if session.IsExpired() {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// DeleteSession removes a single session.
func (c *Cache) DeleteSession(ctx context.Context, id string) error {
	userID, err := c.client.HGet(ctx, sessionKeyPrefix+id, "user_id").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read session owner: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, sessionKeyPrefix+id)
	if userID != "" {
		pipe.SRem(ctx, userSessionKeyPrefix+userID, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteUserSessions removes every session belonging to userID.
func (c *Cache) DeleteUserSessions(ctx context.Context, userID string) error {
	userKey := userSessionKeyPrefix + userID

	ids, err := c.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKeyPrefix+id)
	}
	keys = append(keys, userKey)

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}

	return nil
}

func parseUnixNano(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, ts).UTC()
}
