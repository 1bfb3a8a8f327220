package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartnotes/smartnotes/internal/model"
)

// Cache key prefixes and TTLs.
const (
	publicNoteKeyPrefix  = "note:public:"
	negCacheKeySuffix    = ":neg"
	invalidatedKeySuffix = ":inv"

	// DefaultPublicNoteTTL is the TTL for cached public notes.
	DefaultPublicNoteTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = time.Minute

	// InvalidationGuardTTL is how long fills are refused after an
	// invalidation. It must outlast the slowest database read feeding a fill.
	InvalidationGuardTTL = 15 * time.Second
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// fillPublic writes the note hash unless the note was invalidated recently.
// KEYS: note, negative, guard. ARGV: ttl ms, then field/value pairs.
var fillPublic = redis.NewScript(`
if redis.call('EXISTS', KEYS[3]) == 1 then
	return 0
end
redis.call('DEL', KEYS[1], KEYS[2])
redis.call('HSET', KEYS[1], unpack(ARGV, 2))
redis.call('PEXPIRE', KEYS[1], ARGV[1])
return 1
`)

// fillNegative records a negative entry unless the note was invalidated recently.
// KEYS: negative, guard. ARGV: ttl ms.
var fillNegative = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end
redis.call('SET', KEYS[1], '', 'PX', ARGV[1])
return 1
`)

// GetPublicNote retrieves a public note from cache.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetPublicNote(ctx context.Context, id string) (*model.Note, error) {
	var cached model.CachedNote
	cmd := c.client.HGetAll(ctx, publicNoteKeyPrefix+id)
	if err := cmd.Err(); err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(cmd.Val()) == 0 {
		return nil, ErrCacheMiss
	}
	if err := cmd.Scan(&cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached note: %w", err)
	}

	note := cached.ToNote(id)
	if !note.IsPublic {
		return nil, ErrCacheMiss
	}
	return note, nil
}

// SetPublicNote caches a public note read from the database and clears any
// negative entry. The write is skipped while an invalidation guard for the
// note is live, since the read may predate the change that invalidated it.
func (c *Cache) SetPublicNote(ctx context.Context, note *model.Note, ttl time.Duration) error {
	if !note.IsPublic {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultPublicNoteTTL
	}

	key := publicNoteKeyPrefix + note.ID
	cached := note.ToCachedNote()

	err := fillPublic.Run(ctx, c.client,
		[]string{key, key + negCacheKeySuffix, key + invalidatedKeySuffix},
		ttl.Milliseconds(),
		"title", cached.Title,
		"text", cached.Text,
		"user_id", cached.UserID,
		"is_public", cached.IsPublic,
		"created_at", cached.CreatedAt,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to cache note: %w", err)
	}

	return nil
}

// DeletePublicNote drops a note and its negative entry and refuses fills
// for InvalidationGuardTTL.
func (c *Cache) DeletePublicNote(ctx context.Context, id string) error {
	key := publicNoteKeyPrefix + id

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key+invalidatedKeySuffix, "", InvalidationGuardTTL)
		pipe.Del(ctx, key, key+negCacheKeySuffix)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete note from cache: %w", err)
	}

	return nil
}

// IsPublicNoteNegativelyCached checks if a note ID is known to be missing or private.
func (c *Cache) IsPublicNoteNegativelyCached(ctx context.Context, id string) (bool, error) {
	exists, err := c.client.Exists(ctx, publicNoteKeyPrefix+id+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetPublicNoteNegative marks a note ID as not publicly available, unless an
// invalidation guard is live.
func (c *Cache) SetPublicNoteNegative(ctx context.Context, id string) error {
	key := publicNoteKeyPrefix + id

	err := fillNegative.Run(ctx, c.client,
		[]string{key + negCacheKeySuffix, key + invalidatedKeySuffix},
		NegativeCacheTTL.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
