package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// TaskListCache is a Redis-backed cache for serialized per-user task lists.
// Every backend failure degrades to the store: reads become misses, writes
// and invalidations are logged and dropped. A request never fails because
// the cache is down.
type TaskListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a TaskListCache over a Redis connection. Entries live for ttl
// unless invalidated first.
func New(addr, password string, db int, ttl time.Duration) *TaskListCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &TaskListCache{rdb: rdb, ttl: ttl}
}

// Key derives the cache key for a user's task list.
func Key(ownerID string) string {
	return "tasks:" + ownerID
}

// Get returns the cached payload for a user, if present.
func (c *TaskListCache) Get(ctx context.Context, ownerID string) ([]byte, bool) {
	payload, err := c.rdb.Get(ctx, Key(ownerID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("owner_id", ownerID).Msg("Cache read failed, falling through to store")
		}
		return nil, false
	}
	return payload, true
}

// Set stores a user's serialized task list with the configured TTL.
func (c *TaskListCache) Set(ctx context.Context, ownerID string, payload []byte) {
	if err := c.rdb.Set(ctx, Key(ownerID), payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID).Msg("Cache write failed")
	}
}

// Invalidate drops a user's cached task list. Called synchronously by every
// write to that user's tasks before the request completes.
func (c *TaskListCache) Invalidate(ctx context.Context, ownerID string) {
	if err := c.rdb.Del(ctx, Key(ownerID)).Err(); err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID).Msg("Cache invalidation failed, entry will age out by TTL")
	}
}

// Ping checks connectivity to the cache backend.
func (c *TaskListCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *TaskListCache) Close() error {
	return c.rdb.Close()
}
