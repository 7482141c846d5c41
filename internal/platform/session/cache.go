package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through layer in front of a Store. A cache hit undergoes
// exactly the same checks as a fresh database read, and an entry never
// outlives the session's own expiry, so the cache can serve stale data for
// at most its TTL after a rotation elsewhere invalidates it. Writes go
// through to the store and drop the cached entry.
type Cache struct {
	store Store
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCache(store Store, rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{store: store, rdb: rdb, ttl: ttl}
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

func (c *Cache) Get(ctx context.Context, userID int64) (*Session, error) {
	key := cacheKey(userID)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var s Session
		if json.Unmarshal(raw, &s) == nil {
			return &s, nil
		}
		// Unreadable entry: drop it and fall through to the store.
		c.rdb.Del(ctx, key)
	}

	s, err := c.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	ttl := c.ttl
	if remain := time.Until(s.ExpiresAt); remain < ttl {
		ttl = remain
	}
	if ttl > 0 {
		if raw, err := json.Marshal(s); err == nil {
			c.rdb.Set(ctx, key, raw, ttl)
		}
	}
	return s, nil
}

func (c *Cache) Put(ctx context.Context, s *Session) error {
	if err := c.store.Put(ctx, s); err != nil {
		return err
	}
	c.rdb.Del(ctx, cacheKey(s.UserID))
	return nil
}

func (c *Cache) Delete(ctx context.Context, userID int64) error {
	if err := c.store.Delete(ctx, userID); err != nil {
		return err
	}
	c.rdb.Del(ctx, cacheKey(userID))
	return nil
}
