// Package cache provides a TTL-wrapped JSON cache on Redis. Reads are
// best-effort: any storage or decode failure degrades to a miss. Writes
// propagate errors to the caller.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Entry is the stored envelope. ExpiresAt is authoritative for reads;
// the Redis-level TTL set on write is a redundant backstop.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	CachedAt  time.Time       `json:"cachedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

type Cache struct {
	rdb redis.Cmdable
}

func New(rdb redis.Cmdable) *Cache {
	return &Cache{rdb: rdb}
}

// Get returns the entry stored under key, or nil on a miss. An entry
// past its expiry is deleted and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
		return nil, nil
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		log.Error().Err(err).Str("key", key).Msg("cache entry corrupt, treating as miss")
		return nil, nil
	}

	if !entry.ExpiresAt.After(time.Now()) {
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to delete expired cache entry")
		}
		return nil, nil
	}

	return &entry, nil
}

// Set stores data under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, data any, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	now := time.Now()
	entry := Entry{
		Data:      raw,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, payload, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// ClearByPrefix deletes every key matching prefix, paging through the
// keyspace with a SCAN cursor, and returns the number deleted. An empty
// prefix clears everything.
func (c *Cache) ClearByPrefix(ctx context.Context, prefix string) (int, error) {
	deleted := 0
	var cursor uint64

	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return deleted, err
		}

		for _, key := range keys {
			if err := c.rdb.Del(ctx, key).Err(); err != nil {
				return deleted, err
			}
			deleted++
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}
