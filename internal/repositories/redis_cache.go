package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
)

const redisKeyPrefix = "xfer:search"

// RedisSearchCache stores search results as JSON strings with a native expiry.
type RedisSearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSearchCache creates a cache on client with entries expiring after ttl.
func NewRedisSearchCache(client *redis.Client, ttl time.Duration) *RedisSearchCache {
	return &RedisSearchCache{client: client, ttl: ttlOrDefault(ttl)}
}

// OpenRedisSearchCache parses url (redis://host:port/db), pings the server and returns a cache.
func OpenRedisSearchCache(ctx context.Context, url string, ttl time.Duration) (*RedisSearchCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: redis url: %v", shared.ErrInvalidConfig, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis: %v", shared.ErrServiceUnavailable, err)
	}
	return NewRedisSearchCache(client, ttl), nil
}

// RedisKey returns the key holding results for (platform, query).
func RedisKey(platform models.Platform, query string) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, platform, NormalizeQuery(query))
}

// Get returns the cached tracks for (platform, query) or [shared.ErrCacheMiss].
func (c *RedisSearchCache) Get(ctx context.Context, platform models.Platform, query string) ([]models.Track, error) {
	raw, err := c.client.Get(ctx, RedisKey(platform, query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read search cache: %w", err)
	}

	var tracks []models.Track
	if err := json.Unmarshal(raw, &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode cached tracks: %w", err)
	}
	return tracks, nil
}

// Put stores tracks for (platform, query).
func (c *RedisSearchCache) Put(ctx context.Context, platform models.Platform, query string, tracks []models.Track) error {
	entry := models.NewCachedSearch(platform, query, tracks, c.ttl)
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	payload, err := entry.Payload()
	if err != nil {
		return fmt.Errorf("failed to encode tracks: %w", err)
	}
	if err := c.client.Set(ctx, RedisKey(platform, query), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write search cache: %w", err)
	}
	return nil
}

// Clear removes every key for platform, or every search key when platform is empty.
func (c *RedisSearchCache) Clear(ctx context.Context, platform models.Platform) (int64, error) {
	pattern := redisKeyPrefix + ":*"
	if platform != "" {
		pattern = fmt.Sprintf("%s:%s:*", redisKeyPrefix, platform)
	}

	var removed int64
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to clear search cache: %w", err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan search cache: %w", err)
	}
	return removed, nil
}

// Close releases the underlying client.
func (c *RedisSearchCache) Close() error {
	return c.client.Close()
}
