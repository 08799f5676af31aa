package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
)

// redisEntry is the stored form of a cached list
type redisEntry struct {
	StoredAt time.Time       `json:"stored_at"`
	Value    []entity.Record `json:"value"`
}

// RedisCache shares reference lists between server instances
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewRedisCache connects to redisURL and verifies the connection
func NewRedisCache(redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisCacheWithClient(client, ttl, logger), nil
}

// NewRedisCacheWithClient creates a cache from an existing client
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{
		client: client,
		prefix: "portal:ref:",
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

func (c *RedisCache) key(key string) string {
	return c.prefix + key
}

// Get returns the cached list and whether it is still within its TTL.
// Redis errors are logged and reported as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]entity.Record, bool) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Reference cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("Discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, c.key(key)).Err()
		return nil, false
	}

	age := c.now().Sub(entry.StoredAt)
	return cloneRecords(entry.Value), age < c.ttl
}

// Set stores a list with a hard expiry of twice the TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []entity.Record) error {
	payload, err := json.Marshal(redisEntry{StoredAt: c.now().UTC(), Value: cloneRecords(value)})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), payload, staleFactor*c.ttl).Err(); err != nil {
		return fmt.Errorf("save cache entry: %w", err)
	}
	return nil
}

// Invalidate drops a key
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("invalidate cache entry: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
