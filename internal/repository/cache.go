package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NunoFAntunes/realtor-buddy/internal/config"
	"github.com/NunoFAntunes/realtor-buddy/internal/schema"
)

const cacheKeyPrefix = "realtor:sql:"

// RedisCache stores validated SQL keyed by the normalized query text.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient returns nil when no address is configured.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// CacheKey folds case, accents and whitespace so trivially different
// spellings share an entry.
func CacheKey(query string) string {
	norm := strings.Join(strings.Fields(schema.Fold(query)), " ")
	sum := sha256.Sum256([]byte(norm))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *RedisCache) Get(ctx context.Context, query string) (string, bool, error) {
	sql, err := c.client.Get(ctx, CacheKey(query)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return sql, true, nil
}

func (c *RedisCache) Set(ctx context.Context, query, sql string) error {
	if err := c.client.Set(ctx, CacheKey(query), sql, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
