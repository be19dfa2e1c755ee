// Package redis wires the shared Redis connection and the caches built on it.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client and verifies the connection.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// TokenCache shares short-lived provider bearer tokens across replicas.
type TokenCache struct {
	client *redis.Client
	key    string
}

func NewTokenCache(client *redis.Client, key string) *TokenCache {
	return &TokenCache{client: client, key: key}
}

// Get returns the cached token; a miss or a Redis fault both read as a miss
// so the caller falls through to a fresh token fetch.
func (c *TokenCache) Get(ctx context.Context) (string, bool) {
	token, err := c.client.Get(ctx, c.key).Result()
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// Put stores the token with the given TTL. Failures are swallowed: the cache
// is an optimization and the token source remains authoritative.
func (c *TokenCache) Put(ctx context.Context, token string, ttl time.Duration) {
	_ = c.client.Set(ctx, c.key, token, ttl).Err()
}
