package daraja

import (
	"context"
	"sync"
	"time"
)

// MemoryTokenCache keeps the bearer token in process memory. Suitable for a
// single replica; multi-replica deployments share the token through Redis.
type MemoryTokenCache struct {
	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

func (c *MemoryTokenCache) Get(_ context.Context) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || time.Now().After(c.expires) {
		return "", false
	}
	return c.token, true
}

func (c *MemoryTokenCache) Put(_ context.Context, token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expires = time.Now().Add(ttl)
}
