package providers

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenSafetyMargin is subtracted from every token lifetime so tokens are
// refreshed proactively rather than racing their expiry under load.
const TokenSafetyMargin = 60 * time.Second

// TokenCache stores provider OAuth access tokens with expiry metadata. It
// is injected into adapters so the in-memory implementation can be swapped
// for the Redis one under multi-instance deployment.
type TokenCache interface {
	Get(ctx context.Context, provider string) (string, bool)
	Put(ctx context.Context, provider, token string, expiresIn time.Duration)
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenCache is a process-wide in-memory token cache.
type MemoryTokenCache struct {
	mu     sync.RWMutex
	tokens map[string]cachedToken
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: make(map[string]cachedToken)}
}

func (c *MemoryTokenCache) Get(_ context.Context, provider string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tokens[provider]
	if !ok || time.Now().After(t.expiresAt) {
		return "", false
	}
	return t.value, true
}

func (c *MemoryTokenCache) Put(_ context.Context, provider, token string, expiresIn time.Duration) {
	ttl := expiresIn - TokenSafetyMargin
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.tokens[provider] = cachedToken{value: token, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// RedisTokenCache shares provider tokens across instances.
type RedisTokenCache struct {
	client *redis.Client
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

func (c *RedisTokenCache) Get(ctx context.Context, provider string) (string, bool) {
	val, err := c.client.Get(ctx, tokenKey(provider)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *RedisTokenCache) Put(ctx context.Context, provider, token string, expiresIn time.Duration) {
	ttl := expiresIn - TokenSafetyMargin
	if ttl <= 0 {
		return
	}
	c.client.Set(ctx, tokenKey(provider), token, ttl)
}

func tokenKey(provider string) string {
	return "provider_token:" + provider
}
