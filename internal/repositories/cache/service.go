package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"premscales/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// GenerateKey builds a namespaced cache key.
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// CachePayment stores a payment under its reference for fast status reads.
func (s *CacheService) CachePayment(ctx context.Context, p *models.Payment) error {
	if p == nil {
		return errors.New("cannot cache nil payment")
	}
	return s.SetWithTTL(ctx, s.GenerateKey("payment", "reference", p.Reference), p, time.Hour)
}

// GetPayment reads a cached payment by reference.
func (s *CacheService) GetPayment(ctx context.Context, reference string) (*models.Payment, error) {
	var p models.Payment
	found, err := s.Get(ctx, s.GenerateKey("payment", "reference", reference), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// InvalidatePayment drops the cached copy after a status transition.
func (s *CacheService) InvalidatePayment(ctx context.Context, reference string) error {
	return s.Delete(ctx, s.GenerateKey("payment", "reference", reference))
}

func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

func (s *CacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *CacheService) Close() error {
	return s.client.Close()
}

// Client exposes the underlying Redis client for components that need raw
// access, such as the distributed provider token cache.
func (s *CacheService) Client() *redis.Client {
	return s.client
}
