package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const alertKeyPrefix = "lowstock:"

// RedisAlertStore deduplicates low-stock alerts per tenant with a SetNX key
// that expires after the dedup window.
type RedisAlertStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAlertStore(client *redis.Client, ttl time.Duration) *RedisAlertStore {
	return &RedisAlertStore{client: client, ttl: ttl}
}

// Acquire returns true when no alert has been emitted for the tenant inside
// the current window.
func (s *RedisAlertStore) Acquire(ctx context.Context, tenantID string) (bool, error) {
	return s.client.SetNX(ctx, alertKeyPrefix+tenantID, 1, s.ttl).Result()
}
