package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireIssueLock attempts to acquire the issuance lock for key.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireIssueLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, issueLockKey(key), "1", ttl).Result()
}

// ReleaseIssueLock releases the issuance lock for key.
func (s *LockStore) ReleaseIssueLock(ctx context.Context, key string) error {
	return s.client.Del(ctx, issueLockKey(key)).Err()
}

func issueLockKey(key string) string {
	return fmt.Sprintf("lock:certificate:%s", key)
}
