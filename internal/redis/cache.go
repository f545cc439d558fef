package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"culturaviva/internal/directions"
	"culturaviva/internal/domain"
)

// CacheStore handles response caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	RouteCacheTTL       = 10 * time.Minute
	CertificateCacheTTL = 5 * time.Minute // Issued certificates never change
)

// Key prefixes
const (
	routeCachePrefix       = "cache:"
	certificateCachePrefix = "cache:certificate:"
)

// GetRoute retrieves a cached directions response. A miss returns nil, nil.
func (s *CacheStore) GetRoute(ctx context.Context, key string) (*directions.Response, error) {
	var resp directions.Response
	ok, err := s.get(ctx, routeCachePrefix+key, &resp)
	if err != nil || !ok {
		return nil, err
	}
	return &resp, nil
}

// SetRoute stores a directions response. A zero ttl selects RouteCacheTTL.
func (s *CacheStore) SetRoute(ctx context.Context, key string, resp *directions.Response, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = RouteCacheTTL
	}
	return s.set(ctx, routeCachePrefix+key, resp, ttl)
}

// GetCertificate retrieves a cached certificate by code. A miss returns nil, nil.
func (s *CacheStore) GetCertificate(ctx context.Context, code string) (*domain.CertificateData, error) {
	var data domain.CertificateData
	ok, err := s.get(ctx, certificateCachePrefix+code, &data)
	if err != nil || !ok {
		return nil, err
	}
	return &data, nil
}

// SetCertificate stores a certificate's public data.
func (s *CacheStore) SetCertificate(ctx context.Context, data *domain.CertificateData) error {
	return s.set(ctx, certificateCachePrefix+data.Code, data, CertificateCacheTTL)
}

func (s *CacheStore) get(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheStore) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}
