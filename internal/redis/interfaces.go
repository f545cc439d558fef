package redis

import (
	"context"
	"time"

	"culturaviva/internal/directions"
	"culturaviva/internal/domain"
	"culturaviva/internal/geo"
)

// RouteCacheInterface defines the interface for shared route caching.
type RouteCacheInterface interface {
	GetRoute(ctx context.Context, key string) (*directions.Response, error)
	SetRoute(ctx context.Context, key string, resp *directions.Response, ttl time.Duration) error
}

// CertificateCacheInterface defines the interface for certificate lookup caching.
type CertificateCacheInterface interface {
	GetCertificate(ctx context.Context, code string) (*domain.CertificateData, error)
	SetCertificate(ctx context.Context, data *domain.CertificateData) error
}

// PositionStoreInterface defines the interface for live session positions.
type PositionStoreInterface interface {
	UpdatePosition(ctx context.Context, sessionID string, p geo.Point) error
	GetPosition(ctx context.Context, sessionID string) (*geo.Point, error)
	FindNearby(ctx context.Context, center geo.Point, radiusKm float64) ([]SessionPosition, error)
	RemovePosition(ctx context.Context, sessionID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireIssueLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseIssueLock(ctx context.Context, key string) error
}

// EventPublisherInterface defines the interface for navigation events.
type EventPublisherInterface interface {
	PublishArrival(ctx context.Context, ev ArrivalEvent) error
}

// Ensure concrete types implement interfaces.
var (
	_ RouteCacheInterface       = (*CacheStore)(nil)
	_ CertificateCacheInterface = (*CacheStore)(nil)
	_ PositionStoreInterface    = (*PositionStore)(nil)
	_ LockStoreInterface        = (*LockStore)(nil)
	_ EventPublisherInterface   = (*EventPublisher)(nil)
)
