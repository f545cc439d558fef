package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"culturaviva/internal/directions"
	"culturaviva/internal/geo"
	"culturaviva/internal/navigation"
	"culturaviva/internal/redis"
)

// Local cache sizing. Entries live in-process for a fraction of the shared TTL.
const (
	localRouteTTL     = time.Minute
	localRouteCleanup = 5 * time.Minute
)

// DirectionsService computes routes through the directions provider with a
// two-level cache: an in-process cache in front of the shared Redis cache.
type DirectionsService struct {
	provider   directions.Provider
	routeCache redis.RouteCacheInterface
	local      *cache.Cache
	ttl        time.Duration
	logger     *slog.Logger
}

var _ navigation.Router = (*DirectionsService)(nil)

// NewDirectionsService creates a new DirectionsService. routeCache may be
// nil, in which case only the in-process cache is used.
func NewDirectionsService(
	provider directions.Provider,
	routeCache redis.RouteCacheInterface,
	ttl time.Duration,
	logger *slog.Logger,
) *DirectionsService {
	if ttl <= 0 {
		ttl = redis.RouteCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	localTTL := localRouteTTL
	if ttl < localTTL {
		localTTL = ttl
	}

	return &DirectionsService{
		provider:   provider,
		routeCache: routeCache,
		local:      cache.New(localTTL, localRouteCleanup),
		ttl:        ttl,
		logger:     logger,
	}
}

// RouteCacheKey identifies a route by profile and endpoints rounded to five
// decimals (about one metre).
func RouteCacheKey(start, end geo.Point, profile navigation.TravelProfile) string {
	return fmt.Sprintf("route:%s:%.5f,%.5f:%.5f,%.5f", profile, start.Lat, start.Lng, end.Lat, end.Lng)
}

// Directions returns the route from start to end in wire form. The result
// is shared with the cache and must not be modified.
func (s *DirectionsService) Directions(ctx context.Context, start, end geo.Point, profile navigation.TravelProfile) (*directions.Response, error) {
	if !start.Valid() || !end.Valid() {
		return nil, ErrInvalidLocation
	}
	if !profile.Valid() {
		return nil, fmt.Errorf("%w: %q", navigation.ErrInvalidProfile, profile)
	}

	key := RouteCacheKey(start, end, profile)

	if v, ok := s.local.Get(key); ok {
		return v.(*directions.Response), nil
	}

	if s.routeCache != nil {
		cached, err := s.routeCache.GetRoute(ctx, key)
		if err != nil {
			s.logger.Warn("route cache read failed", "key", key, "error", err)
		}
		if cached != nil {
			s.local.Set(key, cached, cache.DefaultExpiration)
			return cached, nil
		}
	}

	resp, err := s.provider.Directions(ctx, start, end, profile)
	if err != nil {
		s.logger.Warn("directions provider failed", "profile", profile, "error", err)
		return nil, &navigation.RouteError{Profile: profile, Err: err}
	}
	if _, err := directions.ToRoute(resp); err != nil {
		return nil, &navigation.RouteError{Profile: profile, Err: err}
	}

	s.local.Set(key, resp, cache.DefaultExpiration)
	if s.routeCache != nil {
		if err := s.routeCache.SetRoute(ctx, key, resp, s.ttl); err != nil {
			s.logger.Warn("route cache write failed", "key", key, "error", err)
		}
	}

	return resp, nil
}

// Route implements navigation.Router for sessions hosted in-process.
func (s *DirectionsService) Route(ctx context.Context, start, end geo.Point, profile navigation.TravelProfile) (*navigation.Route, error) {
	resp, err := s.Directions(ctx, start, end, profile)
	if err != nil {
		return nil, err
	}
	return directions.ToRoute(resp)
}
