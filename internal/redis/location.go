package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"culturaviva/internal/geo"
)

const sessionPositionKey = "navigation:positions"

// SessionPosition is the last known position of a live navigation session.
type SessionPosition struct {
	SessionID string  `json:"session_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	DistanceM float64 `json:"distance_m"`
}

// PositionStore keeps the last known position of each live session in a
// Redis geo index.
type PositionStore struct {
	client *redis.Client
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(client *redis.Client) *PositionStore {
	return &PositionStore{client: client}
}

// UpdatePosition stores a session's position using GEOADD.
func (s *PositionStore) UpdatePosition(ctx context.Context, sessionID string, p geo.Point) error {
	return s.client.GeoAdd(ctx, sessionPositionKey, &redis.GeoLocation{
		Name:      sessionID,
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

// GetPosition returns a session's last known position, or nil if none is stored.
func (s *PositionStore) GetPosition(ctx context.Context, sessionID string) (*geo.Point, error) {
	positions, err := s.client.GeoPos(ctx, sessionPositionKey, sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(positions) == 0 || positions[0] == nil {
		return nil, nil
	}
	return &geo.Point{Lat: positions[0].Latitude, Lng: positions[0].Longitude}, nil
}

// FindNearby returns the live sessions within radiusKm of center, nearest first.
func (s *PositionStore) FindNearby(ctx context.Context, center geo.Point, radiusKm float64) ([]SessionPosition, error) {
	results, err := s.client.GeoRadius(ctx, sessionPositionKey, center.Lng, center.Lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	positions := make([]SessionPosition, 0, len(results))
	for _, r := range results {
		positions = append(positions, SessionPosition{
			SessionID: r.Name,
			Lat:       r.Latitude,
			Lng:       r.Longitude,
			DistanceM: r.Dist * 1000,
		})
	}

	return positions, nil
}

// RemovePosition removes a session from the geo index.
func (s *PositionStore) RemovePosition(ctx context.Context, sessionID string) error {
	return s.client.ZRem(ctx, sessionPositionKey, sessionID).Err()
}
