package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// ArrivalChannel is the pub/sub channel arrival events are published on.
const ArrivalChannel = "navigation:arrivals"

// ArrivalEvent announces that a visitor reached a destination.
type ArrivalEvent struct {
	SessionID   string    `json:"session_id"`
	Destination string    `json:"destination"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Profile     string    `json:"profile"`
	ArrivedAt   time.Time `json:"arrived_at"`
}

// EventPublisher publishes navigation events for other services, such as
// achievement tracking.
type EventPublisher struct {
	client *redis.Client
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

// PublishArrival publishes ev on ArrivalChannel.
func (p *EventPublisher) PublishArrival(ctx context.Context, ev ArrivalEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, ArrivalChannel, data).Err()
}
