// Package navigation implements turn-by-turn guidance for a single
// destination: route acquisition, live position tracking, step advancement
// and arrival detection.
package navigation

import (
	"context"
	"fmt"
	"strings"

	"culturaviva/internal/geo"
)

// TravelProfile is the mode of transport a route is computed for.
type TravelProfile string

const (
	ProfileWalking TravelProfile = "walking"
	ProfileDriving TravelProfile = "driving"
	ProfileCycling TravelProfile = "cycling"
)

// Valid reports whether p is one of the supported profiles.
func (p TravelProfile) Valid() bool {
	switch p {
	case ProfileWalking, ProfileDriving, ProfileCycling:
		return true
	}
	return false
}

// ProviderProfile returns the directions provider's name for p.
func (p TravelProfile) ProviderProfile() string {
	switch p {
	case ProfileDriving:
		return "driving-car"
	case ProfileCycling:
		return "cycling-regular"
	default:
		return "foot-walking"
	}
}

// ParseProfile accepts either the short profile name or the provider name.
func ParseProfile(s string) (TravelProfile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "walking", "foot-walking":
		return ProfileWalking, nil
	case "driving", "driving-car":
		return ProfileDriving, nil
	case "cycling", "cycling-regular":
		return ProfileCycling, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidProfile, s)
}

// RouteStep is one turn-by-turn instruction. Its index in Route.Steps is its
// ordinal position along the route.
type RouteStep struct {
	Instruction     string  `json:"instruction"`
	DistanceMeters  float64 `json:"distance"`
	DurationSeconds float64 `json:"duration"`
	ManeuverType    *int    `json:"type,omitempty"`
	StreetName      string  `json:"name,omitempty"`
}

// Route is a computed path to the destination. Geometry is always in
// (lat, lng) order.
type Route struct {
	DistanceMeters  float64     `json:"distance"`
	DurationSeconds float64     `json:"duration"`
	Geometry        []geo.Point `json:"geometry"`
	Steps           []RouteStep `json:"steps"`
}

// Router acquires a route between two points.
type Router interface {
	Route(ctx context.Context, start, end geo.Point, profile TravelProfile) (*Route, error)
}

// RouterFunc adapts a function to the Router interface.
type RouterFunc func(ctx context.Context, start, end geo.Point, profile TravelProfile) (*Route, error)

// Route calls f.
func (f RouterFunc) Route(ctx context.Context, start, end geo.Point, profile TravelProfile) (*Route, error) {
	return f(ctx, start, end, profile)
}
