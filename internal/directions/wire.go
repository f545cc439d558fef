// Package directions holds the wire format of the directions endpoint and
// the HTTP clients that speak it: a provider client for the upstream
// routing engine and a backend client that satisfies navigation.Router.
package directions

import (
	"fmt"

	"culturaviva/internal/geo"
	"culturaviva/internal/navigation"
)

// Request is the body of POST /navigation/directions. Coordinates are
// [lng, lat] pairs.
type Request struct {
	Start   [2]float64 `json:"start"`
	End     [2]float64 `json:"end"`
	Profile string     `json:"profile"`
}

// NewRequest builds a request for the given points and profile.
func NewRequest(start, end geo.Point, profile navigation.TravelProfile) Request {
	return Request{
		Start:   start.LngLat(),
		End:     end.LngLat(),
		Profile: profile.ProviderProfile(),
	}
}

// Points returns the request endpoints in (lat, lng) form.
func (r Request) Points() (start, end geo.Point) {
	return geo.FromLngLat(r.Start), geo.FromLngLat(r.End)
}

// Geometry is a GeoJSON-style line in [lng, lat] order.
type Geometry struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

// Step is one turn-by-turn instruction on the wire.
type Step struct {
	Instruction string  `json:"instruction"`
	Distance    float64 `json:"distance"`
	Duration    float64 `json:"duration"`
	Type        *int    `json:"type,omitempty"`
	Name        string  `json:"name,omitempty"`
}

// Response is the Route-shaped body returned by the directions endpoint.
type Response struct {
	Distance float64  `json:"distance"`
	Duration float64  `json:"duration"`
	Geometry Geometry `json:"geometry"`
	Steps    []Step   `json:"steps"`
}

// ToRoute converts a wire response into a navigation route, flipping the
// geometry to (lat, lng). Responses with fewer than two geometry points or
// no steps are rejected as unavailable.
func ToRoute(resp *Response) (*navigation.Route, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", navigation.ErrRouteUnavailable)
	}
	if len(resp.Geometry.Coordinates) < 2 {
		return nil, fmt.Errorf("%w: geometry has %d points", navigation.ErrRouteUnavailable, len(resp.Geometry.Coordinates))
	}
	if len(resp.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", navigation.ErrRouteUnavailable)
	}

	route := &navigation.Route{
		DistanceMeters:  resp.Distance,
		DurationSeconds: resp.Duration,
		Geometry:        make([]geo.Point, 0, len(resp.Geometry.Coordinates)),
		Steps:           make([]navigation.RouteStep, 0, len(resp.Steps)),
	}
	for _, c := range resp.Geometry.Coordinates {
		route.Geometry = append(route.Geometry, geo.FromLngLat(c))
	}
	for _, s := range resp.Steps {
		route.Steps = append(route.Steps, navigation.RouteStep{
			Instruction:     s.Instruction,
			DistanceMeters:  s.Distance,
			DurationSeconds: s.Duration,
			ManeuverType:    s.Type,
			StreetName:      s.Name,
		})
	}

	return route, nil
}
