package navigation

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"culturaviva/internal/geo"
)

// Feature kinds set in the "kind" property of rendered features.
const (
	FeatureRoute       = "route"
	FeatureDestination = "destination"
	FeatureUser        = "user"
)

// MapView renders session snapshots as GeoJSON for the map widget: the
// route polyline, the destination marker and the live user marker.
type MapView struct {
	mu     sync.Mutex
	closed bool

	// The route line is rebuilt only when the route changes.
	route     *Route
	routeLine *geojson.Feature
}

// NewMapView creates an empty MapView.
func NewMapView() *MapView {
	return &MapView{}
}

// Render builds the feature collection for snap. It returns nil after Close.
func (m *MapView) Render(snap Snapshot) *geojson.FeatureCollection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}

	fc := geojson.NewFeatureCollection()

	if snap.Route != nil && len(snap.Route.Geometry) >= 2 {
		if snap.Route != m.route {
			m.route = snap.Route
			m.routeLine = routeFeature(snap.Route, snap.RouteProfile)
		}
		fc.Append(m.routeLine)
	}

	dest := geojson.NewFeature(toOrb(snap.Destination.Point))
	dest.Properties["kind"] = FeatureDestination
	dest.Properties["name"] = snap.Destination.Name
	fc.Append(dest)

	if snap.UserPosition != nil {
		user := geojson.NewFeature(toOrb(*snap.UserPosition))
		user.Properties["kind"] = FeatureUser
		user.Properties["accuracy"] = snap.Accuracy
		user.Properties["tracking"] = snap.IsTracking
		fc.Append(user)
	}

	return fc
}

// Close releases the cached geometry. Later calls to Render return nil.
func (m *MapView) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.route = nil
	m.routeLine = nil
}

func routeFeature(r *Route, profile TravelProfile) *geojson.Feature {
	line := make(orb.LineString, 0, len(r.Geometry))
	for _, p := range r.Geometry {
		line = append(line, toOrb(p))
	}

	f := geojson.NewFeature(line)
	f.Properties["kind"] = FeatureRoute
	f.Properties["profile"] = string(profile)
	f.Properties["distance"] = r.DistanceMeters
	f.Properties["duration"] = r.DurationSeconds
	return f
}

// toOrb converts to orb's [lng, lat] point order.
func toOrb(p geo.Point) orb.Point {
	return orb.Point{p.Lng, p.Lat}
}
