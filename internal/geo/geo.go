// Package geo provides coordinate types and great-circle distance helpers.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by DistanceMeters.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p is a finite coordinate inside the lat/lng ranges.
func (p Point) Valid() bool {
	return isValidLatitude(p.Lat) && isValidLongitude(p.Lng)
}

// DistanceMeters returns the Haversine distance between a and b.
//
//	h = sin²(Δφ/2) + cos φ1 ⋅ cos φ2 ⋅ sin²(Δλ/2)
//	d = 2R ⋅ atan2(√h, √(1−h))
func DistanceMeters(a, b Point) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := radians(b.Lat - a.Lat)
	dLambda := radians(b.Lng - a.Lng)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(math.Max(h, 0), 1)

	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FromLngLat builds a Point from a [lng, lat] pair as used by GeoJSON and
// the directions provider.
func FromLngLat(pair [2]float64) Point {
	return Point{Lat: pair[1], Lng: pair[0]}
}

// LngLat returns p as a [lng, lat] pair.
func (p Point) LngLat() [2]float64 {
	return [2]float64{p.Lng, p.Lat}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func isValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return !math.IsNaN(lng) && lng >= -180 && lng <= 180
}
