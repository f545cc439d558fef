package navigation

import (
	"fmt"
	"math"
	"strconv"

	"culturaviva/internal/geo"
)

// FormatDistance renders meters as "N m" below one kilometre and "N.d km" above.
func FormatDistance(meters float64) string {
	if rounded := math.Round(meters); rounded < 1000 {
		return fmt.Sprintf("%d m", int(rounded))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// FormatDuration renders seconds as "< 1 min", "N min" or "Hh Mmin".
func FormatDuration(seconds float64) string {
	if seconds < 60 {
		return "< 1 min"
	}

	minutes := int(math.Round(seconds / 60))
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}

	return fmt.Sprintf("%dh %dmin", minutes/60, minutes%60)
}

// ExternalMapsURL builds a maps-app deep link to dest for handing navigation
// off to another application.
func ExternalMapsURL(dest geo.Point, profile TravelProfile) string {
	mode := "walking"
	switch profile {
	case ProfileDriving:
		mode = "driving"
	case ProfileCycling:
		mode = "bicycling"
	}

	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%s,%s&travelmode=%s",
		strconv.FormatFloat(dest.Lat, 'f', -1, 64),
		strconv.FormatFloat(dest.Lng, 'f', -1, 64),
		mode,
	)
}
