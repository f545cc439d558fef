package navigation

import (
	"math"

	"culturaviva/internal/geo"
)

// DefaultArrivalThresholdMeters is the distance to the destination below
// which the user has arrived.
const DefaultArrivalThresholdMeters = 20.0

// Progress is the navigation progress derived from the latest position.
type Progress struct {
	RemainingMeters float64
	StepIndex       int
	Arrived         bool
}

// Advance folds a new position into prev and returns the updated progress.
//
// The remaining distance is the straight-line distance to dest and does not
// depend on route geometry. The step index is estimated from the fraction
// of the route already covered and only ever moves forward and in bounds.
// Once arrived, the result stays arrived and the step index is frozen.
func Advance(route *Route, dest geo.Point, prev Progress, pos geo.Point, threshold float64) Progress {
	next := prev
	next.RemainingMeters = geo.DistanceMeters(pos, dest)

	if prev.Arrived {
		return next
	}

	next.Arrived = next.RemainingMeters < threshold

	if route == nil || len(route.Steps) == 0 {
		return next
	}

	if route.DistanceMeters <= 0 {
		// Start and destination coincide.
		next.Arrived = true
		return next
	}

	ratio := 1 - next.RemainingMeters/route.DistanceMeters
	ratio = math.Min(math.Max(ratio, 0), 1)

	estimated := int(math.Floor(ratio * float64(len(route.Steps))))
	if estimated > next.StepIndex && estimated < len(route.Steps) {
		next.StepIndex = estimated
	}

	return next
}
