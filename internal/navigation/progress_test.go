package navigation

import (
	"math"
	"testing"
)

func TestAdvance_ArrivalThreshold(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		distance    float64
		wantArrived bool
	}{
		{name: "19m is arrived", distance: 19, wantArrived: true},
		{name: "21m is not arrived", distance: 21, wantArrived: false},
		{name: "at destination", distance: 0, wantArrived: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Advance(testRoute(500, 5), testDest, Progress{}, north(testDest, tc.distance), DefaultArrivalThresholdMeters)
			if got.Arrived != tc.wantArrived {
				t.Errorf("Arrived = %v, want %v (remaining %.2f)", got.Arrived, tc.wantArrived, got.RemainingMeters)
			}
		})
	}
}

func TestAdvance_ArrivalIsMonotonic(t *testing.T) {
	t.Parallel()

	route := testRoute(1000, 4)
	p := Advance(route, testDest, Progress{}, north(testDest, 5), DefaultArrivalThresholdMeters)
	if !p.Arrived {
		t.Fatal("expected arrival")
	}

	for _, d := range []float64{50, 400, 2000} {
		p = Advance(route, testDest, p, north(testDest, d), DefaultArrivalThresholdMeters)
		if !p.Arrived {
			t.Fatalf("arrival reverted at %vm", d)
		}
		if math.Abs(p.RemainingMeters-d) > 0.5 {
			t.Errorf("remaining = %v, want about %v", p.RemainingMeters, d)
		}
	}
}

func TestAdvance_StepIndexMonotonicAndInBounds(t *testing.T) {
	t.Parallel()

	route := testRoute(1000, 4)
	var p Progress
	prev := 0
	for d := 1000.0; d >= 25; d -= 25 {
		p = Advance(route, testDest, p, north(testDest, d), DefaultArrivalThresholdMeters)
		if p.StepIndex < prev {
			t.Fatalf("step index decreased from %d to %d at %vm", prev, p.StepIndex, d)
		}
		if p.StepIndex < 0 || p.StepIndex >= len(route.Steps) {
			t.Fatalf("step index %d out of bounds at %vm", p.StepIndex, d)
		}
		prev = p.StepIndex
	}
	if p.StepIndex != 3 {
		t.Errorf("final step index = %d, want 3", p.StepIndex)
	}
}

func TestAdvance_StepIndexIgnoresRegression(t *testing.T) {
	t.Parallel()

	route := testRoute(1000, 4)
	p := Advance(route, testDest, Progress{}, north(testDest, 300), DefaultArrivalThresholdMeters)
	if p.StepIndex != 2 {
		t.Fatalf("step index = %d, want 2", p.StepIndex)
	}

	// Jitter back towards the start.
	p = Advance(route, testDest, p, north(testDest, 900), DefaultArrivalThresholdMeters)
	if p.StepIndex != 2 {
		t.Errorf("step index = %d after regression, want 2", p.StepIndex)
	}
}

func TestAdvance_FartherThanRouteLengthClampsToFirstStep(t *testing.T) {
	t.Parallel()

	p := Advance(testRoute(1000, 4), testDest, Progress{}, north(testDest, 5000), DefaultArrivalThresholdMeters)
	if p.StepIndex != 0 {
		t.Errorf("step index = %d, want 0", p.StepIndex)
	}
}

func TestAdvance_NoRouteOnlyUpdatesDistance(t *testing.T) {
	t.Parallel()

	for _, route := range []*Route{nil, {DistanceMeters: 1000}} {
		p := Advance(route, testDest, Progress{StepIndex: 0}, north(testDest, 300), DefaultArrivalThresholdMeters)
		if p.StepIndex != 0 || p.Arrived {
			t.Errorf("unexpected progress %+v", p)
		}
		if math.Abs(p.RemainingMeters-300) > 0.5 {
			t.Errorf("remaining = %v, want about 300", p.RemainingMeters)
		}
	}
}

func TestAdvance_DegenerateRouteArrivesImmediately(t *testing.T) {
	t.Parallel()

	p := Advance(testRoute(0, 1), testDest, Progress{}, north(testDest, 500), DefaultArrivalThresholdMeters)
	if !p.Arrived {
		t.Error("expected immediate arrival for zero-length route")
	}
	if math.IsNaN(p.RemainingMeters) || p.StepIndex != 0 {
		t.Errorf("unexpected progress %+v", p)
	}
}
