package navigation

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestMapView_Render(t *testing.T) {
	t.Parallel()

	route := testRoute(1000, 2)
	user := north(testDest, 400)
	snap := Snapshot{
		Route:        route,
		RouteProfile: ProfileWalking,
		Destination:  Destination{Point: testDest, Name: "Paço do Frevo"},
		UserPosition: &user,
		Accuracy:     6,
		IsTracking:   true,
	}

	m := NewMapView()
	fc := m.Render(snap)
	if fc == nil || len(fc.Features) != 3 {
		t.Fatalf("Render() = %v, want 3 features", fc)
	}

	line, ok := fc.Features[0].Geometry.(orb.LineString)
	if !ok {
		t.Fatalf("route geometry = %T, want orb.LineString", fc.Features[0].Geometry)
	}
	if len(line) != len(route.Geometry) {
		t.Fatalf("line has %d points, want %d", len(line), len(route.Geometry))
	}
	if line[0] != (orb.Point{route.Geometry[0].Lng, route.Geometry[0].Lat}) {
		t.Errorf("line[0] = %v, want lng/lat order", line[0])
	}

	wantKinds := []string{FeatureRoute, FeatureDestination, FeatureUser}
	for i, want := range wantKinds {
		if got := fc.Features[i].Properties["kind"]; got != want {
			t.Errorf("feature %d kind = %v, want %s", i, got, want)
		}
	}
	if fc.Features[2].Properties["tracking"] != true {
		t.Error("user marker not flagged as tracking")
	}

	again := m.Render(snap)
	if again.Features[0] != fc.Features[0] {
		t.Error("route feature rebuilt for unchanged route")
	}

	m.Close()
	if m.Render(snap) != nil {
		t.Error("Render() after Close returned features")
	}
}

func TestMapView_RenderWithoutRoute(t *testing.T) {
	t.Parallel()

	fc := NewMapView().Render(Snapshot{Destination: Destination{Point: testDest}})
	if len(fc.Features) != 1 {
		t.Fatalf("Render() has %d features, want 1", len(fc.Features))
	}
	if p, ok := fc.Features[0].Geometry.(orb.Point); !ok || p != (orb.Point{testDest.Lng, testDest.Lat}) {
		t.Errorf("destination geometry = %v", fc.Features[0].Geometry)
	}
}
