package navigation

import (
	"context"
	"math"
	"sync"
	"time"

	"culturaviva/internal/geo"
)

var testDest = geo.Point{Lat: -8.0631, Lng: -34.8711}

// north returns the point the given distance due north of p.
func north(p geo.Point, meters float64) geo.Point {
	return geo.Point{Lat: p.Lat + meters/geo.EarthRadiusMeters*180/math.Pi, Lng: p.Lng}
}

func testRoute(distance float64, steps int) *Route {
	r := &Route{
		DistanceMeters:  distance,
		DurationSeconds: distance / 1.4,
		Geometry:        []geo.Point{north(testDest, distance), testDest},
	}
	for i := 0; i < steps; i++ {
		r.Steps = append(r.Steps, RouteStep{
			Instruction:    "step",
			DistanceMeters: distance / float64(steps),
		})
	}
	return r
}

func staticRouter(r *Route) Router {
	return RouterFunc(func(context.Context, geo.Point, geo.Point, TravelProfile) (*Route, error) {
		return r, nil
	})
}

type routeReply struct {
	route *Route
	err   error
}

type routeCall struct {
	profile TravelProfile
	reply   chan routeReply
}

// scriptedRouter hands every request to the test and waits for its reply,
// ignoring cancellation like a provider that answers late.
type scriptedRouter struct {
	calls chan routeCall
}

func newScriptedRouter() *scriptedRouter {
	return &scriptedRouter{calls: make(chan routeCall)}
}

func (r *scriptedRouter) Route(_ context.Context, _, _ geo.Point, profile TravelProfile) (*Route, error) {
	c := routeCall{profile: profile, reply: make(chan routeReply, 1)}
	r.calls <- c
	rep := <-c.reply
	return rep.route, rep.err
}

type recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
	arrived   int
}

func (r *recorder) SessionChanged(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) Arrived(Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arrived++
}

func (r *recorder) counts() (changes, arrived int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots), r.arrived
}

// stubSource fails every request with err.
type stubSource struct {
	err error
}

func (s stubSource) Locate(context.Context, WatchOptions) (Fix, error) {
	return Fix{}, s.err
}

func (s stubSource) Watch(WatchOptions, func(Fix), func(error)) (Subscription, error) {
	return nil, s.err
}

// slowWatchSource is a Feed whose Watch takes delay to subscribe.
type slowWatchSource struct {
	*Feed
	delay time.Duration
}

func (s slowWatchSource) Watch(opts WatchOptions, onUpdate func(Fix), onError func(error)) (Subscription, error) {
	time.Sleep(s.delay)
	return s.Feed.Watch(opts, onUpdate, onError)
}
