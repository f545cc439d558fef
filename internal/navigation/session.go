package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"

	"culturaviva/internal/geo"
)

// DefaultLocateTimeout bounds the initial single-shot position request.
const DefaultLocateTimeout = 10 * time.Second

// State is the lifecycle state of a navigation session.
type State string

const (
	StateIdle       State = "IDLE"
	StateLocating   State = "LOCATING"
	StateRouteReady State = "ROUTE_READY"
	StateNavigating State = "NAVIGATING"
	StateArrived    State = "ARRIVED"
	StateClosed     State = "CLOSED"
)

// Destination is the navigation target.
type Destination struct {
	Point geo.Point `json:"point"`
	Name  string    `json:"name"`
}

// Listener receives session updates. Calls are serialized and made without
// the session lock held, but a Listener must not call back into the Session
// synchronously, except for RenderMap.
type Listener interface {
	// SessionChanged is called after every state, route or progress change.
	SessionChanged(Snapshot)
	// Arrived is called once per false→true arrival transition.
	Arrived(Snapshot)
}

// Config tunes a Session. Zero values select the defaults.
type Config struct {
	ArrivalThresholdMeters float64
	LocateTimeout          time.Duration
	Logger                 *slog.Logger
	Listener               Listener
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	SessionID        string        `json:"session_id"`
	State            State         `json:"state"`
	Profile          TravelProfile `json:"profile"`
	Destination      Destination   `json:"destination"`
	Route            *Route        `json:"route,omitempty"`
	RouteProfile     TravelProfile `json:"route_profile,omitempty"`
	RouteLoading     bool          `json:"route_loading"`
	UserPosition     *geo.Point    `json:"user_position,omitempty"`
	Accuracy         float64       `json:"accuracy,omitempty"`
	RemainingMeters  float64       `json:"remaining_meters"`
	CurrentStepIndex int           `json:"current_step_index"`
	CurrentStep      *RouteStep    `json:"current_step,omitempty"`
	IsTracking       bool          `json:"is_tracking"`
	HasArrived       bool          `json:"has_arrived"`
	Error            *ErrorInfo    `json:"error,omitempty"`
}

// Session drives one navigation towards a destination:
//
//	IDLE → LOCATING → ROUTE_READY → NAVIGATING → ARRIVED
//
// with Stop returning NAVIGATING|ARRIVED to IDLE and Close tearing the
// session down from any state.
type Session struct {
	id      string
	dest    Destination
	router  Router
	source  PositionSource
	tracker *Tracker
	mapView *MapView
	cfg     Config
	logger  *slog.Logger

	// ctx is cancelled by Close and aborts in-flight requests.
	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	state        State
	profile      TravelProfile
	route        *Route
	routeProfile TravelProfile
	routeLoading bool
	cancelRoute  context.CancelFunc
	generation   uint64
	position     *geo.Point
	accuracy     float64
	progress     Progress
	handle       *TrackingHandle
	lastErr      error
	closed       bool

	// emitMu orders listener calls.
	emitMu sync.Mutex
}

// NewSession creates an IDLE session towards dest.
func NewSession(id string, dest Destination, profile TravelProfile, router Router, source PositionSource, cfg Config) (*Session, error) {
	if !dest.Point.Valid() {
		return nil, ErrInvalidDestination
	}
	if !profile.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProfile, profile)
	}
	if router == nil {
		return nil, errors.New("navigation: nil router")
	}

	if cfg.ArrivalThresholdMeters <= 0 {
		cfg.ArrivalThresholdMeters = DefaultArrivalThresholdMeters
	}
	if cfg.LocateTimeout <= 0 {
		cfg.LocateTimeout = DefaultLocateTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		id:      id,
		dest:    dest,
		router:  router,
		source:  source,
		tracker: NewTracker(source),
		mapView: NewMapView(),
		cfg:     cfg,
		logger:  logger.With("session_id", id),
		ctx:     ctx,
		cancel:  cancel,
		state:   StateIdle,
		profile: profile,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Locate requests a single initial position and, on success, computes the
// first route. Failures leave the session IDLE with a retryable error.
func (s *Session) Locate(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state == StateLocating || s.state == StateNavigating || s.state == StateArrived {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: locate from %s", ErrInvalidTransition, state)
	}
	if s.source == nil {
		s.lastErr = ErrLocationUnsupported
		s.unlockAndEmit(false)
		return ErrLocationUnsupported
	}

	s.abandonRouteLocked()
	s.state = StateLocating
	s.lastErr = nil
	s.unlockAndEmit(false)

	lctx, cancel := s.scoped(ctx)
	lctx, cancelTimeout := context.WithTimeout(lctx, s.cfg.LocateTimeout)
	fix, err := s.source.Locate(lctx, WatchOptions{HighAccuracy: true, Timeout: s.cfg.LocateTimeout})
	cancelTimeout()
	cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if err == nil && !fix.Point.Valid() {
		err = fmt.Errorf("invalid fix %+v", fix.Point)
	}
	if err != nil {
		err = classifyLocateError(err)
		s.state = StateIdle
		s.lastErr = err
		s.unlockAndEmit(false)
		s.logger.Warn("initial position unavailable", "error", err)
		return err
	}

	p := fix.Point
	s.position = &p
	s.accuracy = fix.Accuracy
	s.progress.RemainingMeters = geo.DistanceMeters(p, s.dest.Point)
	s.mu.Unlock()

	return s.requestRoute(ctx)
}

// SetProfile switches the travel profile. With a known position the current
// route is invalidated and recomputed; leaving NAVIGATING releases the
// tracker. Switching is not allowed once arrived.
func (s *Session) SetProfile(ctx context.Context, profile TravelProfile) error {
	if !profile.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidProfile, profile)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state == StateArrived {
		s.mu.Unlock()
		return fmt.Errorf("%w: profile change after arrival", ErrInvalidTransition)
	}
	if profile == s.profile && (s.routeLoading || (s.route != nil && s.routeProfile == profile)) {
		s.mu.Unlock()
		return nil
	}

	s.profile = profile
	if s.position == nil || s.state == StateLocating {
		// Picked up by the route request that follows the locate.
		s.unlockAndEmit(false)
		return nil
	}
	s.mu.Unlock()

	s.logger.Info("travel profile changed", "profile", profile)
	return s.requestRoute(ctx)
}

// Retry re-runs whichever step last failed: the initial locate, the route
// request, or the live subscription.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	state := s.state
	hasPosition := s.position != nil
	s.mu.Unlock()

	switch {
	case state == StateIdle || !hasPosition:
		return s.Locate(ctx)
	case state == StateRouteReady:
		return s.requestRoute(ctx)
	case state == StateNavigating || state == StateArrived:
		return s.startTracking()
	default:
		return fmt.Errorf("%w: retry from %s", ErrInvalidTransition, state)
	}
}

// Start begins live navigation on the current route.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateRouteReady || s.route == nil || s.routeLoading {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, state)
	}
	s.state = StateNavigating
	s.progress.StepIndex = 0
	s.progress.Arrived = false
	s.lastErr = nil
	s.mu.Unlock()

	return s.startTracking()
}

// Stop ends live navigation and returns to IDLE, keeping the last route and
// position for display. The arrival flag and step index are reset. Calling
// Stop outside NAVIGATING or ARRIVED is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.closed || (s.state != StateNavigating && s.state != StateArrived) {
		s.mu.Unlock()
		return
	}
	h := s.handle
	s.handle = nil
	s.state = StateIdle
	s.progress.StepIndex = 0
	s.progress.Arrived = false
	s.lastErr = nil
	s.unlockAndEmit(false)

	s.tracker.Stop(h)
	s.logger.Info("navigation stopped")
}

// Close tears the session down: the tracker is released, in-flight requests
// are abandoned and map resources are freed. No state is written after
// Close begins. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	h := s.handle
	s.handle = nil
	s.abandonRouteLocked()
	s.state = StateClosed
	s.mu.Unlock()

	s.cancel()
	s.tracker.Stop(h)
	s.mapView.Close()
	s.logger.Info("navigation session closed")
}

// Dismiss clears the current error banner.
func (s *Session) Dismiss() {
	s.mu.Lock()
	if s.closed || s.lastErr == nil {
		s.mu.Unlock()
		return
	}
	s.lastErr = nil
	s.unlockAndEmit(false)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Map renders the current state for the map widget. It returns nil once
// the session is closed.
func (s *Session) Map() *geojson.FeatureCollection {
	return s.RenderMap(s.Snapshot())
}

// RenderMap renders snap through the session's map view. It does not lock
// the session, so a Listener may call it with the snapshot it was handed.
func (s *Session) RenderMap(snap Snapshot) *geojson.FeatureCollection {
	return s.mapView.Render(snap)
}

func (s *Session) requestRoute(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.position == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: no position for route", ErrInvalidTransition)
	}

	var h *TrackingHandle
	if s.state == StateNavigating {
		h = s.handle
		s.handle = nil
		s.progress.StepIndex = 0
	}

	s.abandonRouteLocked()
	gen := s.generation
	profile := s.profile
	start := *s.position

	rctx, cancel := s.scoped(ctx)
	s.cancelRoute = cancel
	s.state = StateRouteReady
	s.routeLoading = true
	s.unlockAndEmit(false)

	s.tracker.Stop(h)

	route, err := s.router.Route(rctx, start, s.dest.Point, profile)
	cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded route", "profile", profile)
		return ErrRouteSuperseded
	}
	s.routeLoading = false
	s.cancelRoute = nil

	if err == nil {
		err = checkRoute(route)
	}
	if err != nil {
		rerr := &RouteError{Profile: profile, Err: err}
		s.lastErr = rerr
		s.unlockAndEmit(false)
		s.logger.Warn("route unavailable", "profile", profile, "error", err)
		return rerr
	}

	s.route = route
	s.routeProfile = profile
	s.progress.StepIndex = 0
	s.lastErr = nil
	s.unlockAndEmit(false)

	s.logger.Info("route ready",
		"profile", profile,
		"distance_m", route.DistanceMeters,
		"steps", len(route.Steps),
	)
	return nil
}

func (s *Session) startTracking() error {
	h, err := s.tracker.Start(s.onFix, s.onTrackingError)

	s.mu.Lock()
	if s.closed || (s.state != StateNavigating && s.state != StateArrived) {
		closed := s.closed
		s.mu.Unlock()
		s.tracker.Stop(h)
		if closed {
			return ErrSessionClosed
		}
		return nil
	}
	if err != nil && s.tracker.Active() {
		// A concurrent start succeeded after this one failed.
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		if s.state == StateNavigating {
			s.state = StateRouteReady
		}
		s.lastErr = err
		s.unlockAndEmit(false)
		s.logger.Warn("live tracking unavailable", "error", err)
		return err
	}
	if !s.tracker.Owns(h) {
		// A later start replaced this subscription and will install its own.
		s.mu.Unlock()
		s.tracker.Stop(h)
		return nil
	}
	prev := s.handle
	s.handle = h
	s.lastErr = nil
	s.unlockAndEmit(false)

	if prev != nil && prev != h {
		s.tracker.Stop(prev)
	}
	s.logger.Info("navigation started")
	return nil
}

func (s *Session) onFix(fix Fix) {
	if !fix.Point.Valid() {
		return
	}

	s.mu.Lock()
	if s.closed || (s.state != StateNavigating && s.state != StateArrived) {
		s.mu.Unlock()
		return
	}

	p := fix.Point
	s.position = &p
	s.accuracy = fix.Accuracy

	prev := s.progress
	s.progress = Advance(s.route, s.dest.Point, prev, p, s.cfg.ArrivalThresholdMeters)
	arrivedEdge := !prev.Arrived && s.progress.Arrived
	if arrivedEdge {
		s.state = StateArrived
	}
	if errors.Is(s.lastErr, ErrTrackingInterrupted) {
		s.lastErr = nil
	}
	step := s.progress.StepIndex
	s.unlockAndEmit(arrivedEdge)

	if step != prev.StepIndex {
		s.logger.Debug("advanced step", "step", step)
	}
	if arrivedEdge {
		s.logger.Info("arrived at destination", "destination", s.dest.Name)
	}
}

func (s *Session) onTrackingError(err error) {
	s.mu.Lock()
	if s.closed || (s.state != StateNavigating && s.state != StateArrived) {
		s.mu.Unlock()
		return
	}
	s.lastErr = fmt.Errorf("%w: %w", ErrTrackingInterrupted, err)
	s.unlockAndEmit(false)

	s.logger.Warn("live tracking interrupted", "error", err)
}

// abandonRouteLocked invalidates any in-flight route request.
func (s *Session) abandonRouteLocked() {
	s.generation++
	s.routeLoading = false
	if s.cancelRoute != nil {
		s.cancelRoute()
		s.cancelRoute = nil
	}
}

// scoped derives a context that is also cancelled when the session closes.
func (s *Session) scoped(ctx context.Context) (context.Context, context.CancelFunc) {
	cctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return cctx, func() {
		stop()
		cancel()
	}
}

// unlockAndEmit must be called with s.mu held. It releases s.mu and
// delivers the resulting snapshot to the listener in order.
func (s *Session) unlockAndEmit(arrived bool) {
	snap := s.snapshotLocked()
	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()

	if s.cfg.Listener == nil {
		return
	}
	s.cfg.Listener.SessionChanged(snap)
	if arrived {
		s.cfg.Listener.Arrived(snap)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:        s.id,
		State:            s.state,
		Profile:          s.profile,
		Destination:      s.dest,
		Route:            s.route,
		RouteProfile:     s.routeProfile,
		RouteLoading:     s.routeLoading,
		Accuracy:         s.accuracy,
		RemainingMeters:  s.progress.RemainingMeters,
		CurrentStepIndex: s.progress.StepIndex,
		IsTracking:       s.handle != nil,
		HasArrived:       s.progress.Arrived,
		Error:            Describe(s.lastErr),
	}
	if s.position != nil {
		p := *s.position
		snap.UserPosition = &p
	}
	if s.route != nil && s.progress.StepIndex < len(s.route.Steps) {
		step := s.route.Steps[s.progress.StepIndex]
		snap.CurrentStep = &step
	}
	return snap
}

func checkRoute(route *Route) error {
	switch {
	case route == nil:
		return errors.New("empty response")
	case len(route.Steps) == 0:
		return errors.New("route has no steps")
	case len(route.Geometry) < 2:
		return errors.New("route geometry has fewer than two points")
	}
	return nil
}
