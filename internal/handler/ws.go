package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"culturaviva/internal/geo"
	"culturaviva/internal/navigation"
	"culturaviva/internal/redis"
)

const (
	wsReadLimit     = 1 << 16
	wsSendBuffer    = 64
	wsWriteTimeout  = 5 * time.Second
	wsPingInterval  = 30 * time.Second
	wsStoreTimeout  = 2 * time.Second
	wsCloseReason   = "bye"
	wsMessageState  = "state"
	wsMessageMap    = "map"
	wsMessageError  = "error"
	wsMessageArrive = "arrived"
)

// clientMessage is a message sent by the device over the session socket.
type clientMessage struct {
	Type     string  `json:"type"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
	Accuracy float64 `json:"accuracy,omitempty"`
	AtMs     int64   `json:"at_ms,omitempty"`
	Code     string  `json:"code,omitempty"`
	Profile  string  `json:"profile,omitempty"`
}

// serverMessage is a message pushed to the device.
type serverMessage struct {
	Type     string                     `json:"type"`
	Snapshot *navigation.Snapshot       `json:"snapshot,omitempty"`
	GeoJSON  *geojson.FeatureCollection `json:"geojson,omitempty"`
	Code     string                     `json:"code,omitempty"`
	Message  string                     `json:"message,omitempty"`
	Action   navigation.Action          `json:"action,omitempty"`
	Actions  []navigation.Action        `json:"actions,omitempty"`
}

// Session handles GET /navigation/ws
//
// The device streams position fixes; the server drives the navigation
// session and pushes state, map and error messages back.
func (h *NavigationHandler) Session(c *gin.Context) {
	dest, err := queryPoint(c)
	if err != nil {
		respondError(c, navigation.ErrInvalidDestination)
		return
	}
	profile := navigation.ProfileWalking
	if raw := c.Query("profile"); raw != "" {
		if profile, err = navigation.ParseProfile(raw); err != nil {
			respondError(c, err)
			return
		}
	}

	// Lift the server write deadline for the lifetime of the socket.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, wsCloseReason)
	conn.SetReadLimit(wsReadLimit)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sessionID := uuid.New().String()
	logger := h.logger.With("session_id", sessionID)

	peer := newSessionPeer(sessionID, h.events, logger)
	feed := navigation.NewFeed()
	sess, err := navigation.NewSession(
		sessionID,
		navigation.Destination{Point: dest, Name: c.Query("name")},
		profile,
		h.directionsService,
		feed,
		navigation.Config{
			ArrivalThresholdMeters: h.cfg.ArrivalThresholdMeters,
			LocateTimeout:          h.cfg.LocateTimeout,
			Logger:                 logger,
			Listener:               peer,
		},
	)
	if err != nil {
		logger.Error("failed to create navigation session", "error", err)
		return
	}
	peer.render = sess.RenderMap
	defer func() {
		sess.Close()
		feed.Close()
		h.removePosition(ctx, sessionID, logger)
	}()

	go peer.writeLoop(ctx, conn)
	go keepalive(ctx, conn)

	logger.Info("navigation session opened", "profile", profile, "destination", dest)
	peer.SessionChanged(sess.Snapshot())
	go h.run(ctx, peer, func(ctx context.Context) error { return sess.Locate(ctx) })

	for {
		mt, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		if mt != websocket.MessageText {
			continue
		}
		var m clientMessage
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}

		switch m.Type {
		case "position":
			fix := navigation.Fix{
				Point:    geo.Point{Lat: m.Lat, Lng: m.Lng},
				Accuracy: m.Accuracy,
				At:       tsOrNow(m.AtMs),
			}
			if !fix.Point.Valid() {
				continue
			}
			feed.Push(fix)
			h.storePosition(ctx, sessionID, fix.Point, logger)
		case "position_error":
			feed.Fail(positionError(m.Code))
		case "start":
			if err := sess.Start(); err != nil {
				peer.sendError(err)
			}
		case "stop":
			sess.Stop()
		case "dismiss":
			sess.Dismiss()
		case "profile":
			p, err := navigation.ParseProfile(m.Profile)
			if err != nil {
				peer.sendError(err)
				continue
			}
			go h.run(ctx, peer, func(ctx context.Context) error { return sess.SetProfile(ctx, p) })
		case "retry":
			go h.run(ctx, peer, sess.Retry)
		}
	}

	logger.Info("navigation session disconnected")
}

// run executes a blocking session action off the read loop. Failures the
// session records are already published through the snapshot; anything
// else is sent as an error message.
func (h *NavigationHandler) run(ctx context.Context, peer *sessionPeer, fn func(context.Context) error) {
	err := fn(ctx)
	if err == nil || ctx.Err() != nil {
		return
	}
	if isSessionError(err) {
		return
	}
	peer.sendError(err)
}

func (h *NavigationHandler) storePosition(ctx context.Context, sessionID string, p geo.Point, logger *slog.Logger) {
	if h.positions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, wsStoreTimeout)
	defer cancel()
	if err := h.positions.UpdatePosition(ctx, sessionID, p); err != nil {
		logger.Warn("failed to store session position", "error", err)
	}
}

func (h *NavigationHandler) removePosition(ctx context.Context, sessionID string, logger *slog.Logger) {
	if h.positions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), wsStoreTimeout)
	defer cancel()
	if err := h.positions.RemovePosition(ctx, sessionID); err != nil {
		logger.Warn("failed to remove session position", "error", err)
	}
}

// isSessionError reports whether err is one the session already surfaces
// in its snapshot.
func isSessionError(err error) bool {
	for _, target := range []error{
		navigation.ErrLocationUnsupported,
		navigation.ErrLocationPermissionDenied,
		navigation.ErrLocationTimeout,
		navigation.ErrRouteUnavailable,
		navigation.ErrTrackingInterrupted,
		navigation.ErrRouteSuperseded,
		navigation.ErrSessionClosed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// positionError maps a device-reported error code onto the location errors.
func positionError(code string) error {
	switch code {
	case "permission_denied":
		return navigation.ErrLocationPermissionDenied
	case "unsupported":
		return navigation.ErrLocationUnsupported
	default:
		return navigation.ErrLocationTimeout
	}
}

func tsOrNow(ms int64) time.Time {
	if ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}

func keepalive(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(wsPingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			_ = conn.Ping(pctx)
			cancel()
		}
	}
}

// sessionPeer is the navigation.Listener for one socket. Listener calls
// only queue messages; writeLoop owns the connection writes.
type sessionPeer struct {
	sessionID string
	events    redis.EventPublisherInterface
	logger    *slog.Logger
	out       chan []byte

	// render is the session's map renderer, set once the session exists.
	render func(navigation.Snapshot) *geojson.FeatureCollection

	// Accessed only from listener calls, which the session serializes.
	lastRoute    *navigation.Route
	lastPosition *geo.Point
	lastError    string
}

var _ navigation.Listener = (*sessionPeer)(nil)

func newSessionPeer(sessionID string, events redis.EventPublisherInterface, logger *slog.Logger) *sessionPeer {
	return &sessionPeer{
		sessionID: sessionID,
		events:    events,
		logger:    logger,
		out:       make(chan []byte, wsSendBuffer),
	}
}

// SessionChanged implements navigation.Listener.
func (p *sessionPeer) SessionChanged(snap navigation.Snapshot) {
	p.send(serverMessage{Type: wsMessageState, Snapshot: &snap})

	if snap.Route != p.lastRoute || !samePoint(snap.UserPosition, p.lastPosition) {
		p.lastRoute = snap.Route
		p.lastPosition = snap.UserPosition
		if p.render != nil {
			if fc := p.render(snap); fc != nil {
				p.send(serverMessage{Type: wsMessageMap, GeoJSON: fc})
			}
		}
	}

	switch {
	case snap.Error == nil:
		p.lastError = ""
	case snap.Error.Code != p.lastError:
		p.lastError = snap.Error.Code
		p.send(errorMessage(snap.Error))
	}
}

// Arrived implements navigation.Listener.
func (p *sessionPeer) Arrived(snap navigation.Snapshot) {
	p.send(serverMessage{Type: wsMessageArrive})
	p.logger.Info("visitor arrived", "destination", snap.Destination.Name)

	if p.events == nil {
		return
	}
	ev := redis.ArrivalEvent{
		SessionID:   p.sessionID,
		Destination: snap.Destination.Name,
		Lat:         snap.Destination.Point.Lat,
		Lng:         snap.Destination.Point.Lng,
		Profile:     string(snap.Profile),
		ArrivedAt:   time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), wsStoreTimeout)
		defer cancel()
		if err := p.events.PublishArrival(ctx, ev); err != nil {
			p.logger.Warn("failed to publish arrival", "error", err)
		}
	}()
}

func (p *sessionPeer) sendError(err error) {
	p.send(errorMessage(navigation.Describe(err)))
}

// send queues msg without blocking; when the client is too slow the
// message is dropped.
func (p *sessionPeer) send(msg serverMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("failed to encode message", "type", msg.Type, "error", err)
		return
	}
	select {
	case p.out <- b:
	default:
		p.logger.Warn("dropping message for slow client", "type", msg.Type)
	}
}

func (p *sessionPeer) writeLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-p.out:
			wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := conn.Write(wctx, websocket.MessageText, b)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func errorMessage(info *navigation.ErrorInfo) serverMessage {
	msg := serverMessage{
		Type:    wsMessageError,
		Code:    info.Code,
		Message: info.Message,
		Actions: info.Actions,
	}
	if len(info.Actions) > 0 {
		msg.Action = info.Actions[0]
	}
	return msg
}

func samePoint(a, b *geo.Point) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
