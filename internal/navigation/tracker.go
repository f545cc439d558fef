package navigation

import (
	"context"
	"sync"
	"time"

	"culturaviva/internal/geo"
)

// Fix is a single device position reading.
type Fix struct {
	Point    geo.Point `json:"point"`
	Accuracy float64   `json:"accuracy"`
	At       time.Time `json:"at"`
}

// WatchOptions configures a position request.
type WatchOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
}

// Subscription is a live position subscription held by a PositionSource.
type Subscription interface {
	Cancel()
}

// PositionSource provides device positions. Locate is single-shot; Watch
// delivers continuous updates until the returned subscription is cancelled.
// Errors must be one of the location sentinels where they apply.
type PositionSource interface {
	Locate(ctx context.Context, opts WatchOptions) (Fix, error)
	Watch(opts WatchOptions, onUpdate func(Fix), onError func(error)) (Subscription, error)
}

// TrackingHandle identifies one active subscription started by a Tracker.
type TrackingHandle struct {
	// mu is held for reading while a callback runs so release can wait for
	// any in-flight delivery before returning.
	mu      sync.RWMutex
	stopped bool

	subMu     sync.Mutex
	sub       Subscription
	cancelled bool

	once sync.Once
}

func (h *TrackingHandle) deliver(fn func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.stopped {
		return
	}
	fn()
}

func (h *TrackingHandle) attach(sub Subscription) {
	h.subMu.Lock()
	if h.cancelled {
		h.subMu.Unlock()
		sub.Cancel()
		return
	}
	h.sub = sub
	h.subMu.Unlock()
}

func (h *TrackingHandle) release() {
	h.once.Do(func() {
		h.mu.Lock()
		h.stopped = true
		h.mu.Unlock()

		h.subMu.Lock()
		h.cancelled = true
		sub := h.sub
		h.sub = nil
		h.subMu.Unlock()

		if sub != nil {
			sub.Cancel()
		}
	})
}

// Tracker owns at most one live subscription on a PositionSource.
type Tracker struct {
	source PositionSource

	// startMu serializes Start so concurrent callers cannot both install a
	// subscription.
	startMu sync.Mutex

	mu     sync.Mutex
	active *TrackingHandle
}

// NewTracker creates a Tracker over source.
func NewTracker(source PositionSource) *Tracker {
	return &Tracker{source: source}
}

// Start subscribes to continuous high-accuracy updates, stopping any
// subscription that is already active. Neither callback is invoked after
// the handle has been stopped.
func (t *Tracker) Start(onUpdate func(Fix), onError func(error)) (*TrackingHandle, error) {
	if t.source == nil {
		return nil, ErrLocationUnsupported
	}

	t.startMu.Lock()
	defer t.startMu.Unlock()

	t.mu.Lock()
	prev := t.active
	t.active = nil
	t.mu.Unlock()
	if prev != nil {
		prev.release()
	}

	h := &TrackingHandle{}
	sub, err := t.source.Watch(
		WatchOptions{HighAccuracy: true},
		func(f Fix) { h.deliver(func() { onUpdate(f) }) },
		func(e error) { h.deliver(func() { onError(e) }) },
	)
	if err != nil {
		return nil, err
	}

	h.attach(sub)

	t.mu.Lock()
	t.active = h
	t.mu.Unlock()

	return h, nil
}

// Stop cancels the subscription behind h. It is safe to call more than once
// and with a nil handle. It must not be called from inside a callback of the
// same handle.
func (t *Tracker) Stop(h *TrackingHandle) {
	if h == nil {
		return
	}

	t.mu.Lock()
	if t.active == h {
		t.active = nil
	}
	t.mu.Unlock()

	h.release()
}

// Owns reports whether h is the subscription currently held.
func (t *Tracker) Owns(h *TrackingHandle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return h != nil && t.active == h
}

// Active reports whether a subscription is currently held.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != nil
}
