package navigation

import (
	"context"
	"sync"
)

// Feed is a PositionSource driven by pushed readings, such as fixes
// streamed from a client device over a socket.
type Feed struct {
	mu      sync.Mutex
	last    *Fix
	pending error
	closed  bool
	waiters []chan locateResult
	subs    map[*feedSubscription]struct{}
}

type locateResult struct {
	fix Fix
	err error
}

type feedSubscription struct {
	feed     *Feed
	onUpdate func(Fix)
	onError  func(error)
}

func (s *feedSubscription) Cancel() {
	s.feed.mu.Lock()
	delete(s.feed.subs, s)
	s.feed.mu.Unlock()
}

// NewFeed creates an empty Feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[*feedSubscription]struct{})}
}

// Push records fix as the latest reading and delivers it to pending Locate
// calls and live subscribers.
func (f *Feed) Push(fix Fix) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.last = &fix
	f.pending = nil
	waiters := f.waiters
	f.waiters = nil
	subs := f.snapshotSubs()
	f.mu.Unlock()

	for _, w := range waiters {
		w <- locateResult{fix: fix}
	}
	for _, s := range subs {
		s.onUpdate(fix)
	}
}

// Fail reports a device-side location error to pending Locate calls and
// live subscribers. With neither, the error is held for the next Locate
// call.
func (f *Feed) Fail(err error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	waiters := f.waiters
	f.waiters = nil
	subs := f.snapshotSubs()
	if len(waiters) == 0 && len(subs) == 0 {
		f.pending = err
	}
	f.mu.Unlock()

	for _, w := range waiters {
		w <- locateResult{err: err}
	}
	for _, s := range subs {
		s.onError(err)
	}
}

// Locate returns the latest reading, waiting for the next push if none
// has arrived yet. A device error reported since the last push is
// returned instead, once.
func (f *Feed) Locate(ctx context.Context, opts WatchOptions) (Fix, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Fix{}, ErrLocationUnsupported
	}
	if err := f.pending; err != nil {
		f.pending = nil
		f.mu.Unlock()
		return Fix{}, err
	}
	if f.last != nil {
		fix := *f.last
		f.mu.Unlock()
		return fix, nil
	}
	ch := make(chan locateResult, 1)
	f.waiters = append(f.waiters, ch)
	f.mu.Unlock()

	select {
	case res := <-ch:
		return res.fix, res.err
	case <-ctx.Done():
		f.removeWaiter(ch)
		return Fix{}, ctx.Err()
	}
}

// Watch registers a live subscriber.
func (f *Feed) Watch(_ WatchOptions, onUpdate func(Fix), onError func(error)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrLocationUnsupported
	}

	s := &feedSubscription{feed: f, onUpdate: onUpdate, onError: onError}
	f.subs[s] = struct{}{}
	return s, nil
}

// Subscribers returns the number of live subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close drops all subscribers and fails pending Locate calls.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	waiters := f.waiters
	f.waiters = nil
	f.subs = make(map[*feedSubscription]struct{})
	f.mu.Unlock()

	for _, w := range waiters {
		w <- locateResult{err: ErrLocationUnsupported}
	}
}

func (f *Feed) removeWaiter(ch chan locateResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range f.waiters {
		if w == ch {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return
		}
	}
}

func (f *Feed) snapshotSubs() []*feedSubscription {
	subs := make([]*feedSubscription, 0, len(f.subs))
	for s := range f.subs {
		subs = append(subs, s)
	}
	return subs
}
