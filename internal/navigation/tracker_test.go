package navigation

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"culturaviva/internal/geo"
)

func TestTracker_SingleActiveSubscription(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	tracker := NewTracker(feed)

	var first, second atomic.Int32
	h1, err := tracker.Start(func(Fix) { first.Add(1) }, func(error) {})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h2, err := tracker.Start(func(Fix) { second.Add(1) }, func(error) {})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if h1 == h2 {
		t.Fatal("expected distinct handles")
	}

	if n := feed.Subscribers(); n != 1 {
		t.Fatalf("Subscribers() = %d, want 1", n)
	}

	feed.Push(Fix{Point: testDest})
	if first.Load() != 0 {
		t.Error("replaced subscription still received updates")
	}
	if second.Load() != 1 {
		t.Errorf("active subscription received %d updates, want 1", second.Load())
	}
}

func TestTracker_NoCallbacksAfterStop(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	tracker := NewTracker(feed)

	var updates, failures atomic.Int32
	h, err := tracker.Start(func(Fix) { updates.Add(1) }, func(error) { failures.Add(1) })
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	feed.Push(Fix{Point: testDest})
	tracker.Stop(h)
	tracker.Stop(h)
	tracker.Stop(nil)

	feed.Push(Fix{Point: north(testDest, 10)})
	feed.Fail(errors.New("signal lost"))

	if updates.Load() != 1 {
		t.Errorf("updates = %d, want 1", updates.Load())
	}
	if failures.Load() != 0 {
		t.Errorf("failures = %d, want 0", failures.Load())
	}
	if tracker.Active() {
		t.Error("tracker still active after Stop")
	}
	if n := feed.Subscribers(); n != 0 {
		t.Errorf("Subscribers() = %d, want 0", n)
	}
}

func TestTracker_ConcurrentStartsKeepOneSubscription(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	tracker := NewTracker(slowWatchSource{Feed: feed, delay: 20 * time.Millisecond})

	handles := make([]*TrackingHandle, 2)
	var wg sync.WaitGroup
	for i := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := tracker.Start(func(Fix) {}, func(error) {})
			if err != nil {
				t.Errorf("Start() error = %v", err)
			}
			handles[i] = h
		}()
	}
	wg.Wait()

	if n := feed.Subscribers(); n != 1 {
		t.Fatalf("Subscribers() = %d, want 1", n)
	}
	owned := 0
	for _, h := range handles {
		if tracker.Owns(h) {
			owned++
		}
	}
	if owned != 1 {
		t.Fatalf("tracker owns %d handles, want 1", owned)
	}

	for _, h := range handles {
		tracker.Stop(h)
	}
	if n := feed.Subscribers(); n != 0 {
		t.Errorf("Subscribers() after Stop = %d, want 0", n)
	}
}

func TestTracker_StopStaleHandleKeepsActive(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	tracker := NewTracker(feed)

	h1, _ := tracker.Start(func(Fix) {}, func(error) {})
	h2, _ := tracker.Start(func(Fix) {}, func(error) {})

	tracker.Stop(h1)
	if !tracker.Active() {
		t.Fatal("stopping a replaced handle released the active one")
	}
	tracker.Stop(h2)
	if tracker.Active() {
		t.Fatal("tracker still active")
	}
}

func TestTracker_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := NewTracker(nil).Start(func(Fix) {}, func(error) {})
	if !errors.Is(err, ErrLocationUnsupported) {
		t.Errorf("error = %v, want %v", err, ErrLocationUnsupported)
	}

	feed := NewFeed()
	feed.Close()
	_, err = NewTracker(feed).Start(func(Fix) {}, func(error) {})
	if !errors.Is(err, ErrLocationUnsupported) {
		t.Errorf("error = %v, want %v", err, ErrLocationUnsupported)
	}
}

func TestTracker_ErrorsAreDelivered(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	tracker := NewTracker(feed)

	var got error
	h, _ := tracker.Start(func(Fix) {}, func(err error) { got = err })
	defer tracker.Stop(h)

	feed.Fail(ErrLocationPermissionDenied)
	if !errors.Is(got, ErrLocationPermissionDenied) {
		t.Errorf("error = %v, want %v", got, ErrLocationPermissionDenied)
	}
}

func TestFeed_LocateReturnsLastFix(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	want := geo.Point{Lat: 1, Lng: 2}
	feed.Push(Fix{Point: want, Accuracy: 5})

	fix, err := feed.Locate(t.Context(), WatchOptions{})
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if fix.Point != want || fix.Accuracy != 5 {
		t.Errorf("Locate() = %+v, want %+v", fix, want)
	}
}

func TestFeed_LocateWaitsForPush(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	done := make(chan Fix, 1)
	go func() {
		fix, _ := feed.Locate(t.Context(), WatchOptions{})
		done <- fix
	}()

	// Keep pushing until the waiter picks one up.
	want := geo.Point{Lat: 3, Lng: 4}
	for {
		feed.Push(Fix{Point: want})
		select {
		case fix := <-done:
			if fix.Point != want {
				t.Errorf("Locate() = %+v, want %+v", fix.Point, want)
			}
			return
		default:
		}
	}
}

func TestFeed_FailBeforeLocateIsReportedOnce(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	feed.Fail(ErrLocationPermissionDenied)

	_, err := feed.Locate(t.Context(), WatchOptions{})
	if !errors.Is(err, ErrLocationPermissionDenied) {
		t.Fatalf("Locate() error = %v, want %v", err, ErrLocationPermissionDenied)
	}

	feed.Push(Fix{Point: geo.Point{Lat: 1, Lng: 1}})
	if _, err := feed.Locate(t.Context(), WatchOptions{}); err != nil {
		t.Errorf("Locate() after push error = %v", err)
	}
}

func TestFeed_LocateTimeout(t *testing.T) {
	t.Parallel()

	_, err := NewFeed().Locate(t.Context(), WatchOptions{Timeout: 10 * time.Millisecond})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFeed_CloseFailsLocate(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	feed.Close()
	feed.Close()

	if _, err := feed.Locate(t.Context(), WatchOptions{}); !errors.Is(err, ErrLocationUnsupported) {
		t.Errorf("error = %v, want %v", err, ErrLocationUnsupported)
	}
	feed.Push(Fix{Point: testDest})
}
