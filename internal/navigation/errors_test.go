package navigation

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestRouteError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("http 503")
	err := fmt.Errorf("request: %w", &RouteError{Profile: ProfileCycling, Err: cause})

	if !errors.Is(err, ErrRouteUnavailable) {
		t.Error("expected ErrRouteUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("expected underlying cause")
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err       error
		wantCode  string
		wantFatal bool
	}{
		{err: ErrLocationUnsupported, wantCode: "location_unsupported", wantFatal: true},
		{err: ErrLocationPermissionDenied, wantCode: "location_permission_denied"},
		{err: ErrLocationTimeout, wantCode: "location_timeout"},
		{err: fmt.Errorf("%w: gps", ErrTrackingInterrupted), wantCode: "tracking_interrupted"},
		{err: &RouteError{Profile: ProfileWalking, Err: errors.New("x")}, wantCode: "route_unavailable"},
		{err: ErrSessionClosed, wantCode: "session_closed"},
		{err: errors.New("boom"), wantCode: "navigation_error"},
	}

	for _, tc := range testCases {
		info := Describe(tc.err)
		if info == nil {
			t.Fatalf("Describe(%v) = nil", tc.err)
		}
		if info.Code != tc.wantCode || info.Fatal != tc.wantFatal {
			t.Errorf("Describe(%v) = %+v, want code %s fatal %v", tc.err, info, tc.wantCode, tc.wantFatal)
		}
		if len(info.Actions) == 0 || info.Message == "" {
			t.Errorf("Describe(%v) has no actions or message", tc.err)
		}
	}

	if Describe(nil) != nil {
		t.Error("Describe(nil) != nil")
	}
}

func TestClassifyLocateError(t *testing.T) {
	t.Parallel()

	if err := classifyLocateError(context.DeadlineExceeded); !errors.Is(err, ErrLocationTimeout) {
		t.Errorf("deadline classified as %v", err)
	}
	if err := classifyLocateError(ErrLocationPermissionDenied); !errors.Is(err, ErrLocationPermissionDenied) {
		t.Errorf("permission classified as %v", err)
	}
}
