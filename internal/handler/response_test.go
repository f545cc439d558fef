package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"culturaviva/internal/navigation"
	"culturaviva/internal/repository"
	"culturaviva/internal/service"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err  error
		want int
	}{
		{err: repository.ErrNotFound, want: http.StatusNotFound},
		{err: fmt.Errorf("get template: %w", repository.ErrNotFound), want: http.StatusNotFound},
		{err: service.ErrInvalidLocation, want: http.StatusBadRequest},
		{err: fmt.Errorf("%w: name is required", service.ErrInvalidTemplate), want: http.StatusBadRequest},
		{err: fmt.Errorf("%w: %q", navigation.ErrInvalidProfile, "boat"), want: http.StatusBadRequest},
		{err: service.ErrIssuanceInProgress, want: http.StatusConflict},
		{err: repository.ErrConflict, want: http.StatusConflict},
		{err: &navigation.RouteError{Profile: navigation.ProfileWalking, Err: errors.New("timeout")}, want: http.StatusBadGateway},
		{err: service.ErrCodeExhausted, want: http.StatusServiceUnavailable},
		{err: errors.New("disk on fire"), want: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
			t.Errorf("mapErrorToHTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestPositionError(t *testing.T) {
	t.Parallel()

	testCases := map[string]error{
		"permission_denied": navigation.ErrLocationPermissionDenied,
		"unsupported":       navigation.ErrLocationUnsupported,
		"timeout":           navigation.ErrLocationTimeout,
		"unavailable":       navigation.ErrLocationTimeout,
	}
	for code, want := range testCases {
		if got := positionError(code); !errors.Is(got, want) {
			t.Errorf("positionError(%q) = %v, want %v", code, got, want)
		}
	}
}
