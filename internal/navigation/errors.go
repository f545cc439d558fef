package navigation

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrLocationUnsupported is returned when the device has no location capability.
	ErrLocationUnsupported = errors.New("location unsupported")

	// ErrLocationPermissionDenied is returned when the user declined location access.
	ErrLocationPermissionDenied = errors.New("location permission denied")

	// ErrLocationTimeout is returned when an initial position could not be acquired in time.
	ErrLocationTimeout = errors.New("location timeout")

	// ErrRouteUnavailable is returned when the directions provider failed or found no path.
	ErrRouteUnavailable = errors.New("route unavailable")

	// ErrTrackingInterrupted is reported when the live position subscription errors mid-session.
	ErrTrackingInterrupted = errors.New("tracking interrupted")

	// ErrInvalidProfile is returned for an unknown travel profile.
	ErrInvalidProfile = errors.New("invalid travel profile")

	// ErrInvalidDestination is returned when the destination coordinates are invalid.
	ErrInvalidDestination = errors.New("invalid destination")

	// ErrInvalidTransition is returned when an action is not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrRouteSuperseded is returned when a route response arrives after a
	// newer request was issued; the response is discarded.
	ErrRouteSuperseded = errors.New("route request superseded")

	// ErrSessionClosed is returned for any action on a closed session.
	ErrSessionClosed = errors.New("navigation session closed")
)

// RouteError describes a failed route acquisition for a profile.
type RouteError struct {
	Profile TravelProfile
	Err     error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("route unavailable for %s: %v", e.Profile, e.Err)
}

// Unwrap exposes both ErrRouteUnavailable and the underlying cause.
func (e *RouteError) Unwrap() []error {
	return []error{ErrRouteUnavailable, e.Err}
}

// Action is the next step offered to the user alongside an error.
type Action string

const (
	ActionRetry             Action = "retry"
	ActionSwitchProfile     Action = "switch_profile"
	ActionOpenExternalMap   Action = "open_external_map"
	ActionRequestPermission Action = "request_permission"
	ActionDismiss           Action = "dismiss"
)

// ErrorInfo is the user-visible, dismissible rendition of an error.
type ErrorInfo struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Actions []Action `json:"actions"`
	Fatal   bool     `json:"fatal"`
}

// Describe converts err into an ErrorInfo. Every result carries at least one
// action so the user is never left at a dead end.
func Describe(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrLocationUnsupported):
		return &ErrorInfo{
			Code:    "location_unsupported",
			Message: "This device cannot share its location. Open the route in an external map instead.",
			Actions: []Action{ActionOpenExternalMap},
			Fatal:   true,
		}
	case errors.Is(err, ErrLocationPermissionDenied):
		return &ErrorInfo{
			Code:    "location_permission_denied",
			Message: "Location access was denied.",
			Actions: []Action{ActionRequestPermission, ActionOpenExternalMap},
		}
	case errors.Is(err, ErrLocationTimeout):
		return &ErrorInfo{
			Code:    "location_timeout",
			Message: "Your location is unavailable right now.",
			Actions: []Action{ActionRetry, ActionOpenExternalMap},
		}
	case errors.Is(err, ErrTrackingInterrupted):
		return &ErrorInfo{
			Code:    "tracking_interrupted",
			Message: "Live tracking was interrupted. Showing your last known position.",
			Actions: []Action{ActionDismiss, ActionRetry},
		}
	case errors.Is(err, ErrRouteUnavailable):
		return &ErrorInfo{
			Code:    "route_unavailable",
			Message: "We could not compute a route.",
			Actions: []Action{ActionRetry, ActionSwitchProfile, ActionOpenExternalMap},
		}
	case errors.Is(err, ErrSessionClosed):
		return &ErrorInfo{
			Code:    "session_closed",
			Message: "Navigation has ended.",
			Actions: []Action{ActionDismiss},
		}
	default:
		return &ErrorInfo{
			Code:    "navigation_error",
			Message: err.Error(),
			Actions: []Action{ActionDismiss, ActionOpenExternalMap},
		}
	}
}

// classifyLocateError maps a single-shot acquisition failure onto the
// location taxonomy. Anything that is not a hard capability or permission
// failure is transient and reported as a timeout.
func classifyLocateError(err error) error {
	if errors.Is(err, ErrLocationUnsupported) ||
		errors.Is(err, ErrLocationPermissionDenied) ||
		errors.Is(err, ErrLocationTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: no position within deadline", ErrLocationTimeout)
	}
	return fmt.Errorf("%w: %v", ErrLocationTimeout, err)
}
