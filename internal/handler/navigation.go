package handler

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"culturaviva/internal/directions"
	"culturaviva/internal/geo"
	"culturaviva/internal/navigation"
	"culturaviva/internal/redis"
	"culturaviva/internal/service"
)

const (
	defaultNearbyRadiusKm = 1.0
	maxNearbyRadiusKm     = 50.0
)

// NavigationConfig tunes the sessions hosted by NavigationHandler.
type NavigationConfig struct {
	ArrivalThresholdMeters float64
	LocateTimeout          time.Duration
}

// NavigationHandler handles HTTP and WebSocket requests for navigation.
type NavigationHandler struct {
	directionsService *service.DirectionsService
	positions         redis.PositionStoreInterface
	events            redis.EventPublisherInterface
	cfg               NavigationConfig
	logger            *slog.Logger
}

// NewNavigationHandler creates a new NavigationHandler. positions and events
// may be nil.
func NewNavigationHandler(
	directionsService *service.DirectionsService,
	positions redis.PositionStoreInterface,
	events redis.EventPublisherInterface,
	cfg NavigationConfig,
	logger *slog.Logger,
) *NavigationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NavigationHandler{
		directionsService: directionsService,
		positions:         positions,
		events:            events,
		cfg:               cfg,
		logger:            logger,
	}
}

// MapsLinkResponse is the HTTP response for an external map deep link.
type MapsLinkResponse struct {
	URL string `json:"url"`
}

// NearbyResponse is the HTTP response for a nearby sessions query.
type NearbyResponse struct {
	Sessions []redis.SessionPosition `json:"sessions"`
	Count    int                     `json:"count"`
}

// Directions handles POST /navigation/directions
func (h *NavigationHandler) Directions(c *gin.Context) {
	var req directions.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	profile, err := navigation.ParseProfile(req.Profile)
	if err != nil {
		respondError(c, err)
		return
	}

	start, end := req.Points()
	resp, err := h.directionsService.Directions(c.Request.Context(), start, end, profile)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, resp)
}

// MapsLink handles GET /navigation/maps-link
func (h *NavigationHandler) MapsLink(c *gin.Context) {
	dest, err := queryPoint(c)
	if err != nil {
		respondError(c, err)
		return
	}

	profile := navigation.ProfileWalking
	if raw := c.Query("profile"); raw != "" {
		if profile, err = navigation.ParseProfile(raw); err != nil {
			respondError(c, err)
			return
		}
	}

	respondJSON(c, http.StatusOK, MapsLinkResponse{URL: navigation.ExternalMapsURL(dest, profile)})
}

// Nearby handles GET /navigation/nearby
func (h *NavigationHandler) Nearby(c *gin.Context) {
	center, err := queryPoint(c)
	if err != nil {
		respondError(c, err)
		return
	}

	radius := defaultNearbyRadiusKm
	if raw := c.Query("radius_km"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid radius_km"})
			return
		}
		radius = math.Min(radius, maxNearbyRadiusKm)
	}

	if h.positions == nil {
		respondJSON(c, http.StatusOK, NearbyResponse{Sessions: []redis.SessionPosition{}})
		return
	}

	sessions, err := h.positions.FindNearby(c.Request.Context(), center, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []redis.SessionPosition{}
	}

	respondJSON(c, http.StatusOK, NearbyResponse{Sessions: sessions, Count: len(sessions)})
}

// queryPoint reads the lat and lng query parameters.
func queryPoint(c *gin.Context) (geo.Point, error) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	p := geo.Point{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !p.Valid() {
		return geo.Point{}, service.ErrInvalidLocation
	}
	return p, nil
}
