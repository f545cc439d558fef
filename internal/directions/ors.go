package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"culturaviva/internal/geo"
	"culturaviva/internal/navigation"
)

// DefaultProviderURL is the public OpenRouteService endpoint.
const DefaultProviderURL = "https://api.openrouteservice.org"

// Provider computes routes in the wire format.
type Provider interface {
	Directions(ctx context.Context, start, end geo.Point, profile navigation.TravelProfile) (*Response, error)
}

// ORSProvider calls the OpenRouteService GeoJSON directions API.
type ORSProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewORSProvider creates a provider client. A nil client gets a default
// one with a 15 second timeout.
func NewORSProvider(baseURL, apiKey string, client *http.Client) *ORSProvider {
	if baseURL == "" {
		baseURL = DefaultProviderURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ORSProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

type orsRequest struct {
	Coordinates  [][2]float64 `json:"coordinates"`
	Instructions bool         `json:"instructions"`
}

type orsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
			Segments []struct {
				Steps []Step `json:"steps"`
			} `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

// Directions requests a route from start to end.
func (p *ORSProvider) Directions(ctx context.Context, start, end geo.Point, profile navigation.TravelProfile) (*Response, error) {
	body, err := json.Marshal(orsRequest{
		Coordinates:  [][2]float64{start.LngLat(), end.LngLat()},
		Instructions: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s/geojson", p.baseURL, profile.ProviderProfile())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json, application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Features) == 0 {
		return nil, ErrNoRoute
	}

	f := out.Features[0]
	result := &Response{
		Distance: f.Properties.Summary.Distance,
		Duration: f.Properties.Summary.Duration,
		Geometry: Geometry{Coordinates: make([][2]float64, 0, len(f.Geometry.Coordinates))},
	}
	for _, c := range f.Geometry.Coordinates {
		// Elevation, when present, is the third value.
		if len(c) < 2 {
			continue
		}
		result.Geometry.Coordinates = append(result.Geometry.Coordinates, [2]float64{c[0], c[1]})
	}
	for _, seg := range f.Properties.Segments {
		result.Steps = append(result.Steps, seg.Steps...)
	}

	return result, nil
}
