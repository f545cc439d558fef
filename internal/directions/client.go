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

// Client calls a culturaviva directions endpoint and implements
// navigation.Router for embedders that run the session on the device side.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ navigation.Router = (*Client)(nil)

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Route posts a directions request and converts the answer. Every failure
// is reported as a *navigation.RouteError.
func (c *Client) Route(ctx context.Context, start, end geo.Point, profile navigation.TravelProfile) (*navigation.Route, error) {
	resp, err := c.Directions(ctx, NewRequest(start, end, profile))
	if err != nil {
		return nil, &navigation.RouteError{Profile: profile, Err: err}
	}

	route, err := ToRoute(resp)
	if err != nil {
		return nil, &navigation.RouteError{Profile: profile, Err: err}
	}
	return route, nil
}

// Directions posts req and returns the raw wire response.
func (c *Client) Directions(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/navigation/directions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
