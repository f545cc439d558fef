package directions

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNoRoute is returned when the provider answered but found no path.
var ErrNoRoute = errors.New("no route found")

// MaxErrorBodySize bounds the response body kept on an HTTPError.
const MaxErrorBodySize = 500

// HTTPError is a non-2xx answer from a directions endpoint.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	URL        string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Status, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s (status %d)", e.Status, e.StatusCode)
}

// checkResponse returns an *HTTPError for 4xx/5xx responses and closes
// their body. It returns nil otherwise.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize+1))
	resp.Body.Close()

	text := ""
	if err == nil {
		text = truncate(string(body), MaxErrorBodySize)
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Body:       text,
		URL:        resp.Request.URL.String(),
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
