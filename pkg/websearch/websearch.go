// Package websearch fetches short encyclopedic text for a query from public
// search endpoints.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoResult is returned when sources failed and none produced text.
var ErrNoResult = errors.New("no result")

const defaultTimeout = 10 * time.Second

// Result is the text found for a query.
type Result struct {
	// Summary is a short abstract; Extended is longer article text and may
	// be empty.
	Summary  string
	Extended string
	URL      string

	// Source labels the service that answered, e.g. "Wikipedia".
	Source string
}

// Source is one search backend.
type Source interface {
	Name() string

	// Search returns an empty Result with a nil error when the backend had
	// nothing for the query.
	Search(ctx context.Context, query string) (Result, error)
}

// client is the HTTP plumbing shared by the sources.
type client struct {
	http      *http.Client
	userAgent string
}

func newClient(userAgent string, timeout time.Duration) client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return client{http: &http.Client{Timeout: timeout}, userAgent: userAgent}
}

func (c client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func (c client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
