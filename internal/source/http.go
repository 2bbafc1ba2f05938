// Package source provides the concrete historical database sources used by the
// resolver: a JSON document over HTTP, a SQLite file and a Postgres mirror.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gimpo-goldline/congestion/internal/history"
)

// maxBody caps the size of a fetched database document
const maxBody = 64 << 20

// HTTPSource fetches the JSON database from a URL
type HTTPSource struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPSource creates an HTTPSource. A nil client uses http.DefaultClient;
// deadlines come from the request context.
func NewHTTPSource(name, url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{name: name, url: url, client: client}
}

// Name implements resolver.Source
func (h *HTTPSource) Name() string {
	return h.name
}

// Fetch implements resolver.Source. Non-2xx responses are errors.
func (h *HTTPSource) Fetch(ctx context.Context) (*history.Database, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, h.url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return history.Decode(body)
}
