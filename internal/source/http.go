package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPSource fetches the table as JSON from a fixed URL.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for the given URL using the default client.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{url: url, client: http.DefaultClient}
}

// NewHTTPSourceWithClient creates a source with a caller-supplied client.
func NewHTTPSourceWithClient(url string, client *http.Client) *HTTPSource {
	return &HTTPSource{url: url, client: client}
}

// Name implements the Source interface.
func (s *HTTPSource) Name() string {
	return s.url
}

// Fetch implements the Source interface. One GET, one decode, no retry.
func (s *HTTPSource) Fetch(ctx context.Context) (*RawTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &FetchError{Source: s.url, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: s.url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var table RawTable
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, &FetchError{Source: s.url, Err: fmt.Errorf("decode body: %w", err)}
	}

	return &table, nil
}

// Ensure HTTPSource implements the Source interface.
var _ Source = (*HTTPSource)(nil)
