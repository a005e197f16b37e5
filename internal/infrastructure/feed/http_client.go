// Package feed fetches raw event listings from the remote provider.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rahulNinjatech/fever/internal/domain/useCases"
)

// TransportError reports an unreachable provider or a non-200 response.
// The caller treats the whole ingestion cycle as skipped; the next scheduled
// tick tries again.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feed fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("feed fetch returned status %d", e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPClient performs one HTTP GET against the fixed provider endpoint.
// Success is strictly status 200. There is no retry here; retry policy belongs
// to the pipeline (which, by design, has none).
type HTTPClient struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

// NewHTTPClient creates a feed client. The timeout is the only bounded-wait
// guarantee the pipeline relies on.
func NewHTTPClient(url string, timeout time.Duration, log *slog.Logger) *HTTPClient {
	return &HTTPClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Ensure HTTPClient implements the FeedSource interface
var _ useCases.FeedSource = (*HTTPClient)(nil)

// Fetch returns the raw feed bytes or a TransportError.
func (c *HTTPClient) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	c.log.Debug("fetched provider feed", "bytes", len(raw))
	return raw, nil
}
