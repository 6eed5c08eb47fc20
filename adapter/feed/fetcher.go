package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"newsdesk/domain"
)

// HTTPFetcher retrieves one feed document per call and parses it. Each fetch
// is a single attempt: no retries, no backoff.
type HTTPFetcher struct{ client *http.Client }

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %s", src.Label, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return Parse(string(body), src.Label), nil
}
