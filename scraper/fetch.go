package scraper

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Fetcher supplies raw page bodies. The real transport (rate limiting, proxy
// rotation, retries) lives behind this boundary; the pipeline only sees bytes
// or a classified PageError.
type Fetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is the plain-HTTP implementation used when no gateway is
// configured.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

func (f *HTTPFetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pageErr(ErrKindNetwork, url, "create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, pageErr(ErrKindNetwork, url, "%w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, pageErr(ErrKindBlocked, url, "status %d", resp.StatusCode)
	default:
		return nil, pageErr(ErrKindNetwork, url, "status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pageErr(ErrKindNetwork, url, "read body: %w", err)
	}
	return body, nil
}
