package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	fetchBodyLimit = 512 * 1024
	fetchUserAgent = "Mozilla/5.0 (compatible; CrateBot/1.0)"
)

// DirectFetcher fetches pages via net/http. Free, no actor credits. Callers
// run IsBlocked on the markup and fall back to the actor gateway when a
// surface refuses plain fetches.
type DirectFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewDirectFetcher creates a fetcher capped at rps requests per second
// across all callers.
func NewDirectFetcher(rps float64) *DirectFetcher {
	if rps <= 0 {
		rps = 1
	}
	return &DirectFetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Fetch retrieves a URL and returns its raw markup. Rate-limited; blocks
// until the limiter grants a slot or the context ends.
func (f *DirectFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "fetch: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "fetch: execute")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchBodyLimit))
	if err != nil {
		return "", eris.Wrap(err, "fetch: read body")
	}

	if resp.StatusCode >= 400 {
		return "", eris.Errorf("fetch: %s returned status %d", targetURL, resp.StatusCode)
	}

	return string(body), nil
}
