package locate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultFetchTimeout bounds a single cycle request.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultFetchAttempts is how often a cycle request is tried before
	// giving up.
	DefaultFetchAttempts = 3

	defaultFetchBackoff = 250 * time.Millisecond

	// a cycle is a handful of readings; anything bigger is not one
	maxCycleBytes = 1 << 20
)

// errPermanent marks fetch failures that retrying cannot fix.
var errPermanent = errors.New("permanent")

// FetchOption configures FetchCycle.
type FetchOption func(*fetcher)

type fetcher struct {
	client   *http.Client
	timeout  time.Duration
	attempts int
	backoff  time.Duration
}

// WithFetchTimeout sets the per-request timeout. Ignored with WithHTTPClient.
func WithFetchTimeout(d time.Duration) FetchOption {
	return func(f *fetcher) { f.timeout = d }
}

// WithFetchAttempts sets the number of attempts, at least one.
func WithFetchAttempts(n int) FetchOption {
	return func(f *fetcher) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// WithFetchBackoff sets the delay before the second attempt. Later attempts
// double it.
func WithFetchBackoff(d time.Duration) FetchOption {
	return func(f *fetcher) { f.backoff = d }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(f *fetcher) { f.client = c }
}

// IsCycleURL reports whether source names an HTTP(S) endpoint rather than a
// file.
func IsCycleURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// FetchCycle GETs a JSON observation cycle from url, typically the robot's
// own HTTP API. Network errors and 5xx responses are retried with
// exponential backoff; 4xx responses and undecodable bodies are not.
func FetchCycle(ctx context.Context, url string, opts ...FetchOption) (*Cycle, error) {
	if url == "" {
		return nil, fmt.Errorf("fetch cycle: empty URL")
	}

	f := fetcher{
		timeout:  DefaultFetchTimeout,
		attempts: DefaultFetchAttempts,
		backoff:  defaultFetchBackoff,
	}
	for _, opt := range opts {
		opt(&f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: f.timeout}
	}

	var lastErr error
	delay := f.backoff
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch cycle: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		body, err := f.get(ctx, url)
		if errors.Is(err, errPermanent) {
			return nil, fmt.Errorf("fetch cycle: %w", err)
		}
		if err != nil {
			lastErr = err
			continue
		}

		cycle, err := DecodeCycle(body)
		if err != nil {
			return nil, fmt.Errorf("fetch cycle from %s: %w", url, err)
		}
		return cycle, nil
	}
	return nil, fmt.Errorf("fetch cycle: gave up after %d attempts: %w", f.attempts, lastErr)
}

func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", errPermanent, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: GET %s: status %d", errPermanent, url, resp.StatusCode)
	default:
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCycleBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return body, nil
}
