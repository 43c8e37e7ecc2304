package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")

	// ErrNotConfigured is returned by providers missing credentials.
	ErrNotConfigured = errors.New("provider not configured")
)

// DefaultBackoff is used unless a provider is built WithBackoff.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// Option customizes a provider.
type Option func(*base)

// WithBaseURL points the provider at a different endpoint root.
func WithBaseURL(u string) Option {
	return func(b *base) { b.baseURL = u }
}

// WithBackoff replaces the retry schedule.
func WithBackoff(cfg BackoffConfig) Option {
	return func(b *base) { b.httpCfg.Backoff = cfg }
}

// base holds what every HTTP provider shares.
type base struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func newBase(name, baseURL string, client *http.Client, opts []Option) base {
	b := base{
		name:    name,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) Name() string {
	return b.name
}

// delay is the wait before retry number attempt (0-based), doubling from
// InitialInterval and capped at MaxInterval when one is set.
func (c BackoffConfig) delay(attempt int) time.Duration {
	d := c.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
	if c.MaxInterval > 0 && d > c.MaxInterval {
		return c.MaxInterval
	}
	return d
}

// checkStatus sorts a response into success, a retryable failure (429, 5xx)
// or a permanent one. The body is closed on failure.
func checkStatus(resp *http.Response) (*http.Response, error) {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return resp, nil
	}
	resp.Body.Close()
	switch {
	case code == http.StatusTooManyRequests:
		return nil, errRateLimited
	case code >= 500:
		return nil, fmt.Errorf("%w: %d", errServerError, code)
	default:
		return nil, fmt.Errorf("%w: %d", errUnexpected, code)
	}
}

// get issues a GET through the circuit breaker, retrying rate limits, server
// errors and transport failures with exponential backoff. Other 4xx
// responses fail immediately.
func (b *base) get(ctx context.Context, u string, header http.Header) (*http.Response, error) {
	cfg := b.httpCfg
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		for k, vs := range header {
			req.Header[k] = append(req.Header[k], vs...)
		}

		out, err := b.circuit.Execute(func() (any, error) {
			resp, err := cfg.Client.Do(req)
			if err != nil {
				return nil, err
			}
			return checkStatus(resp)
		})
		switch {
		case err == nil:
			return out.(*http.Response), nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, fmt.Errorf("%s: %w: %v", b.name, errCircuitOpen, err)
		case errors.Is(err, errUnexpected), ctx.Err() != nil:
			return nil, err
		case attempt >= cfg.Backoff.MaxRetries:
			return nil, fmt.Errorf("%s: giving up after %d attempts: %w", b.name, attempt+1, err)
		}

		timer := time.NewTimer(cfg.Backoff.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// cityQuery renders "city,country" for APIs that accept free-text places.
func cityQuery(city, country string) string {
	if country == "" {
		return city
	}
	return city + "," + country
}

func unixOrNow(sec int64) time.Time {
	if sec <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(sec, 0).UTC()
}
