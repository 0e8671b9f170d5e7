// Package httpclient provides the HTTP client used to talk to remote photo services
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize is the maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// DefaultMaxTries is the number of attempts made for a request answered with a
	// temporary failure status
	DefaultMaxTries = 3

	// maxRetryAfter caps the wait a Retry-After header can impose
	maxRetryAfter = 60

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "mosaic-wall/1.0"
)

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request and returns the response body
	Get(ctx context.Context, url string) ([]byte, error)
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithRateLimit limits outgoing requests to rps per second with a burst of one.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *DefaultClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxTries sets how many attempts are made for requests failing with a temporary status
func WithMaxTries(tries uint) Option {
	return func(c *DefaultClient) {
		if tries > 0 {
			c.maxTries = tries
		}
	}
}

// WithInitialInterval sets the first retry interval of the exponential backoff
func WithInitialInterval(d time.Duration) Option {
	return func(c *DefaultClient) {
		c.initialInterval = d
	}
}

// WithAccept overrides the Accept header, e.g. for image downloads
func WithAccept(accept string) Option {
	return func(c *DefaultClient) {
		c.accept = accept
	}
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client          *http.Client
	timeout         time.Duration
	limiter         *rate.Limiter
	maxTries        uint
	initialInterval time.Duration
	accept          string
}

// NewDefaultClient creates a new default HTTP client with the specified timeout
// If timeout is 0, uses DefaultTimeout
func NewDefaultClient(timeout time.Duration, opts ...Option) Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout:         timeout,
		maxTries:        DefaultMaxTries,
		initialInterval: backoff.DefaultInitialInterval,
		accept:          "application/json",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request. Responses with a 5xx status are retried with
// exponential backoff and 429 responses after the delay their Retry-After header
// asks for. Every other failure is returned immediately.
func (c *DefaultClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.initialInterval

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return c.get(ctx, rawURL)
	}, backoff.WithBackOff(expo), backoff.WithMaxTries(c.maxTries))

	// out of tries while still throttled
	var retryAfter *backoff.RetryAfterError
	if errors.As(err, &retryAfter) {
		return nil, NewHTTPError(http.StatusTooManyRequests, rawURL, http.StatusText(http.StatusTooManyRequests))
	}
	return body, err
}

// get performs a single attempt. Errors that must not be retried are wrapped with
// backoff.Permanent.
func (c *DefaultClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("rate limiter wait failed: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", c.accept)

	resp, err := c.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = RedactURL(urlErr.URL)
		}
		return nil, backoff.Permanent(fmt.Errorf("failed to execute request: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, failure(resp, rawURL)
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf(
			"response size %d bytes exceeds maximum allowed size of %d bytes (%.2f MB)",
			resp.ContentLength, MaxResponseSize, float64(MaxResponseSize)/(1024*1024)))
	}

	// +1 to detect if limit exceeded
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
	}

	if int64(len(body)) > MaxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf("response size exceeds maximum allowed size of %d bytes (%.2f MB)",
			MaxResponseSize, float64(MaxResponseSize)/(1024*1024)))
	}

	return body, nil
}

// failure classifies a non-200 response for backoff.Retry
func failure(resp *http.Response, rawURL string) error {
	err := NewHTTPError(resp.StatusCode, rawURL, http.StatusText(resp.StatusCode))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if seconds, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && seconds >= 0 {
			return backoff.RetryAfter(min(seconds, maxRetryAfter))
		}
		return err
	case resp.StatusCode >= http.StatusInternalServerError:
		return err
	default:
		return backoff.Permanent(err)
	}
}
