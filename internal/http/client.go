package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %s", e.URL, e.Status)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client wraps HTTP operations for the raw images feed and image hosts.
//
// Client provides:
//   - Configured User-Agent header
//   - Per-request timeout handling
//   - Bounded retries with exponential cooldown
//
// Example usage:
//
//	client := NewClient(WithTimeout(30*time.Second), WithRetries(2, 0.2, 4))
//
//	body, err := client.Get(ctx, "https://mars.nasa.gov/rss/api/?feed=raw_images&num=1")
type Client struct {
	httpClient *http.Client
	userAgent  string

	maxRetries    int
	retryCooldown float64
	retryExponent float64
	logger        *slog.Logger
	sleep         func(ctx context.Context, d time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRetries enables up to maxRetries additional attempts per request.
// The wait before retry n (0-based) is cooldown * exponent^n seconds.
func WithRetries(maxRetries int, cooldown, exponent float64) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryCooldown = cooldown
		c.retryExponent = exponent
	}
}

// WithHTTPClient replaces the underlying *http.Client. Useful in tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request and retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new HTTP client.
//
// Without options the client is configured with:
//   - 60 second timeout
//   - "ingenuity-dl" User-Agent header
//   - no retries
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		userAgent: "ingenuity-dl",
		logger:    slog.Default(),
		sleep:     waitFor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns an error if:
//   - The request fails after all retries
//   - The response status is not 2xx (a *StatusError)
//   - Reading the body fails
//
// Only transport errors, 429 and 5xx responses are retried.
//
// Example:
//
//	data, err := client.Get(ctx, "https://example.com/image.png")
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var (
		body []byte
		err  error
	)
	for tries := 0; ; tries++ {
		body, err = c.get(ctx, url)
		if err == nil || tries >= c.maxRetries || !retryable(ctx, err) {
			break
		}
		c.logger.DebugContext(ctx, "retrying request", "url", url, "attempt", tries+1, "max", c.maxRetries, "error", err)
		c.sleep(ctx, c.cooldown(tries))
	}
	return body, err
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.DebugContext(ctx, "GET", "url", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) cooldown(tries int) time.Duration {
	secs := c.retryCooldown * math.Pow(c.retryExponent, float64(tries))
	return time.Duration(secs * float64(time.Second))
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

func waitFor(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
