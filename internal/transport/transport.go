// Package transport is the shared HTTP plumbing for the upstream API
// clients: request retries with exponential backoff and typed errors for
// non-2xx responses.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

// maxErrorBody caps how much of an error response is kept on StatusError.
const maxErrorBody = 4 * 1024

// RetryConfig controls exponential backoff for transient failures.
type RetryConfig struct {
	MaxRetries int           // retry attempts after the first (0 = no retry)
	BaseDelay  time.Duration // initial backoff delay
	MaxDelay   time.Duration // maximum backoff delay
}

// DefaultRetryConfig returns the retry policy used by the API clients.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

// NoRetry disables retries. Used by tests.
func NoRetry() RetryConfig {
	return RetryConfig{}
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP error: status %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the status is worth retrying (429 or 5xx).
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// StatusCode extracts the HTTP status from err, or 0 if err carries none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// RequestFunc builds a fresh request for each attempt.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Client executes requests with retry.
type Client struct {
	HTTP  *http.Client
	Retry RetryConfig
}

// New creates a Client with the default retry policy.
func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{HTTP: httpClient, Retry: DefaultRetryConfig()}
}

// Open performs the request and returns the 2xx response with its body
// unread. The caller must close the body. Network errors, 429 and 5xx are
// retried; other statuses fail immediately with a *StatusError.
func (c *Client) Open(ctx context.Context, build RequestFunc) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := Backoff(c.Retry.BaseDelay, c.Retry.MaxDelay, attempt-1)
			slog.Debug("retrying request", "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		se := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		if !se.Transient() {
			return nil, se
		}
		lastErr = se
	}

	if c.Retry.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.Retry.MaxRetries+1, lastErr)
}

// Do performs the request and returns the full body of the 2xx response.
func (c *Client) Do(ctx context.Context, build RequestFunc) ([]byte, error) {
	resp, err := c.Open(ctx, build)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// Backoff computes min(base * 2^attempt, max) with ±25% jitter.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	delay := base << uint(attempt)
	if delay > max || delay <= 0 {
		delay = max
	}

	quarter := delay / 4
	if quarter > 0 {
		jitter := time.Duration(rand.Int64N(int64(quarter*2))) - quarter
		delay += jitter
	}

	return delay
}
