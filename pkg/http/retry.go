package http

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// RetryPolicy decides whether and how long to wait before another attempt.
type RetryPolicy struct {
	Retries   int           // extra attempts after the first one
	BaseDelay time.Duration // delay before retry n is BaseDelay * 2^n
	MaxJitter time.Duration // uniform jitter in [0, MaxJitter] added on top of the exponential delay
	Retryable func(status int, err error) bool
}

// DefaultRetryPolicy retries 429, 5xx and network failures three times starting at 400ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:   3,
		BaseDelay: 400 * time.Millisecond,
		MaxJitter: 100 * time.Millisecond,
		Retryable: IsRetryable,
	}
}

// IsRetryable reports whether an attempt that ended with status/err may be retried.
// status is 0 when no response was received.
func IsRetryable(status int, err error) bool {
	if status == 0 {
		if err == nil {
			return false
		}
		return !errors.Is(err, context.Canceled)
	}
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

// Backoff returns the minimum delay before retry number attempt (0-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<uint(attempt))
}

func (p RetryPolicy) shouldRetry(status int, err error) bool {
	if p.Retryable == nil {
		return IsRetryable(status, err)
	}
	return p.Retryable(status, err)
}

// RetryOption configures RetryClient.
type RetryOption func(*RetryClient)

// RetryClient issues JSON requests and retries transient failures with
// exponential backoff plus jitter.
type RetryClient struct {
	client       *Client
	policy       RetryPolicy
	requestDelay time.Duration
	limiter      *rate.Limiter
	onRetry      func(endpoint, reason string, attempt int, delay time.Duration)
	sleep        func(ctx context.Context, d time.Duration) error
	jitter       func(max time.Duration) time.Duration
}

// NewRetryClient wraps client (or a default one) with policy.
func NewRetryClient(client *Client, policy RetryPolicy, opts ...RetryOption) *RetryClient {
	if client == nil {
		client = NewClient()
	}
	c := &RetryClient{
		client: client,
		policy: policy,
		sleep:  sleepContext,
		jitter: uniformJitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithRequestDelay pauses after every successful response to shape request rate.
func WithRequestDelay(d time.Duration) RetryOption {
	return func(c *RetryClient) {
		c.requestDelay = d
	}
}

// WithRateLimit gates every attempt through a token bucket of rps with burst 1.
func WithRateLimit(rps float64) RetryOption {
	return func(c *RetryClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetryHook is called before each backoff sleep.
func WithRetryHook(fn func(endpoint, reason string, attempt int, delay time.Duration)) RetryOption {
	return func(c *RetryClient) {
		c.onRetry = fn
	}
}

// WithSleep replaces the context-aware sleep, used by tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(c *RetryClient) {
		c.sleep = fn
	}
}

// WithJitter replaces the jitter source, used by tests.
func WithJitter(fn func(max time.Duration) time.Duration) RetryOption {
	return func(c *RetryClient) {
		c.jitter = fn
	}
}

// GetJSON performs a GET against endpoint with query and decodes the body into dest.
func (c *RetryClient) GetJSON(ctx context.Context, endpoint string, query url.Values, dest interface{}) error {
	return c.Do(ctx, &RequestOptions{
		Method:      MethodGet,
		URL:         endpoint,
		QueryParams: query,
	}, dest)
}

// Do sends opts with retries. After the budget is spent the last error is returned.
func (c *RetryClient) Do(ctx context.Context, opts *RequestOptions, dest interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.policy.Retries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		status, err := c.attempt(ctx, opts, dest)
		if err == nil {
			if c.requestDelay > 0 {
				return c.sleep(ctx, c.requestDelay)
			}
			return nil
		}
		lastErr = err

		if attempt == c.policy.Retries || !c.policy.shouldRetry(status, err) || ctx.Err() != nil {
			return lastErr
		}

		delay := c.policy.Backoff(attempt)
		if c.policy.MaxJitter > 0 {
			delay += c.jitter(c.policy.MaxJitter)
		}
		if c.onRetry != nil {
			c.onRetry(stripQuery(opts.URL), retryReason(status), attempt, delay)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// attempt returns the response status (0 on transport failure) and any error.
func (c *RetryClient) attempt(ctx context.Context, opts *RequestOptions, dest interface{}) (int, error) {
	resp, err := c.client.SendRequest(ctx, opts)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, newAPIError(resp, opts.URL)
	}
	return resp.StatusCode, decodeBody(resp.Body, dest)
}

func retryReason(status int) string {
	if status == 0 {
		return "network"
	}
	return strconv.Itoa(status)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func uniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max + 1)
}
