package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestRetryClient(rec *sleepRecorder, opts ...RetryOption) *RetryClient {
	base := []RetryOption{
		WithSleep(rec.sleep),
		WithJitter(func(time.Duration) time.Duration { return 0 }),
	}
	return NewRetryClient(NewClient(WithTimeout(2*time.Second)), DefaultRetryPolicy(), append(base, opts...)...)
}

// statusSequence serves the given statuses in order, then 200 with body.
func statusSequence(t *testing.T, hits *int32, body string, statuses ...int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(hits, 1)) - 1
		if n < len(statuses) {
			w.WriteHeader(statuses[n])
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBackoffIsExponential(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 400*time.Millisecond, p.Backoff(0))
	assert.Equal(t, 800*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 1600*time.Millisecond, p.Backoff(2))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		status int
		err    error
		want   bool
	}{
		{http.StatusTooManyRequests, errors.New("x"), true},
		{http.StatusInternalServerError, errors.New("x"), true},
		{http.StatusServiceUnavailable, errors.New("x"), true},
		{599, errors.New("x"), true},
		{http.StatusUnauthorized, errors.New("x"), false},
		{http.StatusForbidden, errors.New("x"), false},
		{http.StatusNotFound, errors.New("x"), false},
		{0, errors.New("connection reset"), true},
		{0, context.Canceled, false},
		{0, nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryable(tt.status, tt.err), "status=%d err=%v", tt.status, tt.err)
	}
}

func TestGetJSONRetriesRateLimitThenSucceeds(t *testing.T) {
	var hits int32
	srv := statusSequence(t, &hits, `{"c": 18.5}`, http.StatusTooManyRequests, http.StatusBadGateway)
	rec := &sleepRecorder{}
	c := newTestRetryClient(rec)

	var out struct {
		C float64 `json:"c"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, url.Values{"symbol": {"VIX"}}, &out))

	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, 18.5, out.C)
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 800 * time.Millisecond}, rec.delays)
}

func TestGetJSONExhaustsRetries(t *testing.T) {
	var hits int32
	srv := statusSequence(t, &hits, `{}`, 503, 503, 503, 503, 503)
	rec := &sleepRecorder{}
	c := newTestRetryClient(rec)

	err := c.GetJSON(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)

	assert.Equal(t, int32(4), atomic.LoadInt32(&hits), "attempts 0..retries inclusive")
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
	assert.Equal(t, "API error: Service Unavailable", err.Error())
	require.Len(t, rec.delays, 3)
	for i := 1; i < len(rec.delays); i++ {
		assert.Greater(t, rec.delays[i], rec.delays[i-1])
	}
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := statusSequence(t, &hits, `{}`, http.StatusUnauthorized)
	rec := &sleepRecorder{}
	c := newTestRetryClient(rec)

	err := c.GetJSON(context.Background(), srv.URL+"?token=secret", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Unauthorized", apiErr.Status)
	assert.NotContains(t, apiErr.Endpoint, "secret")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Empty(t, rec.delays)
}

func TestGetJSONRetriesNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	rec := &sleepRecorder{}
	var reasons []string
	c := newTestRetryClient(rec, WithRetryHook(func(_, reason string, _ int, _ time.Duration) {
		reasons = append(reasons, reason)
	}))

	err := c.GetJSON(context.Background(), addr, nil, nil)
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, []string{"network", "network", "network"}, reasons)
}

func TestRequestDelayOnlyAfterSuccess(t *testing.T) {
	var hits int32
	srv := statusSequence(t, &hits, `{}`, http.StatusInternalServerError)
	rec := &sleepRecorder{}
	c := newTestRetryClient(rec, WithRequestDelay(250*time.Millisecond))

	require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil, nil))
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 250 * time.Millisecond}, rec.delays)
}

func TestJitterIsAdditive(t *testing.T) {
	var hits int32
	srv := statusSequence(t, &hits, `{}`, http.StatusTooManyRequests)
	rec := &sleepRecorder{}
	c := NewRetryClient(NewClient(), DefaultRetryPolicy(),
		WithSleep(rec.sleep),
		WithJitter(func(max time.Duration) time.Duration { return max - time.Millisecond }),
	)

	require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil, nil))
	assert.Equal(t, []time.Duration{499 * time.Millisecond}, rec.delays)
}

func TestUniformJitterIncludesMax(t *testing.T) {
	const max = 3 * time.Nanosecond
	seen := map[time.Duration]bool{}
	for i := 0; i < 2000; i++ {
		d := uniformJitter(max)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, max)
		seen[d] = true
	}
	assert.True(t, seen[max])
	assert.Zero(t, uniformJitter(0))
}
