package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"EarnScan/internal/domain/models"
	xhttp "EarnScan/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newTestClient(url string) *Client {
	rc := xhttp.NewRetryClient(nil, xhttp.DefaultRetryPolicy(), xhttp.WithSleep(noSleep))
	return New(url, "secret", rc, nil)
}

func TestEarningsCalendar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendar/earnings", r.URL.Path)
		assert.Equal(t, "2026-10-18", r.URL.Query().Get("from"))
		assert.Equal(t, "2026-12-02", r.URL.Query().Get("to"))
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"earningsCalendar":[
			{"symbol":"aapl","date":"2026-10-29","hour":"amc","revenueEstimate":94500000000},
			{"symbol":"MSFT","date":"2026-10-28","hour":"BMO","revenueEstimate":null},
			{"symbol":"BAD","date":"not-a-date"},
			{"symbol":"","date":"2026-10-30"}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	from := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	events, err := c.EarningsCalendar(context.Background(), from, from.AddDate(0, 0, 45))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "AAPL", events[0].Symbol)
	assert.Equal(t, models.SessionAfterClose, events[0].Hour)
	require.NotNil(t, events[0].RevenueEstimate)
	assert.InDelta(t, 94.5e9, *events[0].RevenueEstimate, 1)
	assert.Equal(t, time.Date(2026, 10, 29, 0, 0, 0, 0, time.UTC), events[0].Date)

	assert.Equal(t, models.SessionBeforeOpen, events[1].Hour)
	assert.Nil(t, events[1].RevenueEstimate)
}

func TestEarningsCalendar_RetriesThenFails(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).EarningsCalendar(context.Background(), time.Now(), time.Now())
	require.Error(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))

	var apiErr *xhttp.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.NotContains(t, err.Error(), "secret")
}

func TestQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "VIX", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"c":17.42,"d":0.3,"dp":1.2,"h":18,"l":16.9,"o":17,"pc":17.1,"t":1760790000}`))
	}))
	defer srv.Close()

	v, err := newTestClient(srv.URL).Quote(context.Background(), "VIX")
	require.NoError(t, err)
	assert.InDelta(t, 17.42, v, 1e-9)
}

func TestQuote_Unauthorized(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Quote(context.Background(), "VIX")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, http.StatusUnauthorized, xhttp.StatusCode(err))
}
