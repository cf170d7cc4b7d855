package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"EarnScan/internal/domain/models"
	xhttp "EarnScan/pkg/http"
	applogger "EarnScan/pkg/logger"
	"EarnScan/pkg/util"
)

// Client is a Finnhub REST client for the earnings calendar and quotes.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.RetryClient
	log     *applogger.Logger
}

// New creates a Finnhub client. All calls go through rc, which owns retries
// and request pacing.
func New(baseURL, apiKey string, rc *xhttp.RetryClient, l *applogger.Logger) *Client {
	if l == nil {
		l = applogger.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    rc,
		log:     l,
	}
}

type calendarResponse struct {
	EarningsCalendar []calendarItem `json:"earningsCalendar"`
}

type calendarItem struct {
	Symbol          string   `json:"symbol"`
	Date            string   `json:"date"`
	Hour            string   `json:"hour"`
	RevenueEstimate *float64 `json:"revenueEstimate"`
	EPSEstimate     *float64 `json:"epsEstimate"`
	Quarter         int      `json:"quarter"`
	Year            int      `json:"year"`
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// EarningsCalendar returns earnings events dated between from and to inclusive.
// Records with an unparseable date or empty symbol are skipped.
func (c *Client) EarningsCalendar(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	q := url.Values{}
	q.Set("from", util.FormatDate(from))
	q.Set("to", util.FormatDate(to))
	q.Set("token", c.apiKey)

	var resp calendarResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/calendar/earnings", q, &resp); err != nil {
		return nil, fmt.Errorf("finnhub calendar: %w", err)
	}

	events := make([]models.CalendarEvent, 0, len(resp.EarningsCalendar))
	skipped := 0
	for _, it := range resp.EarningsCalendar {
		date, ok := util.ParseDate(it.Date)
		sym := strings.ToUpper(strings.TrimSpace(it.Symbol))
		if !ok || sym == "" {
			skipped++
			continue
		}
		events = append(events, models.CalendarEvent{
			Symbol:          sym,
			Date:            date,
			RevenueEstimate: it.RevenueEstimate,
			Hour:            normalizeHour(it.Hour),
		})
	}

	if skipped > 0 {
		c.log.Debug("finnhub calendar: skipped malformed records", applogger.Int("count", skipped))
	}
	return events, nil
}

// Quote returns the current price of symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", c.apiKey)

	var resp quoteResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/quote", q, &resp); err != nil {
		return 0, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}
	return resp.Current, nil
}

func normalizeHour(h string) models.Session {
	switch strings.ToLower(strings.TrimSpace(h)) {
	case "amc":
		return models.SessionAfterClose
	case "bmo":
		return models.SessionBeforeOpen
	default:
		return models.SessionUnspecified
	}
}
