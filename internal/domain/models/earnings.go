package models

import "time"

// Session is the reporting session of an earnings release.
type Session string

const (
	SessionAfterClose  Session = "amc"
	SessionBeforeOpen  Session = "bmo"
	SessionUnspecified Session = ""
)

// CalendarEvent is one upstream earnings-calendar record.
type CalendarEvent struct {
	Symbol          string    `json:"symbol"`
	Date            time.Time `json:"date"`
	RevenueEstimate *float64  `json:"revenueEstimate,omitempty"`
	Hour            Session   `json:"hour,omitempty"`
}

// VolatilityRecord is the per-symbol snapshot returned by the volatility service.
// Volatilities are annualized percentages.
type VolatilityRecord struct {
	CurrentPrice         float64  `json:"currentPrice"`
	ImpliedVolatility    float64  `json:"impliedVolatility"`
	HistoricalVolatility float64  `json:"historicalVolatility"`
	RSI                  *float64 `json:"rsi,omitempty"`
	OptionsVolume        int64    `json:"optionsVolume"`
	ExpectedMove         *float64 `json:"expectedMove,omitempty"`
}

// Opportunity is a calendar event plus everything derived for it by the
// pipeline. Each stage returns new values; fields set by an earlier stage
// are never rewritten.
type Opportunity struct {
	CalendarEvent
	DaysToEarnings  int               `json:"daysToEarnings"`
	PrescreenScore  int               `json:"prescreenScore"`
	Volatility      *VolatilityRecord `json:"volatilityData,omitempty"`
	VolatilityScore float64           `json:"volatilityScore"`
	QualityScore    int               `json:"qualityScore"`
}

// HasVolatility reports whether volatility data was attached.
func (o Opportunity) HasVolatility() bool { return o.Volatility != nil }
