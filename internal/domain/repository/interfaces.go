package repository

import (
	"context"
	"time"

	"EarnScan/internal/domain/models"
)

// CalendarSource lists earnings events in a date range.
type CalendarSource interface {
	EarningsCalendar(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error)
}

// QuoteSource returns the current level of a symbol.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (float64, error)
}

// VolatilityGateway returns volatility snapshots for a batch of symbols.
// A symbol the service cannot cover maps to nil.
type VolatilityGateway interface {
	BulkVolatility(ctx context.Context, symbols []string, cacheHint string) (map[string]*models.VolatilityRecord, error)
}

// AnalysisPublisher ships validated analyses downstream.
type AnalysisPublisher interface {
	Publish(ctx context.Context, runID string, a models.ValidatedAnalysis) error
	Close() error
}

// ReportStore keeps the most recent scan report.
type ReportStore interface {
	SaveLatest(ctx context.Context, r *models.ScanReport) error
	Latest(ctx context.Context) (*models.ScanReport, error)
}

type Metrics interface {
	RecordStage(stage string, survivors int)
	RecordError(kind string)
	RecordRetry(endpoint, reason string)
	RecordPublished(symbol string)
	RecordQuality(symbol string, score int)
	RecordLatency(op string, seconds float64)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordStage(string, int)       {}
func (NopMetrics) RecordError(string)            {}
func (NopMetrics) RecordRetry(string, string)    {}
func (NopMetrics) RecordPublished(string)        {}
func (NopMetrics) RecordQuality(string, int)     {}
func (NopMetrics) RecordLatency(string, float64) {}

// Locker guards against concurrent scans across processes.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}
