package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"EarnScan/internal/domain/models"
	"EarnScan/pkg/util"
)

var errBoom = errors.New("boom")

// 2025-03-10 12:00 UTC: events dated 2025-03-11 are one day out.
var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func date(s string) time.Time {
	t, ok := util.ParseDate(s)
	if !ok {
		panic("bad date " + s)
	}
	return t
}

func f64(v float64) *float64 { return &v }

func event(sym, day string) models.CalendarEvent {
	return models.CalendarEvent{Symbol: sym, Date: date(day), RevenueEstimate: f64(5e9), Hour: models.SessionAfterClose}
}

func richVol() *models.VolatilityRecord {
	return &models.VolatilityRecord{
		CurrentPrice:         150,
		ImpliedVolatility:    60,
		HistoricalVolatility: 30,
		RSI:                  f64(75),
		OptionsVolume:        20000,
	}
}

type fakeCalendar struct {
	events   []models.CalendarEvent
	err      error
	from, to time.Time
}

func (f *fakeCalendar) EarningsCalendar(_ context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	f.from, f.to = from, to
	return f.events, f.err
}

type fakeVolatility struct {
	data    map[string]*models.VolatilityRecord
	err     error
	symbols []string
	hint    string
	calls   int
}

func (f *fakeVolatility) BulkVolatility(_ context.Context, symbols []string, hint string) (map[string]*models.VolatilityRecord, error) {
	f.calls++
	f.symbols = append([]string(nil), symbols...)
	f.hint = hint
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*models.VolatilityRecord, len(symbols))
	for _, s := range symbols {
		out[s] = f.data[s]
	}
	return out, nil
}

type fakeQuotes struct {
	level  float64
	err    error
	symbol string
}

func (f *fakeQuotes) Quote(_ context.Context, symbol string) (float64, error) {
	f.symbol = symbol
	return f.level, f.err
}

type fakeReply struct {
	text string
	err  error
}

// fakeGenerator answers calls from a queue and records the prompts it saw.
type fakeGenerator struct {
	replies []fakeReply
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if len(f.replies) == 0 {
		return "", errBoom
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.text, r.err
}

func (f *fakeGenerator) Name() string { return "fake" }

type fakeMetrics struct {
	mu        sync.Mutex
	stages    map[string]int
	errors    map[string]int
	published []string
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{stages: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordStage(stage string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages[stage] = n
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordPublished(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, symbol)
}

func (m *fakeMetrics) RecordRetry(string, string)    {}
func (m *fakeMetrics) RecordQuality(string, int)     {}
func (m *fakeMetrics) RecordLatency(string, float64) {}

type fakePublisher struct {
	failFor string
	sent    []string
	runIDs  []string
}

func (f *fakePublisher) Publish(_ context.Context, runID string, a models.ValidatedAnalysis) error {
	if a.Opportunity.Symbol == f.failFor {
		return errBoom
	}
	f.sent = append(f.sent, a.Opportunity.Symbol)
	f.runIDs = append(f.runIDs, runID)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeStore struct {
	latest  *models.ScanReport
	saveErr error
}

func (f *fakeStore) SaveLatest(_ context.Context, r *models.ScanReport) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.latest = r
	return nil
}

func (f *fakeStore) Latest(context.Context) (*models.ScanReport, error) { return f.latest, nil }

type fakeLocker struct {
	held     bool
	err      error
	unlocked int
}

func (f *fakeLocker) TryLock(context.Context, string, time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLocker) Unlock(context.Context, string) error {
	f.held = false
	f.unlocked++
	return nil
}

// analysisReply is a well-formed single-subject answer.
func analysisReply(score int, rec string) string {
	return fmt.Sprintf(`**SENTIMENT SCORE:** %d
**RECOMMENDATION:** %s
**REASONING:** Implied volatility is rich into the print.
**STRATEGIES:**
1. **Iron Condor** - POP: 70%%, Risk: $200, Entry: open

**KEY RISKS:** Guidance surprise.
`, score, rec)
}
