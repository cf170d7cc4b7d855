package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EarnScan/internal/domain/models"
	applogger "EarnScan/pkg/logger"
)

func engineOpps(syms ...string) []models.Opportunity {
	out := make([]models.Opportunity, len(syms))
	for i, s := range syms {
		out[i] = models.Opportunity{
			CalendarEvent:  event(s, "2025-03-24"),
			DaysToEarnings: 14,
			Volatility:     richVol(),
			QualityScore:   80,
		}
	}
	return out
}

func newTestEngine(gen *fakeGenerator, m *fakeMetrics) *AnalysisEngine {
	e := NewAnalysisEngine(gen, m, applogger.Nop())
	e.now = fixedClock
	return e
}

func resultSymbols(rs []models.AnalysisResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Analysis.Symbol
	}
	return out
}

func TestAnalysisEngine_BatchSuccess(t *testing.T) {
	gen := &fakeGenerator{replies: []fakeReply{{text: "Here you go.\n\n=== AAPL ===\n" + analysisReply(8, "STRONGLY CONSIDER") +
		"\n**=== MSFT ===**\n" + analysisReply(3, "STAY AWAY")}}}

	got := newTestEngine(gen, newFakeMetrics()).Analyze(context.Background(), engineOpps("AAPL", "MSFT"), models.MarketContext{Regime: models.RegimeNormal})

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "=== SYMBOL ===")
	assert.Contains(t, gen.prompts[0], "Answer for all of: AAPL, MSFT.")

	require.Equal(t, []string{"AAPL", "MSFT"}, resultSymbols(got))
	require.NotNil(t, got[0].Analysis.SentimentScore)
	assert.Equal(t, 8, *got[0].Analysis.SentimentScore)
	assert.Equal(t, models.RecommendStronglyConsider, got[0].Analysis.Recommendation)
	assert.Equal(t, models.RecommendStayAway, got[1].Analysis.Recommendation)
	assert.NotContains(t, got[0].Analysis.RawAnalysis, "MSFT")
	assert.Equal(t, "AAPL", got[0].Opportunity.Symbol)
	assert.Equal(t, testNow, got[0].Timestamp)
}

func TestAnalysisEngine_MissingSliceDropsOnlyThatSubject(t *testing.T) {
	gen := &fakeGenerator{replies: []fakeReply{{text: "=== AAPL ===\n" + analysisReply(7, "NEUTRAL")}}}
	m := newFakeMetrics()

	got := newTestEngine(gen, m).Analyze(context.Background(), engineOpps("AAPL", "MSFT"), models.MarketContext{})

	assert.Len(t, gen.prompts, 1)
	assert.Equal(t, []string{"AAPL"}, resultSymbols(got))
	assert.Equal(t, 1, m.errors["analysis"])
}

func TestAnalysisEngine_BatchErrorFallsBackPerSubject(t *testing.T) {
	gen := &fakeGenerator{replies: []fakeReply{
		{err: errBoom},
		{text: analysisReply(6, "NEUTRAL")},
		{text: analysisReply(9, "STRONGLY CONSIDER")},
	}}

	got := newTestEngine(gen, newFakeMetrics()).Analyze(context.Background(), engineOpps("AAPL", "MSFT"), models.MarketContext{})

	require.Len(t, gen.prompts, 3)
	assert.NotContains(t, gen.prompts[1], "=== ")
	assert.Contains(t, gen.prompts[1], "AAPL")
	assert.Contains(t, gen.prompts[2], "MSFT")
	assert.Equal(t, []string{"AAPL", "MSFT"}, resultSymbols(got))
}

func TestAnalysisEngine_UndelimitedReplyFallsBack(t *testing.T) {
	gen := &fakeGenerator{replies: []fakeReply{
		{text: analysisReply(8, "STRONGLY CONSIDER")},
		{text: analysisReply(8, "STRONGLY CONSIDER")},
	}}

	got := newTestEngine(gen, newFakeMetrics()).Analyze(context.Background(), engineOpps("AAPL"), models.MarketContext{})

	assert.Len(t, gen.prompts, 2)
	assert.Equal(t, []string{"AAPL"}, resultSymbols(got))
}

func TestAnalysisEngine_FallbackDropsFailedSubjectAndContinues(t *testing.T) {
	gen := &fakeGenerator{replies: []fakeReply{
		{err: errBoom},
		{err: errBoom},
		{text: analysisReply(5, "NEUTRAL")},
	}}
	m := newFakeMetrics()

	got := newTestEngine(gen, m).Analyze(context.Background(), engineOpps("AAPL", "MSFT"), models.MarketContext{})

	assert.Len(t, gen.prompts, 3)
	assert.Equal(t, []string{"MSFT"}, resultSymbols(got))
	assert.Equal(t, 1, m.errors["analysis"])
}

func TestAnalysisEngine_EmptyInput(t *testing.T) {
	gen := &fakeGenerator{}

	got := newTestEngine(gen, newFakeMetrics()).Analyze(context.Background(), nil, models.MarketContext{})

	assert.Empty(t, got)
	assert.Empty(t, gen.prompts)
}

func TestResultHelpers(t *testing.T) {
	rs := []Result[int]{OK(1), Fail[int](errBoom), OK(3)}
	assert.Equal(t, []int{1, 3}, Successes(rs))
	assert.Equal(t, []error{errBoom}, Failures(rs))
}
