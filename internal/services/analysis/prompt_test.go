package analysis

import (
	"strings"
	"testing"
	"time"

	"EarnScan/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(f float64) *float64 { return &f }

func sampleOpp(sym string) models.Opportunity {
	return models.Opportunity{
		CalendarEvent: models.CalendarEvent{
			Symbol: sym,
			Date:   time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC),
			Hour:   models.SessionAfterClose,
		},
		DaysToEarnings: 16,
		Volatility: &models.VolatilityRecord{
			CurrentPrice:         200,
			ImpliedVolatility:    45,
			HistoricalVolatility: 30,
			RSI:                  fp(68.3),
			OptionsVolume:        15000,
			ExpectedMove:         fp(12),
		},
		QualityScore: 84,
	}
}

func TestPromptBuilder_Single(t *testing.T) {
	mc := models.MarketContext{VIX: fp(18.4), Regime: models.RegimeNormal}
	p, err := NewPromptBuilder().Single(sampleOpp("AAPL"), mc)
	require.NoError(t, err)

	for _, want := range []string{
		"STOCK: AAPL",
		"EARNINGS DATE: 2026-11-03 (16 days away, after market close)",
		"CURRENT PRICE: $200.00",
		"EXPECTED MOVE: ±6.0% (±$12.00)",
		"IMPLIED VOLATILITY: 45.0%",
		"HISTORICAL VOLATILITY: 30.0% (IV/HV 1.50)",
		"RSI (14): 68.3",
		"QUALITY SCORE: 84/100",
		"MARKET CONTEXT: normal volatility, VIX 18.40",
		"**SENTIMENT SCORE:**",
		"**RECOMMENDATION:**",
		"**REASONING:**",
		"**STRATEGIES:**",
		"**KEY RISKS:**",
	} {
		assert.Contains(t, p, want)
	}
	assert.NotContains(t, p, "===")
}

func TestPromptBuilder_SingleWithoutData(t *testing.T) {
	o := sampleOpp("MSFT")
	o.Volatility = nil
	o.Hour = models.SessionUnspecified

	p, err := NewPromptBuilder().Single(o, models.MarketContext{Regime: models.RegimeUnknown})
	require.NoError(t, err)
	assert.Contains(t, p, "(16 days away)")
	assert.Contains(t, p, "CURRENT PRICE: n/a")
	assert.Contains(t, p, "MARKET CONTEXT: unknown (market data unavailable)")
}

func TestPromptBuilder_Batch(t *testing.T) {
	opps := []models.Opportunity{sampleOpp("AAPL"), sampleOpp("MSFT"), sampleOpp("NVDA")}
	mc := models.MarketContext{VIX: fp(32), Regime: models.RegimeHighVolatility}

	b := NewPromptBuilder()
	p, err := b.Batch(opps, mc)
	require.NoError(t, err)

	assert.Contains(t, p, "reviewing 3 upcoming earnings events")
	assert.Contains(t, p, "=== SYMBOL ===")
	assert.Contains(t, p, `"=== AAPL ==="`)
	assert.Contains(t, p, "Answer for all of: AAPL, MSFT, NVDA.")
	assert.Equal(t, 3, strings.Count(p, "STOCK: "))
	assert.Less(t, strings.Index(p, "STOCK: AAPL"), strings.Index(p, "STOCK: MSFT"))

	again, err := b.Batch(opps, mc)
	require.NoError(t, err)
	assert.Equal(t, p, again)

	_, err = b.Batch(nil, mc)
	assert.Error(t, err)
}
