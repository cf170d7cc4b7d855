package usecase

import (
	"context"
	"errors"
	"time"

	"EarnScan/internal/domain/models"
	drepo "EarnScan/internal/domain/repository"
	applogger "EarnScan/pkg/logger"
)

// DefaultVolatilityIndexSymbol is the benchmark queried for the market regime.
const DefaultVolatilityIndexSymbol = "VIX"

var errNoQuote = errors.New("quote unavailable")

// ClassifyRegime maps a volatility index level to a regime.
func ClassifyRegime(level float64) models.Regime {
	switch {
	case level > 30:
		return models.RegimeHighVolatility
	case level > 20:
		return models.RegimeElevatedVolatility
	case level < 15:
		return models.RegimeLowVolatility
	default:
		return models.RegimeNormal
	}
}

// MarketContextProbe reads the volatility index once and classifies it.
// It never fails: any problem yields an unknown regime.
type MarketContextProbe struct {
	quotes  drepo.QuoteSource
	symbol  string
	metrics drepo.Metrics
	log     *applogger.Logger
	now     func() time.Time
}

// NewMarketContextProbe creates a probe for symbol, or the default index when empty.
func NewMarketContextProbe(quotes drepo.QuoteSource, symbol string, metrics drepo.Metrics, l *applogger.Logger) *MarketContextProbe {
	if symbol == "" {
		symbol = DefaultVolatilityIndexSymbol
	}
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &MarketContextProbe{quotes: quotes, symbol: symbol, metrics: metrics, log: l, now: time.Now}
}

// Probe returns the current market context.
func (p *MarketContextProbe) Probe(ctx context.Context) models.MarketContext {
	mc := models.MarketContext{Regime: models.RegimeUnknown, LastUpdated: p.now()}

	level, err := p.quotes.Quote(ctx, p.symbol)
	if err == nil && level <= 0 {
		// upstream answers unknown symbols with a zero quote
		err = errNoQuote
	}
	if err != nil {
		p.metrics.RecordError("market_context")
		p.log.Warn("market context unavailable",
			applogger.String("symbol", p.symbol),
			applogger.Error(err),
		)
		return mc
	}

	mc.VIX = &level
	mc.Regime = ClassifyRegime(level)
	return mc
}
