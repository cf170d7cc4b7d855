package models

import "time"

// Regime is a coarse market-wide volatility classification.
type Regime string

const (
	RegimeLowVolatility      Regime = "low-volatility"
	RegimeNormal             Regime = "normal"
	RegimeElevatedVolatility Regime = "elevated-volatility"
	RegimeHighVolatility     Regime = "high-volatility"
	RegimeUnknown            Regime = "unknown"
)

// Description is the human phrasing used in prompts.
func (r Regime) Description() string {
	switch r {
	case RegimeLowVolatility:
		return "low volatility (complacent market, options relatively cheap)"
	case RegimeNormal:
		return "normal volatility"
	case RegimeElevatedVolatility:
		return "elevated volatility (options premiums inflated)"
	case RegimeHighVolatility:
		return "high volatility (stressed market, wide swings likely)"
	default:
		return "unknown (market data unavailable)"
	}
}

// MarketContext is the benchmark reading taken once per run.
type MarketContext struct {
	VIX         *float64  `json:"vix"`
	Regime      Regime    `json:"marketRegime"`
	LastUpdated time.Time `json:"lastUpdated"`
}
