package features

import (
	"math"

	"EarnScan/internal/domain/models"
)

// IVHVRatio returns implied over historical volatility, or 0 when HV is unknown.
func IVHVRatio(v *models.VolatilityRecord) float64 {
	if v == nil || v.HistoricalVolatility <= 0 {
		return 0
	}
	return v.ImpliedVolatility / v.HistoricalVolatility
}

// VolatilityScore rates how rich options are on a 0..100 scale: implied
// volatility scaled by the IV/HV ratio clamped to [0.5, 2].
func VolatilityScore(v *models.VolatilityRecord) float64 {
	if v == nil {
		return 0
	}
	if v.HistoricalVolatility <= 0 {
		return clamp(v.ImpliedVolatility, 0, 100)
	}
	return clamp(v.ImpliedVolatility*clamp(IVHVRatio(v), 0.5, 2), 0, 100)
}

// ExpectedMove returns the expected dollar move into the event. The service
// value wins; otherwise it is price * IV * sqrt(days/365).
func ExpectedMove(v *models.VolatilityRecord, daysToEarnings int) float64 {
	if v == nil {
		return 0
	}
	if v.ExpectedMove != nil {
		return *v.ExpectedMove
	}
	if daysToEarnings <= 0 || v.CurrentPrice <= 0 {
		return 0
	}
	return v.CurrentPrice * v.ImpliedVolatility / 100 * math.Sqrt(float64(daysToEarnings)/365)
}

// ExpectedMovePct is ExpectedMove as a percentage of the current price.
func ExpectedMovePct(v *models.VolatilityRecord, daysToEarnings int) float64 {
	if v == nil || v.CurrentPrice <= 0 {
		return 0
	}
	return ExpectedMove(v, daysToEarnings) / v.CurrentPrice * 100
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
