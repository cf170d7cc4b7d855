package scoring

import (
	"math"
	"sort"

	"EarnScan/internal/domain/models"
)

// DefaultMinQuality is the score an opportunity must exceed to be kept.
const DefaultMinQuality = 5

// QualityBreakdown holds the weighted parts of a quality score.
type QualityBreakdown struct {
	Base       float64
	DataBonus  float64
	Volatility float64 // weight 30
	Timing     float64 // weight 25
	Liquidity  float64 // weight 20
	Technical  float64 // weight 15
}

// Total is the rounded sum. It is not clamped to 100.
func (b QualityBreakdown) Total() int {
	return int(math.Round(b.Base + b.DataBonus + b.Volatility + b.Timing + b.Liquidity + b.Technical))
}

// ScoreQuality computes the composite quality of an enriched opportunity.
// The weights and bands are calibrated values; keep them as they are.
func ScoreQuality(o models.Opportunity) QualityBreakdown {
	b := QualityBreakdown{Base: 10}
	v := o.Volatility

	if v != nil {
		b.DataBonus += 10
		if v.HistoricalVolatility > 0 {
			b.DataBonus += 5
		}
	}

	switch vs := o.VolatilityScore; {
	case vs > 70:
		b.Volatility = 30
	case vs > 50:
		b.Volatility = 24
	case vs > 30:
		b.Volatility = 18
	case vs > 10:
		b.Volatility = 12
	default:
		b.Volatility = 6
	}

	switch d := o.DaysToEarnings; {
	case d >= 14 && d <= 21:
		b.Timing = 25
	case d >= 10 && d <= 28:
		b.Timing = 17.5
	case d >= 5 && d <= 35:
		b.Timing = 10
	default:
		b.Timing = 5
	}

	if v != nil {
		switch vol := v.OptionsVolume; {
		case vol > 10000:
			b.Liquidity = 20
		case vol > 5000:
			b.Liquidity = 14
		case vol > 1000:
			b.Liquidity = 8
		case vol > 0:
			b.Liquidity = 4
		}

		if v.RSI != nil {
			switch rsi := *v.RSI; {
			case rsi > 70 || rsi < 30:
				b.Technical = 15
			case rsi > 60 || rsi < 40:
				b.Technical = 7.5
			default:
				b.Technical = 3
			}
		}
	}

	return b
}

// QualityScore is ScoreQuality(o).Total().
func QualityScore(o models.Opportunity) int {
	return ScoreQuality(o).Total()
}

// TopByQuality drops opportunities without volatility data or with a score
// not above minQuality, then returns the best k by quality.
func TopByQuality(opps []models.Opportunity, minQuality, k int) []models.Opportunity {
	out := make([]models.Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.Volatility == nil || o.QualityScore <= minQuality {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].QualityScore > out[j].QualityScore
	})
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
