package scoring

import (
	"sort"

	"EarnScan/internal/domain/models"
)

// DefaultPrescreenTopK bounds how many candidates get a volatility lookup.
const DefaultPrescreenTopK = 8

// PrescreenScore is a cheap, offline ranking of a calendar event by company
// size, timing and reporting session. Higher is better; never negative.
func PrescreenScore(ev models.CalendarEvent, daysToEarnings int) int {
	return sizeScore(ev.RevenueEstimate) + timingScore(daysToEarnings) + sessionScore(ev.Hour)
}

func sizeScore(revenue *float64) int {
	if revenue == nil {
		// missing estimates are common for smaller names; stay neutral
		return 5
	}
	switch r := *revenue; {
	case r > 10e9:
		return 10
	case r > 1e9:
		return 7
	case r > 100e6:
		return 5
	default:
		return 3
	}
}

func timingScore(days int) int {
	switch {
	case days >= 7 && days <= 21:
		return 8
	case days >= 3 && days <= 30:
		return 5
	default:
		return 2
	}
}

func sessionScore(h models.Session) int {
	switch h {
	case models.SessionAfterClose:
		return 2
	case models.SessionBeforeOpen:
		return 1
	default:
		return 0
	}
}

// TopByPrescreen returns the k highest prescreen scores. Ties keep input order.
func TopByPrescreen(opps []models.Opportunity, k int) []models.Opportunity {
	out := make([]models.Opportunity, len(opps))
	copy(out, opps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PrescreenScore > out[j].PrescreenScore
	})
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
