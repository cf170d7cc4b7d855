package features

import (
	"math"
	"testing"

	"EarnScan/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestVolatilityScore(t *testing.T) {
	tests := []struct {
		name string
		rec  *models.VolatilityRecord
		want float64
	}{
		{"nil", nil, 0},
		{"no hv uses iv", &models.VolatilityRecord{ImpliedVolatility: 42}, 42},
		{"no hv clamps", &models.VolatilityRecord{ImpliedVolatility: 140}, 100},
		{"ratio 1.5", &models.VolatilityRecord{ImpliedVolatility: 45, HistoricalVolatility: 30}, 67.5},
		{"ratio floor 0.5", &models.VolatilityRecord{ImpliedVolatility: 20, HistoricalVolatility: 80}, 10},
		{"ratio cap 2", &models.VolatilityRecord{ImpliedVolatility: 40, HistoricalVolatility: 10}, 80},
		{"score cap", &models.VolatilityRecord{ImpliedVolatility: 90, HistoricalVolatility: 30}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VolatilityScore(tt.rec), 1e-9)
		})
	}
}

func TestExpectedMove(t *testing.T) {
	rec := &models.VolatilityRecord{CurrentPrice: 100, ImpliedVolatility: 36.5}
	want := 100 * 0.365 * math.Sqrt(10.0/365)
	assert.InDelta(t, want, ExpectedMove(rec, 10), 1e-9)
	assert.InDelta(t, want, ExpectedMovePct(rec, 10), 1e-9)

	rec.ExpectedMove = ptr(7.5)
	assert.Equal(t, 7.5, ExpectedMove(rec, 10))
	assert.Equal(t, 0.0, ExpectedMove(nil, 10))
	assert.Equal(t, 0.0, ExpectedMove(&models.VolatilityRecord{CurrentPrice: 10, ImpliedVolatility: 30}, 0))
}
