package analysis

import (
	"testing"

	"EarnScan/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MinimalReply(t *testing.T) {
	text := "**SENTIMENT SCORE:** 8\n**RECOMMENDATION:** NEUTRAL\n1. **Iron Condor** - POP: 70%, Risk: $200, Entry: open"

	a := NewParser().Parse(text, "AAPL")

	require.NotNil(t, a.SentimentScore)
	assert.Equal(t, 8, *a.SentimentScore)
	assert.Equal(t, models.RecommendNeutral, a.Recommendation)
	require.Len(t, a.Strategies, 1)
	assert.Equal(t, "Iron Condor", a.Strategies[0].Name)
	assert.Equal(t, "POP: 70%, Risk: $200, Entry: open", a.Strategies[0].Details)
	assert.Equal(t, "AAPL", a.Symbol)
	assert.Equal(t, text, a.RawAnalysis)
}

func TestParse_FullReply(t *testing.T) {
	text := `**SENTIMENT SCORE:** 7/10
**RECOMMENDATION:** STRONGLY CONSIDER
**REASONING:** IV is rich relative to realized volatility
and the expected move looks overstated.
**STRATEGIES:**
1. **Short Strangle** - POP: 68%, Risk: undefined, Entry: day before earnings
   Keep size small.
2. **Iron Butterfly**: POP: 55%, Risk: $320, Entry: close before report

**VOLATILITY ASSESSMENT:** Implied move 6.2% vs historical 4.1%.
**KEY RISKS:** Guidance cut; sector rotation.
**POSITION SIZING:** 1-2% of account.`

	a := NewParser().Parse(text, "NVDA")

	require.NotNil(t, a.SentimentScore)
	assert.Equal(t, 7, *a.SentimentScore)
	assert.Equal(t, models.RecommendStronglyConsider, a.Recommendation)
	require.Len(t, a.Strategies, 2)
	assert.Equal(t, "Short Strangle", a.Strategies[0].Name)
	assert.Equal(t, "POP: 68%, Risk: undefined, Entry: day before earnings Keep size small.", a.Strategies[0].Details)
	assert.Equal(t, "Iron Butterfly", a.Strategies[1].Name)
	assert.Equal(t, "POP: 55%, Risk: $320, Entry: close before report", a.Strategies[1].Details)
	assert.Equal(t, "IV is rich relative to realized volatility\nand the expected move looks overstated.", a.Reasoning)
	assert.Equal(t, "Implied move 6.2% vs historical 4.1%.", a.VolatilityAssessment)
	assert.Equal(t, "Guidance cut; sector rotation.", a.RiskFactors)
	assert.Equal(t, "1-2% of account.", a.PositionSizing)
}

func TestParse_Defaults(t *testing.T) {
	a := NewParser().Parse("The model declined to answer.", "MSFT")

	assert.Nil(t, a.SentimentScore)
	assert.Equal(t, models.RecommendNeutral, a.Recommendation)
	assert.Empty(t, a.Strategies)
	assert.Empty(t, a.VolatilityAssessment)
	assert.Empty(t, a.RiskFactors)
	assert.Empty(t, a.PositionSizing)
}

func TestParse_FieldsAreIndependent(t *testing.T) {
	// malformed sentiment does not prevent the other fields
	text := "**RECOMMENDATION:** STAY AWAY\n1. **Calendar Spread** - sell front week\n**SENTIMENT SCORE:** high"
	a := NewParser().Parse(text, "TSLA")

	assert.Nil(t, a.SentimentScore)
	assert.Equal(t, models.RecommendStayAway, a.Recommendation)
	require.Len(t, a.Strategies, 1)
	assert.Equal(t, "Calendar Spread", a.Strategies[0].Name)
}

func TestParse_SentimentOnFollowingLine(t *testing.T) {
	text := "Overall sentiment for this setup\n7 out of 10\n**RECOMMENDATION:** NEUTRAL"
	a := NewParser().Parse(text, "AAPL")

	require.NotNil(t, a.SentimentScore)
	assert.Equal(t, 7, *a.SentimentScore)
	assert.Equal(t, models.RecommendNeutral, a.Recommendation)
}

func TestSentimentCascade_Order(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		want      string
		matchedBy string
	}{
		{"bold", "**SENTIMENT SCORE:** 9", "9", "bold-heading"},
		{"bold colon outside", "**Sentiment Score**: 4", "4", "bold-heading"},
		{"plain", "Sentiment Score: 6", "6", "plain-heading"},
		{"loose", "Overall sentiment (1-10): 3", "3", "loose-label"},
		{"loose label value", "Market sentiment: 5 out of 10", "5", "loose-label"},
		{"loosest", "sentiment is roughly 2 on my scale", "2", "loosest"},
		{"loosest across lines", "Overall sentiment for this setup\n7 out of 10", "7", "loosest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, by, ok := sentimentCascade.find(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.matchedBy, by)
		})
	}

	_, _, ok := sentimentCascade.find("no score here")
	assert.False(t, ok)
}

func TestRecommendationCascade_Order(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		want      models.Recommendation
		matchedBy string
	}{
		{"bold", "**RECOMMENDATION:** STAY AWAY", models.RecommendStayAway, "bold-heading"},
		{"bold wins over earlier bare phrase", "Not NEUTRAL at all.\n**RECOMMENDATION:** STRONGLY CONSIDER", models.RecommendStronglyConsider, "bold-heading"},
		{"plain lower case", "recommendation: strongly   consider", models.RecommendStronglyConsider, "plain-heading"},
		{"bare", "I would stay away from this one.", models.RecommendStayAway, "bare-phrase"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, by, ok := recommendationCascade.find(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.matchedBy, by)
			assert.Equal(t, tt.want, parseRecommendation(tt.text))
		})
	}
}
