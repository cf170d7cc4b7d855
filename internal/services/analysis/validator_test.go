package analysis

import (
	"testing"

	"EarnScan/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func intp(n int) *int { return &n }

func TestValidate(t *testing.T) {
	strategies := []models.Strategy{{Name: "Iron Condor"}}

	tests := []struct {
		name   string
		in     models.Analysis
		issues []string
	}{
		{
			name:   "valid",
			in:     models.Analysis{SentimentScore: intp(7), Recommendation: models.RecommendStronglyConsider, Strategies: strategies},
			issues: []string{},
		},
		{
			name:   "contradiction and no strategies",
			in:     models.Analysis{SentimentScore: intp(3), Recommendation: models.RecommendStronglyConsider},
			issues: []string{IssueNoStrategies, IssueInconsistent},
		},
		{
			name:   "missing sentiment",
			in:     models.Analysis{Recommendation: models.RecommendNeutral, Strategies: strategies},
			issues: []string{IssueInvalidSentiment},
		},
		{
			name:   "sentiment out of range",
			in:     models.Analysis{SentimentScore: intp(11), Recommendation: models.RecommendStayAway, Strategies: strategies},
			issues: []string{IssueInvalidSentiment},
		},
		{
			name:   "zero sentiment with strong buy",
			in:     models.Analysis{SentimentScore: intp(0), Recommendation: models.RecommendStronglyConsider, Strategies: strategies},
			issues: []string{IssueInvalidSentiment, IssueInconsistent},
		},
		{
			name:   "everything wrong",
			in:     models.Analysis{Recommendation: "BUY"},
			issues: []string{IssueInvalidSentiment, IssueInvalidRecommendation, IssueNoStrategies},
		},
		{
			name:   "low sentiment stay away is consistent",
			in:     models.Analysis{SentimentScore: intp(2), Recommendation: models.RecommendStayAway, Strategies: strategies},
			issues: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.in)
			assert.Equal(t, tt.issues, got.Issues)
			assert.Equal(t, len(tt.issues) == 0, got.IsValid)
		})
	}
}
