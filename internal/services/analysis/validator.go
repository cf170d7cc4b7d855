package analysis

import "EarnScan/internal/domain/models"

const (
	IssueInvalidSentiment      = "Invalid sentiment score"
	IssueInvalidRecommendation = "Invalid recommendation format"
	IssueNoStrategies          = "No strategies provided"
	IssueInconsistent          = "Inconsistent sentiment and recommendation"
)

// Validate checks an Analysis for completeness and internal consistency.
// All checks run; issues are reported in a fixed order.
func Validate(a models.Analysis) models.ValidationResult {
	issues := make([]string, 0, 4)

	if a.SentimentScore == nil || *a.SentimentScore < 1 || *a.SentimentScore > 10 {
		issues = append(issues, IssueInvalidSentiment)
	}
	if !a.Recommendation.Valid() {
		issues = append(issues, IssueInvalidRecommendation)
	}
	if len(a.Strategies) == 0 {
		issues = append(issues, IssueNoStrategies)
	}
	if a.SentimentScore != nil && *a.SentimentScore < 5 && a.Recommendation == models.RecommendStronglyConsider {
		issues = append(issues, IssueInconsistent)
	}

	return models.ValidationResult{IsValid: len(issues) == 0, Issues: issues}
}
