package models

import "time"

// Recommendation is the canonical verdict phrase.
type Recommendation string

const (
	RecommendStronglyConsider Recommendation = "STRONGLY CONSIDER"
	RecommendNeutral          Recommendation = "NEUTRAL"
	RecommendStayAway         Recommendation = "STAY AWAY"
)

// Recommendations lists the canonical values in match priority order.
var Recommendations = []Recommendation{
	RecommendStronglyConsider,
	RecommendNeutral,
	RecommendStayAway,
}

// Valid reports whether r is one of the canonical values.
func (r Recommendation) Valid() bool {
	for _, c := range Recommendations {
		if r == c {
			return true
		}
	}
	return false
}

// Strategy is one suggested options structure.
type Strategy struct {
	Name    string `json:"name"`
	Details string `json:"details"`
}

// Analysis is the typed form of one subject's model reply.
type Analysis struct {
	Symbol               string         `json:"symbol"`
	SentimentScore       *int           `json:"sentimentScore"`
	Recommendation       Recommendation `json:"recommendation"`
	Strategies           []Strategy     `json:"strategies"`
	Reasoning            string         `json:"reasoning,omitempty"`
	VolatilityAssessment string         `json:"volatilityAssessment,omitempty"`
	RiskFactors          string         `json:"riskFactors,omitempty"`
	PositionSizing       string         `json:"positionSizing,omitempty"`
	RawAnalysis          string         `json:"rawAnalysis"`
}

// ValidationResult lists consistency issues found in an Analysis.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Issues  []string `json:"issues"`
}

// AnalysisResult pairs an opportunity with its parsed analysis.
type AnalysisResult struct {
	Opportunity Opportunity `json:"opportunity"`
	Analysis    Analysis    `json:"analysis"`
	Timestamp   time.Time   `json:"timestamp"`
}
