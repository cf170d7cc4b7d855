package models

import "time"

// ValidatedAnalysis is an AnalysisResult with its validation outcome.
type ValidatedAnalysis struct {
	AnalysisResult
	Validation ValidationResult `json:"validation"`
}

// ScanReport is the outcome of one full scan run.
type ScanReport struct {
	RunID         string              `json:"runId"`
	GeneratedAt   time.Time           `json:"generatedAt"`
	Duration      time.Duration       `json:"durationNs"`
	MarketContext MarketContext       `json:"marketContext"`
	Opportunities []Opportunity       `json:"opportunities"`
	Analyses      []ValidatedAnalysis `json:"analyses,omitempty"`
}

// ValidAnalyses returns the analyses that passed validation.
func (r ScanReport) ValidAnalyses() []ValidatedAnalysis {
	out := make([]ValidatedAnalysis, 0, len(r.Analyses))
	for _, a := range r.Analyses {
		if a.Validation.IsValid {
			out = append(out, a)
		}
	}
	return out
}
