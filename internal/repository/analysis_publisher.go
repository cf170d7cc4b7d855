package repository

import (
	"context"
	"fmt"
	"time"

	"EarnScan/internal/domain/models"
	"EarnScan/internal/domain/repository"
)

// MessageProducer is the part of pkg/kafka.Producer the publisher needs.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// AnalysisEvent is the wire form of a published analysis.
type AnalysisEvent struct {
	RunID          string                `json:"runId"`
	Symbol         string                `json:"symbol"`
	EarningsDate   string                `json:"earningsDate"`
	DaysToEarnings int                   `json:"daysToEarnings"`
	QualityScore   int                   `json:"qualityScore"`
	SentimentScore *int                  `json:"sentimentScore"`
	Recommendation models.Recommendation `json:"recommendation"`
	Strategies     []models.Strategy     `json:"strategies"`
	Reasoning      string                `json:"reasoning,omitempty"`
	RiskFactors    string                `json:"riskFactors,omitempty"`
	AnalyzedAt     time.Time             `json:"analyzedAt"`
}

// KafkaAnalysisPublisher implements AnalysisPublisher for Kafka. Messages are
// keyed by symbol so one symbol's history stays on one partition.
type KafkaAnalysisPublisher struct {
	producer MessageProducer
	topic    string
}

// NewKafkaAnalysisPublisher creates a Kafka analysis publisher.
func NewKafkaAnalysisPublisher(producer MessageProducer, topic string) repository.AnalysisPublisher {
	return &KafkaAnalysisPublisher{producer: producer, topic: topic}
}

func (p *KafkaAnalysisPublisher) Publish(ctx context.Context, runID string, a models.ValidatedAnalysis) error {
	o := a.Opportunity
	ev := AnalysisEvent{
		RunID:          runID,
		Symbol:         o.Symbol,
		EarningsDate:   o.Date.UTC().Format("2006-01-02"),
		DaysToEarnings: o.DaysToEarnings,
		QualityScore:   o.QualityScore,
		SentimentScore: a.Analysis.SentimentScore,
		Recommendation: a.Analysis.Recommendation,
		Strategies:     a.Analysis.Strategies,
		Reasoning:      a.Analysis.Reasoning,
		RiskFactors:    a.Analysis.RiskFactors,
		AnalyzedAt:     a.Timestamp,
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(o.Symbol), ev); err != nil {
		return fmt.Errorf("publish analysis %s: %w", o.Symbol, err)
	}
	return nil
}

func (p *KafkaAnalysisPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
