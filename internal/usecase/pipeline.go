package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"EarnScan/internal/domain/models"
	drepo "EarnScan/internal/domain/repository"
	"EarnScan/internal/services/features"
	"EarnScan/internal/services/scoring"
	applogger "EarnScan/pkg/logger"
	"EarnScan/pkg/util"
)

// Pipeline stage names used in logs and metrics.
const (
	StageFetched   = "fetched"
	StageUniverse  = "universe"
	StageWindow    = "window"
	StagePrescreen = "prescreen"
	StageEnriched  = "enriched"
	StageFinal     = "final"
)

// PipelineConfig bounds one pipeline run.
type PipelineConfig struct {
	Universe      []string
	LookaheadDays int
	PrescreenTopK int
	FinalTopK     int
	MinQuality    int
}

// DefaultPipelineConfig returns the standard funnel sizes for universe.
func DefaultPipelineConfig(universe []string) PipelineConfig {
	return PipelineConfig{
		Universe:      universe,
		LookaheadDays: 45,
		PrescreenTopK: scoring.DefaultPrescreenTopK,
		FinalTopK:     5,
		MinQuality:    scoring.DefaultMinQuality,
	}
}

// OpportunityPipeline narrows the earnings calendar to a short, ranked list
// of opportunities. Stages run in order; only the calendar fetch can fail the run.
type OpportunityPipeline struct {
	calendar drepo.CalendarSource
	vol      drepo.VolatilityGateway
	metrics  drepo.Metrics
	log      *applogger.Logger
	cfg      PipelineConfig
	universe map[string]struct{}
	now      func() time.Time
}

// PipelineOption configures OpportunityPipeline.
type PipelineOption func(*OpportunityPipeline)

// WithPipelineClock replaces time.Now.
func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *OpportunityPipeline) {
		p.now = now
	}
}

// NewOpportunityPipeline creates a pipeline.
func NewOpportunityPipeline(
	calendar drepo.CalendarSource,
	vol drepo.VolatilityGateway,
	metrics drepo.Metrics,
	l *applogger.Logger,
	cfg PipelineConfig,
	opts ...PipelineOption,
) *OpportunityPipeline {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}

	universe := make(map[string]struct{}, len(cfg.Universe))
	for _, s := range cfg.Universe {
		universe[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}

	p := &OpportunityPipeline{
		calendar: calendar,
		vol:      vol,
		metrics:  metrics,
		log:      l,
		cfg:      cfg,
		universe: universe,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one pass of the funnel and returns at most FinalTopK opportunities.
func (p *OpportunityPipeline) Run(ctx context.Context) ([]models.Opportunity, error) {
	start := time.Now()
	now := p.now()

	events, err := p.calendar.EarningsCalendar(ctx, now, util.AddDays(now, p.cfg.LookaheadDays))
	if err != nil {
		p.metrics.RecordError("calendar")
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}
	p.stage(StageFetched, len(events))

	events = p.inUniverse(events)
	p.stage(StageUniverse, len(events))

	opps := p.inWindow(events, now)
	p.stage(StageWindow, len(opps))
	if len(opps) == 0 {
		p.log.Info("pipeline: no events in window")
		return []models.Opportunity{}, nil
	}

	opps = scoring.TopByPrescreen(opps, p.cfg.PrescreenTopK)
	p.stage(StagePrescreen, len(opps))

	opps = p.enrich(ctx, opps, util.FormatDate(now))
	p.stage(StageEnriched, len(opps))

	final := scoring.TopByQuality(opps, p.cfg.MinQuality, p.cfg.FinalTopK)
	p.stage(StageFinal, len(final))
	for _, o := range final {
		p.metrics.RecordQuality(o.Symbol, o.QualityScore)
	}

	p.metrics.RecordLatency("pipeline", time.Since(start).Seconds())
	return final, nil
}

func (p *OpportunityPipeline) inUniverse(events []models.CalendarEvent) []models.CalendarEvent {
	out := make([]models.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if _, ok := p.universe[strings.ToUpper(ev.Symbol)]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// inWindow keeps events 1..LookaheadDays days out and computes the prescreen
// fields. A symbol listed more than once keeps its earliest date.
func (p *OpportunityPipeline) inWindow(events []models.CalendarEvent, now time.Time) []models.Opportunity {
	out := make([]models.Opportunity, 0, len(events))
	seen := make(map[string]int, len(events))

	for _, ev := range events {
		days := util.DaysUntil(ev.Date, now)
		if days < 1 || days > p.cfg.LookaheadDays {
			continue
		}
		o := models.Opportunity{
			CalendarEvent:  ev,
			DaysToEarnings: days,
			PrescreenScore: scoring.PrescreenScore(ev, days),
		}
		if i, dup := seen[ev.Symbol]; dup {
			if days < out[i].DaysToEarnings {
				out[i] = o
			}
			continue
		}
		seen[ev.Symbol] = len(out)
		out = append(out, o)
	}
	return out
}

// enrich attaches volatility data in a single batched call and scores the
// opportunities that got data. The rest are dropped.
func (p *OpportunityPipeline) enrich(ctx context.Context, opps []models.Opportunity, cacheHint string) []models.Opportunity {
	symbols := make([]string, len(opps))
	for i, o := range opps {
		symbols[i] = o.Symbol
	}

	data, err := p.vol.BulkVolatility(ctx, symbols, cacheHint)
	if err != nil {
		p.metrics.RecordError("volatility")
		p.log.Warn("pipeline: volatility lookup failed",
			applogger.Strings("symbols", symbols),
			applogger.Error(err),
		)
		return []models.Opportunity{}
	}

	out := make([]models.Opportunity, 0, len(opps))
	for _, o := range opps {
		rec := data[o.Symbol]
		if rec == nil {
			p.log.Warn("pipeline: no volatility data", applogger.String("symbol", o.Symbol))
			continue
		}
		o.Volatility = rec
		o.VolatilityScore = features.VolatilityScore(rec)
		o.QualityScore = scoring.QualityScore(o)
		out = append(out, o)
	}
	return out
}

func (p *OpportunityPipeline) stage(name string, n int) {
	p.metrics.RecordStage(name, n)
	p.log.Debug("pipeline stage", applogger.String("stage", name), applogger.Int("survivors", n))
}
