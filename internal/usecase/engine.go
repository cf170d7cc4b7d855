package usecase

import (
	"context"
	"fmt"
	"time"

	"EarnScan/internal/domain/models"
	drepo "EarnScan/internal/domain/repository"
	"EarnScan/internal/domain/service"
	"EarnScan/internal/service/llm"
	"EarnScan/internal/services/analysis"
	applogger "EarnScan/pkg/logger"
)

const (
	modeBatch  = "batch"
	modeSingle = "single"
)

// AnalysisEngine asks a text generator about each opportunity. It tries one
// combined request first and falls back to one request per subject.
type AnalysisEngine struct {
	gen     service.TextGenerator
	prompts *analysis.PromptBuilder
	parser  *analysis.Parser
	metrics drepo.Metrics
	log     *applogger.Logger
	now     func() time.Time
}

// NewAnalysisEngine creates an engine.
func NewAnalysisEngine(gen service.TextGenerator, metrics drepo.Metrics, l *applogger.Logger) *AnalysisEngine {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &AnalysisEngine{
		gen:     gen,
		prompts: analysis.NewPromptBuilder(),
		parser:  analysis.NewParser(),
		metrics: metrics,
		log:     l,
		now:     time.Now,
	}
}

// Analyze returns one result per subject that could be analysed, in input
// order. Subjects that fail are logged and left out.
func (e *AnalysisEngine) Analyze(ctx context.Context, opps []models.Opportunity, mc models.MarketContext) []models.AnalysisResult {
	if len(opps) == 0 {
		return []models.AnalysisResult{}
	}
	start := time.Now()
	defer func() { e.metrics.RecordLatency("analysis", time.Since(start).Seconds()) }()

	results, err := e.batch(ctx, opps, mc)
	if err != nil {
		e.log.Warn("analysis: batch request failed, falling back to per-subject requests",
			applogger.String("provider", e.gen.Name()),
			applogger.Error(err),
		)
		results = e.sequential(ctx, opps, mc)
	}

	for _, ferr := range Failures(results) {
		e.metrics.RecordError("analysis")
		e.log.Warn("analysis: subject dropped", applogger.Error(ferr))
	}
	return Successes(results)
}

// batch sends every subject in one request. It fails as a whole when the call
// fails or the reply holds no recognisable section at all.
func (e *AnalysisEngine) batch(ctx context.Context, opps []models.Opportunity, mc models.MarketContext) ([]Result[models.AnalysisResult], error) {
	prompt, err := e.prompts.Batch(opps, mc)
	if err != nil {
		return nil, fmt.Errorf("build batch prompt: %w", err)
	}

	reply, err := e.gen.Generate(llm.WithMode(ctx, modeBatch), prompt)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	results := make([]Result[models.AnalysisResult], 0, len(opps))
	found := 0
	for _, o := range opps {
		slice, err := analysis.SliceFor(reply, o.Symbol)
		if err != nil {
			results = append(results, Fail[models.AnalysisResult](fmt.Errorf("%s: %w", o.Symbol, err)))
			continue
		}
		found++
		results = append(results, OK(e.result(o, slice)))
	}
	if found == 0 {
		return nil, analysis.ErrSliceNotFound
	}
	return results, nil
}

// sequential sends one request per subject, in order.
func (e *AnalysisEngine) sequential(ctx context.Context, opps []models.Opportunity, mc models.MarketContext) []Result[models.AnalysisResult] {
	results := make([]Result[models.AnalysisResult], 0, len(opps))
	for _, o := range opps {
		if err := ctx.Err(); err != nil {
			results = append(results, Fail[models.AnalysisResult](fmt.Errorf("%s: %w", o.Symbol, err)))
			continue
		}
		results = append(results, e.single(ctx, o, mc))
	}
	return results
}

func (e *AnalysisEngine) single(ctx context.Context, o models.Opportunity, mc models.MarketContext) Result[models.AnalysisResult] {
	prompt, err := e.prompts.Single(o, mc)
	if err != nil {
		return Fail[models.AnalysisResult](fmt.Errorf("%s: build prompt: %w", o.Symbol, err))
	}
	reply, err := e.gen.Generate(llm.WithMode(ctx, modeSingle), prompt)
	if err != nil {
		return Fail[models.AnalysisResult](fmt.Errorf("%s: generate: %w", o.Symbol, err))
	}
	return OK(e.result(o, reply))
}

func (e *AnalysisEngine) result(o models.Opportunity, text string) models.AnalysisResult {
	return models.AnalysisResult{
		Opportunity: o,
		Analysis:    e.parser.Parse(text, o.Symbol),
		Timestamp:   e.now(),
	}
}
