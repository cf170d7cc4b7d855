package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"EarnScan/internal/domain/models"
	drepo "EarnScan/internal/domain/repository"
	"EarnScan/internal/services/analysis"
	applogger "EarnScan/pkg/logger"
)

const scanLockKey = "scan:lock"

var (
	ErrScanInProgress = errors.New("scan already in progress")
	ErrNoReport       = errors.New("no scan report yet")
)

// ScanOptions control one run.
type ScanOptions struct {
	Analyze bool
}

// ScanService runs the whole funnel: opportunities, market context, optional
// analysis, validation, publishing and report storage.
type ScanService struct {
	pipeline  *OpportunityPipeline
	probe     *MarketContextProbe
	engine    *AnalysisEngine
	publisher drepo.AnalysisPublisher
	store     drepo.ReportStore
	locker    drepo.Locker
	metrics   drepo.Metrics
	log       *applogger.Logger
	lockTTL   time.Duration
	now       func() time.Time
	newID     func() string
}

// ScanOption configures ScanService.
type ScanOption func(*ScanService)

// WithAnalysisEngine enables the analysis stage. Without it runs stop after ranking.
func WithAnalysisEngine(e *AnalysisEngine) ScanOption {
	return func(s *ScanService) { s.engine = e }
}

// WithPublisher ships valid analyses downstream.
func WithPublisher(p drepo.AnalysisPublisher) ScanOption {
	return func(s *ScanService) { s.publisher = p }
}

// WithReportStore keeps the latest report.
func WithReportStore(r drepo.ReportStore) ScanOption {
	return func(s *ScanService) { s.store = r }
}

// WithLocker prevents overlapping runs.
func WithLocker(l drepo.Locker, ttl time.Duration) ScanOption {
	return func(s *ScanService) {
		s.locker = l
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithScanClock replaces time.Now.
func WithScanClock(now func() time.Time) ScanOption {
	return func(s *ScanService) { s.now = now }
}

// NewScanService creates a scan service.
func NewScanService(
	pipeline *OpportunityPipeline,
	probe *MarketContextProbe,
	metrics drepo.Metrics,
	l *applogger.Logger,
	opts ...ScanOption,
) *ScanService {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	s := &ScanService{
		pipeline: pipeline,
		probe:    probe,
		metrics:  metrics,
		log:      l,
		lockTTL:  10 * time.Minute,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanAnalyze reports whether an analysis engine is configured.
func (s *ScanService) CanAnalyze() bool { return s.engine != nil }

// Run executes one scan.
func (s *ScanService) Run(ctx context.Context, opts ScanOptions) (*models.ScanReport, error) {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, scanLockKey, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire scan lock: %w", err)
		}
		if !ok {
			return nil, ErrScanInProgress
		}
		defer func() {
			if err := s.locker.Unlock(context.Background(), scanLockKey); err != nil {
				s.log.Warn("scan: release lock failed", applogger.Error(err))
			}
		}()
	}

	start := s.now()
	report := &models.ScanReport{RunID: s.newID(), GeneratedAt: start}
	log := s.log.With(applogger.String("run_id", report.RunID))
	log.Info("scan started", applogger.Bool("analyze", opts.Analyze))

	opps, err := s.pipeline.Run(ctx)
	if err != nil {
		log.Error("scan failed", applogger.Error(err))
		return nil, err
	}
	report.Opportunities = opps
	report.MarketContext = s.probe.Probe(ctx)

	if opts.Analyze && len(opps) > 0 {
		if s.engine == nil {
			log.Warn("scan: analysis requested but no text generator configured")
		} else {
			report.Analyses = s.validate(s.engine.Analyze(ctx, opps, report.MarketContext))
			s.publish(ctx, report.RunID, report.ValidAnalyses(), log)
		}
	}

	report.Duration = s.now().Sub(start)
	if s.store != nil {
		if err := s.store.SaveLatest(ctx, report); err != nil {
			s.metrics.RecordError("report_store")
			log.Warn("scan: save report failed", applogger.Error(err))
		}
	}

	s.metrics.RecordLatency("scan", report.Duration.Seconds())
	log.Info("scan finished",
		applogger.Int("opportunities", len(report.Opportunities)),
		applogger.Int("analyses", len(report.Analyses)),
		applogger.Int("valid", len(report.ValidAnalyses())),
		applogger.Duration("duration", report.Duration),
	)
	return report, nil
}

// Latest returns the most recent stored report.
func (s *ScanService) Latest(ctx context.Context) (*models.ScanReport, error) {
	if s.store == nil {
		return nil, ErrNoReport
	}
	r, err := s.store.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNoReport
	}
	return r, nil
}

// MarketContext probes the benchmark on demand.
func (s *ScanService) MarketContext(ctx context.Context) models.MarketContext {
	return s.probe.Probe(ctx)
}

func (s *ScanService) validate(results []models.AnalysisResult) []models.ValidatedAnalysis {
	out := make([]models.ValidatedAnalysis, 0, len(results))
	for _, r := range results {
		out = append(out, models.ValidatedAnalysis{
			AnalysisResult: r,
			Validation:     analysis.Validate(r.Analysis),
		})
	}
	return out
}

func (s *ScanService) publish(ctx context.Context, runID string, valid []models.ValidatedAnalysis, log *applogger.Logger) {
	if s.publisher == nil {
		return
	}
	for _, va := range valid {
		sym := va.Opportunity.Symbol
		if err := s.publisher.Publish(ctx, runID, va); err != nil {
			s.metrics.RecordError("publish")
			log.Warn("scan: publish failed", applogger.String("symbol", sym), applogger.Error(err))
			continue
		}
		s.metrics.RecordPublished(sym)
	}
}
