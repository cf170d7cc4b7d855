package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	stageSurvivors *prometheus.GaugeVec
	errorsTotal    *prometheus.CounterVec
	retriesTotal   *prometheus.CounterVec
	published      *prometheus.CounterVec
	qualityScore   *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a recorder registered with the default Prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder on the given registerer.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		stageSurvivors: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "earnscan_pipeline_stage_survivors",
				Help: "Opportunities remaining after each pipeline stage in the last run",
			},
			[]string{"stage"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnscan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		retriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnscan_http_retries_total",
				Help: "Outbound HTTP attempts that were retried",
			},
			[]string{"endpoint", "reason"},
		),
		published: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnscan_analyses_published_total",
				Help: "Validated analyses published downstream",
			},
			[]string{"symbol"},
		),
		qualityScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "earnscan_quality_score",
				Help: "Quality score of each opportunity in the last run",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "earnscan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
	}
}

// RecordStage records how many opportunities survived a pipeline stage.
func (r *Recorder) RecordStage(stage string, survivors int) {
	r.stageSurvivors.WithLabelValues(stage).Set(float64(survivors))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRetry records one retried outbound attempt.
func (r *Recorder) RecordRetry(endpoint, reason string) {
	r.retriesTotal.WithLabelValues(endpoint, reason).Inc()
}

// RecordPublished records an analysis published for a symbol.
func (r *Recorder) RecordPublished(symbol string) {
	r.published.WithLabelValues(symbol).Inc()
}

// RecordQuality records the final quality score for a symbol.
func (r *Recorder) RecordQuality(symbol string, score int) {
	r.qualityScore.WithLabelValues(symbol).Set(float64(score))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
