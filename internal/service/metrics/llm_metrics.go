package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	LLMLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "earnscan",
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "Latency of text generation calls",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"provider", "mode"},
	)

	LLMErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "earnscan",
			Subsystem: "llm",
			Name:      "errors_total",
			Help:      "Failed text generation calls",
		},
		[]string{"provider", "mode"},
	)
)

// Register registers the collectors once with the default registry.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(LLMLatency, LLMErrors)
	})
}
