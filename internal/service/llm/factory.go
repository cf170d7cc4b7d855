package llm

import (
	"context"
	"fmt"
	"time"

	"EarnScan/internal/domain/service"
	"EarnScan/internal/service/metrics"
	applogger "EarnScan/pkg/logger"
)

// New builds the generator for provider, wrapped with metrics and logging.
func New(ctx context.Context, provider string, opts Options, l *applogger.Logger) (service.TextGenerator, error) {
	var (
		gen service.TextGenerator
		err error
	)
	switch provider {
	case ProviderGemini:
		gen, err = NewGemini(ctx, opts)
	case ProviderClaude:
		gen, err = NewClaude(opts)
	case ProviderOpenAI:
		gen, err = NewOpenAI(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(gen, l), nil
}

type instrumented struct {
	next service.TextGenerator
	log  *applogger.Logger
}

// Instrument records latency and failures of every call.
func Instrument(gen service.TextGenerator, l *applogger.Logger) service.TextGenerator {
	if l == nil {
		l = applogger.Nop()
	}
	metrics.Register()
	return &instrumented{next: gen, log: l}
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	name, mode := i.next.Name(), modeFrom(ctx)
	start := time.Now()

	out, err := i.next.Generate(ctx, prompt)
	elapsed := time.Since(start)
	metrics.LLMLatency.WithLabelValues(name, mode).Observe(elapsed.Seconds())

	if err != nil {
		metrics.LLMErrors.WithLabelValues(name, mode).Inc()
		return "", err
	}

	i.log.Debug("llm call",
		applogger.String("provider", name),
		applogger.String("mode", mode),
		applogger.Int("prompt_chars", len(prompt)),
		applogger.Int("reply_chars", len(out)),
		applogger.Duration("duration_ms", elapsed),
	)
	return out, nil
}
