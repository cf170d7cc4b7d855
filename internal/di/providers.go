package di

import (
	"context"
	"fmt"
	"time"

	"EarnScan/internal/domain/repository"
	"EarnScan/internal/domain/service"
	"EarnScan/internal/handler/api"
	internalrepo "EarnScan/internal/repository"
	"EarnScan/internal/service/finnhub"
	"EarnScan/internal/service/llm"
	"EarnScan/internal/service/ratelimit"
	"EarnScan/internal/service/volatility"
	"EarnScan/internal/usecase"
	"EarnScan/pkg/cache"
	"EarnScan/pkg/config"
	xhttp "EarnScan/pkg/http"
	pkgkafka "EarnScan/pkg/kafka"
	applogger "EarnScan/pkg/logger"
	"EarnScan/pkg/metrics"
	"EarnScan/pkg/queue"
	"EarnScan/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(producerOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func producerOptions(cfg *config.Config) []pkgkafka.ProducerOption {
	k := cfg.Kafka
	return []pkgkafka.ProducerOption{
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithBatchSize(k.BatchSize),
		pkgkafka.WithBatchBytes(k.BatchBytes),
		pkgkafka.WithBatchTimeout(k.BatchTimeout),
		pkgkafka.WithTimeouts(k.WriteTimeout, k.ReadTimeout),
		pkgkafka.WithAsync(k.Async),
		// analyses for one symbol stay ordered on one partition
		pkgkafka.WithHashByKey(true),
	}
}

// ProvideLogger creates the application logger. When Kafka carries a log
// topic, de-duplicated log digests are shipped there as well.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisClient connects to Redis, or returns nil for the memory backend.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.Cache.Backend == "memory" {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(redisOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc.Client(), nil
}

// ProvideCache creates the configured cache backend.
func ProvideCache(cfg *config.Config, client *redis.Client) cache.Service {
	if client == nil {
		return cache.NewMemoryCache(memoryOptions(cfg)...)
	}
	rc := cache.NewRedisCacheFromClient(client, cfg.Cache.Prefix)
	if cfg.Cache.Backend == "layered" {
		return cache.NewLayeredCache(rc, layeredOptions(cfg)...)
	}
	return rc
}

func redisOptions(cfg *config.Config) []cache.RedisOption {
	c := cfg.Cache
	return []cache.RedisOption{
		cache.WithRedisAddr(c.Addr),
		cache.WithRedisPassword(c.Password),
		cache.WithRedisDB(c.DB),
		cache.WithRedisPrefix(c.Prefix),
		cache.WithRedisPool(c.PoolSize, c.MinIdleConns, c.PoolTimeout),
	}
}

func memoryOptions(cfg *config.Config) []cache.MemoryOption {
	return []cache.MemoryOption{
		cache.WithMemoryMaxSize(cfg.Cache.MemorySize),
		cache.WithMemoryCleanup(cfg.Cache.CleanupInterval),
	}
}

func layeredOptions(cfg *config.Config) []cache.LayeredOption {
	return []cache.LayeredOption{
		cache.WithLayeredMemorySize(cfg.Cache.MemorySize),
		cache.WithLayeredMemoryTTL(cfg.Cache.MemoryTTL),
	}
}

// ProvideJobQueue creates the background scan queue: Redis-backed when Redis
// is configured, in-process otherwise.
func ProvideJobQueue(cfg *config.Config, client *redis.Client, svc *usecase.ScanService, l *applogger.Logger) queue.Queue {
	qc := &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}

	var q queue.Queue
	if client != nil {
		q = queue.NewRedisQueue(l, qc, client, queue.WithKeyPrefix(cfg.Cache.Prefix+":queue"))
	} else {
		q = queue.NewMemoryQueue(l, qc)
	}
	q.RegisterJob(usecase.NewScanJob(svc, l))
	return q
}

func retryHook(m repository.Metrics, l *applogger.Logger) xhttp.RetryOption {
	return xhttp.WithRetryHook(func(endpoint, reason string, attempt int, delay time.Duration) {
		m.RecordRetry(endpoint, reason)
		l.Warn("http retry",
			applogger.String("endpoint", endpoint),
			applogger.String("reason", reason),
			applogger.Int("attempt", attempt),
			applogger.Duration("delay", delay),
		)
	})
}

// ProvideFinnhubClient creates the calendar and quote client.
func ProvideFinnhubClient(cfg *config.Config, m repository.Metrics, l *applogger.Logger) *finnhub.Client {
	policy := xhttp.DefaultRetryPolicy()
	policy.Retries = cfg.Finnhub.Retries
	policy.BaseDelay = cfg.Finnhub.BaseDelay

	rc := xhttp.NewRetryClient(
		xhttp.NewClient(xhttp.WithTimeout(cfg.Finnhub.Timeout)),
		policy,
		xhttp.WithRequestDelay(cfg.Finnhub.RequestDelay),
		xhttp.WithRateLimit(cfg.Finnhub.RateLimitRPS),
		retryHook(m, l),
	)
	return finnhub.New(cfg.Finnhub.BaseURL, cfg.Finnhub.APIKey, rc, l)
}

// ProvideVolatilityGateway creates the bulk volatility client.
func ProvideVolatilityGateway(cfg *config.Config, c cache.Service, m repository.Metrics, l *applogger.Logger) repository.VolatilityGateway {
	rc := xhttp.NewRetryClient(
		xhttp.NewClient(xhttp.WithTimeout(cfg.Volatility.Timeout)),
		xhttp.DefaultRetryPolicy(),
		retryHook(m, l),
	)
	return volatility.New(cfg.Volatility.BaseURL, cfg.Volatility.APIKey, rc,
		volatility.WithCache(c, cfg.Volatility.CacheTTL),
		volatility.WithLogger(l),
	)
}

// ProvideAnalysisPublisher creates the Kafka analysis publisher, or nil when Kafka is disabled.
func ProvideAnalysisPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AnalysisPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaAnalysisPublisher(producer, cfg.Kafka.Topic)
}

// ProvideReportStore creates the latest-report store.
func ProvideReportStore(c cache.Service, cfg *config.Config) repository.ReportStore {
	return internalrepo.NewCacheReportStore(c, cfg.Pipeline.ReportTTL)
}

// ProvideTextGenerator creates the configured LLM client, or nil when no key is set.
func ProvideTextGenerator(cfg *config.Config, l *applogger.Logger) (service.TextGenerator, error) {
	key := cfg.LLMKey()
	if key == "" {
		l.Warn("no llm api key configured, analysis disabled", applogger.String("provider", cfg.LLM.Provider))
		return nil, nil
	}
	gen, err := llm.New(context.Background(), cfg.LLM.Provider, llm.Options{
		APIKey:      key,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, l)
	if err != nil {
		return nil, fmt.Errorf("llm %s: %w", cfg.LLM.Provider, err)
	}
	return gen, nil
}

// ProvideOpportunityPipeline creates the ranking funnel.
func ProvideOpportunityPipeline(
	cfg *config.Config,
	fh *finnhub.Client,
	vol repository.VolatilityGateway,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.OpportunityPipeline {
	return usecase.NewOpportunityPipeline(fh, vol, m, l, usecase.PipelineConfig{
		Universe:      cfg.Universe.Symbols,
		LookaheadDays: cfg.Pipeline.LookaheadDays,
		PrescreenTopK: cfg.Pipeline.PrescreenTopK,
		FinalTopK:     cfg.Pipeline.FinalTopK,
		MinQuality:    cfg.Pipeline.MinQuality,
	})
}

// ProvideMarketContextProbe creates the benchmark probe.
func ProvideMarketContextProbe(cfg *config.Config, fh *finnhub.Client, m repository.Metrics, l *applogger.Logger) *usecase.MarketContextProbe {
	return usecase.NewMarketContextProbe(fh, cfg.Pipeline.BenchmarkSymbol, m, l)
}

// ProvideScanService creates the scan use case.
func ProvideScanService(
	cfg *config.Config,
	pipeline *usecase.OpportunityPipeline,
	probe *usecase.MarketContextProbe,
	gen service.TextGenerator,
	pub repository.AnalysisPublisher,
	store repository.ReportStore,
	c cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ScanService {
	opts := []usecase.ScanOption{
		usecase.WithReportStore(store),
		usecase.WithLocker(c, cfg.Pipeline.LockTTL),
	}
	if gen != nil {
		opts = append(opts, usecase.WithAnalysisEngine(usecase.NewAnalysisEngine(gen, m, l)))
	}
	if pub != nil {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	return usecase.NewScanService(pipeline, probe, m, l, opts...)
}

// ProvideScanLimiter creates the per-client scan limiter.
func ProvideScanLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.ScanRateLimit, int(cfg.Server.ScanBurst))
}

// ProvideScanHandler creates the HTTP handler.
func ProvideScanHandler(l *applogger.Logger, svc *usecase.ScanService, rl *ratelimit.Limiter, q queue.Queue) *api.ScanEchoHandler {
	h := api.NewScanEchoHandler(l, svc, rl)
	h.SetEnqueuer(q)
	return h
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	svc *usecase.ScanService,
	h *api.ScanEchoHandler,
	q queue.Queue,
	pub repository.AnalysisPublisher,
	c cache.Service,
) *server.App {
	app := server.New(cfg, l, svc, h, q)
	if pub != nil {
		app.AddCloser("analysis publisher", pub)
	}
	app.AddCloser("cache", c)
	return app
}
