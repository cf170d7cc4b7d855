package server

import (
	"context"
	"fmt"
	"io"

	"EarnScan/internal/domain/models"
	"EarnScan/internal/usecase"
	"EarnScan/pkg/config"
	xhttp "EarnScan/pkg/http"
	applogger "EarnScan/pkg/logger"
	"EarnScan/pkg/queue"
)

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	scanner     *usecase.ScanService
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	jobs        queue.Queue
	closers     []namedCloser
}

// New creates a new App instance with all dependencies. jobs runs queued
// scans while serving and may be nil.
func New(cfg *config.Config, l *applogger.Logger, scanner *usecase.ScanService, h xhttp.Handler, jobs queue.Queue) *App {
	return &App{
		cfg:         cfg,
		log:         l,
		scanner:     scanner,
		httpHandler: h,
		jobs:        jobs,
	}
}

// AddCloser registers a resource released by Close, in registration order.
func (a *App) AddCloser(name string, c io.Closer) {
	a.closers = append(a.closers, namedCloser{name: name, c: c})
}

// Logger returns the application logger.
func (a *App) Logger() *applogger.Logger { return a.log }

// Scan runs one scan in the foreground.
func (a *App) Scan(ctx context.Context, opts usecase.ScanOptions) (*models.ScanReport, error) {
	if opts.Analyze && !a.scanner.CanAnalyze() {
		a.log.Warn("analysis requested but no llm api key is configured; ranking only")
	}
	return a.scanner.Run(ctx, opts)
}

// Serve starts the job queue and the HTTP server and blocks until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if a.jobs != nil {
		if err := a.jobs.Start(); err != nil {
			return fmt.Errorf("start job queue: %w", err)
		}
	}

	a.httpServer = xhttp.NewServer(a.httpHandler, a.log,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled),
		xhttp.WithCORS(a.cfg.Server.AllowOrigins...),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if a.jobs != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.jobs.Stop(stopCtx); err != nil {
			a.log.Warn("job queue stop error", applogger.Error(err))
		}
	}
	return nil
}

// Close flushes the log collector and releases every registered resource.
func (a *App) Close() {
	// flush digests while the producer is still open
	a.log.RemoveCollector()

	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
		}
	}
	a.log.Info("shutdown complete")
}
