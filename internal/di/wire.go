//go:build wireinject
// +build wireinject

package di

import (
	"EarnScan/pkg/config"
	"EarnScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideRedisClient,
		ProvideCache,

		// Upstream clients
		ProvideFinnhubClient,
		ProvideVolatilityGateway,
		ProvideTextGenerator,

		// Repositories
		ProvideAnalysisPublisher,
		ProvideReportStore,

		// Use cases
		ProvideOpportunityPipeline,
		ProvideMarketContextProbe,
		ProvideScanService,
		ProvideJobQueue,

		// HTTP
		ProvideScanLimiter,
		ProvideScanHandler,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
