//go:build wireinject
// +build wireinject

package di

import (
	"FinTrain/pkg/config"
	"FinTrain/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideCache,
		ProvideKafkaConsumer,

		// Repositories
		ProvideMarketHistory,
		ProvideCorrectiveStore,
		ProvideResultLog,
		ProvideFailureStore,
		ProvideArtifactStore,
		ProvideOutcomePublisher,

		// Services
		ProvideFailureMemory,
		ProvideFeatureEngineer,
		ProvideDatasetBuilder,
		ProvideWindowSearcher,
		ProvideModelFactory,
		ProvideImportance,

		// Use cases
		ProvideTrainingConfig,
		ProvideCurator,
		ProvideOrchestrator,
		ProvideHub,
		ProvideBatchDriver,
		ProvideWrongPredictionHandler,
		ProvideTrainJob,
		ProvideQueue,

		// HTTP
		ProvideCooldown,
		ProvideTrainingHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
