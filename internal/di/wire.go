//go:build wireinject
// +build wireinject

package di

import (
	"FinSignal/pkg/config"
	"FinSignal/pkg/server"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideClickHouseClient,
	ProvideBarStore,
	ProvideMarketData,
	ProvideDecisionStore,
	ProvideRedisCache,
	ProvideCacheService,
	ProvidePerformanceCache,
	ProvideLocker,
)

var collaboratorSet = wire.NewSet(
	ProvideStructureAnalyzer,
	ProvideSentimentSource,
	ProvideFusionEngine,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		infraSet,
		collaboratorSet,

		// Event sinks
		ProvideKafkaProducer,
		ProvideHub,
		ProvideDecisionPublishers,

		// Use cases
		ProvidePerformanceUseCase,
		ProvideSettlementUseCase,
		ProvideSettlementQueue,
		ProvideSettlementScheduler,
		ProvideSignalGenerator,
		ProvideSignalsQuery,

		// Transport
		ProvideRateLimiter,
		ProvideSignalsHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeToolkit wires the read-side graph for one-shot commands.
func InitializeToolkit(cfg *config.Config) (*Toolkit, func(), error) {
	wire.Build(
		infraSet,
		collaboratorSet,
		ProvidePerformanceUseCase,
		wire.Struct(new(Toolkit), "*"),
	)
	return nil, nil, nil
}
