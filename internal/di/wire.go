//go:build wireinject
// +build wireinject

package di

import (
	"PlumbWatch/pkg/config"
	"PlumbWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideHTTPClient,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Upstream adapters
		ProvideNYFedClient,
		ProvideFREDClient,
		ProvideFXRatesClient,
		ProvideProviders,
		ProvideBaseline,

		// Repositories and sinks
		ProvideHistoryStore,
		ProvideSnapshotArchive,
		ProvideStressPublisher,
		ProvideStreamHub,

		// Use cases
		ProvideAggregator,
		ProvideMarketMonitor,

		// HTTP
		ProvideRateLimiter,
		ProvideMarketHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
