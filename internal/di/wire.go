//go:build wireinject
// +build wireinject

package di

import (
	"DashPull/pkg/config"
	"DashPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideKafkaProducer,
		ProvideClickHouseClient,

		// Session
		ProvideSessionStore,
		ProvideGuard,

		// Backend client and cache
		ProvideTradingClient,
		ProvideRegistry,
		ProvideCacheStore,

		// Repositories
		ProvideUpdatePublisher,
		ProvideArchiver,

		// Use cases
		ProvideBacktestJob,
		ProvideQueue,
		ProvideQueueService,
		ProvideMutator,
		ProvideLimiter,

		// HTTP surface
		ProvideHub,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
