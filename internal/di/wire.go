//go:build wireinject
// +build wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvideTrendStore,
		ProvideEventSink,
		ProvideDispatcher,

		// Engine core
		ProvideClassifier,
		ProvideDedup,
		ProvideTrendMachine,
		ProvideLedger,
		ProvideConfirmEngine,

		// Use cases
		ProvideSignalProcessor,
		ProvideMaintainer,

		// HTTP and application server
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
