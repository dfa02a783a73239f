//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/daniel0ar/maci-platform/internal/adapters"
	"github.com/daniel0ar/maci-platform/internal/config"
	"github.com/daniel0ar/maci-platform/internal/logging"
	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		// Configuration and logging
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewDeployStack,
		usecase.NewListContracts,
		usecase.NewShowContract,
		usecase.NewListNetworks,

		// App
		NewApp,
	)
	return nil, nil
}
