package app

import (
	"github.com/daniel0ar/maci-platform/internal/config"
	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Use cases
	DeployStack   *usecase.DeployStack
	ListContracts *usecase.ListContracts
	ShowContract  *usecase.ShowContract
	ListNetworks  *usecase.ListNetworks
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	deployStack *usecase.DeployStack,
	listContracts *usecase.ListContracts,
	showContract *usecase.ShowContract,
	listNetworks *usecase.ListNetworks,
) (*App, error) {
	return &App{
		Config:        cfg,
		DeployStack:   deployStack,
		ListContracts: listContracts,
		ShowContract:  showContract,
		ListNetworks:  listNetworks,
	}, nil
}
