package adapters

import (
	"github.com/google/wire"

	"github.com/daniel0ar/maci-platform/internal/adapters/artifacts"
	"github.com/daniel0ar/maci-platform/internal/adapters/ledger"
	"github.com/daniel0ar/maci-platform/internal/adapters/linker"
	"github.com/daniel0ar/maci-platform/internal/adapters/repository/contracts"
	"github.com/daniel0ar/maci-platform/internal/config"
	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// ProvideNetworkResolver provides the resolver backed by maci.toml
func ProvideNetworkResolver(cfg *config.RuntimeConfig) *config.NetworkResolver {
	return config.NewNetworkResolver(cfg.ProjectRoot, cfg.Project)
}

// RepositorySet provides the file-backed registry
var RepositorySet = wire.NewSet(
	contracts.NewFileRepositoryFromConfig,
	wire.Bind(new(usecase.ContractStore), new(*contracts.FileRepository)),
)

// LedgerSet provides the go-ethereum backed executor
var LedgerSet = wire.NewSet(
	ledger.NewExecutorAdapter,
	wire.Bind(new(usecase.Ledger), new(*ledger.ExecutorAdapter)),
)

// LinkerSet provides the solc bytecode linker
var LinkerSet = wire.NewSet(
	linker.NewSolcLinker,
	wire.Bind(new(usecase.Linker), new(*linker.SolcLinker)),
)

// ArtifactSet provides the artifact and key material loader
var ArtifactSet = wire.NewSet(
	artifacts.NewLoader,
	wire.Bind(new(usecase.ArtifactRepository), new(*artifacts.Loader)),
)

// NetworkSet provides network resolution from project configuration
var NetworkSet = wire.NewSet(
	ProvideNetworkResolver,
	wire.Bind(new(usecase.NetworkLister), new(*config.NetworkResolver)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	RepositorySet,
	LedgerSet,
	LinkerSet,
	ArtifactSet,
	NetworkSet,
)
