package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/daniel0ar/maci-platform/internal/config"
	"github.com/daniel0ar/maci-platform/internal/domain/models"
)

// ContractStore is the registry: the single source of truth for which
// contracts are deployed on which network. Registration is append-only.
type ContractStore interface {
	// Register writes a new record; it fails with a DuplicateRecordError when
	// an unlabeled record already exists for the same (name, network) pair.
	Register(ctx context.Context, record *models.ContractRecord) error
	// MustGetAddress returns the registered address for a key
	// ("Name" or "Name:label") or a MissingDependencyError. It never returns
	// a zero address.
	MustGetAddress(ctx context.Context, network, key string) (common.Address, error)
	// TryGetAddress is the non-fatal probe used to skip already-deployed
	// components on resume.
	TryGetAddress(ctx context.Context, network, key string) (common.Address, bool, error)
	// GetContract returns the full record for a key.
	GetContract(ctx context.Context, network, key string) (*models.ContractRecord, error)
	// ListContracts enumerates records matching the filter.
	ListContracts(ctx context.Context, filter models.ContractFilter) ([]*models.ContractRecord, error)

	// RegisterWiring marks a post-creation call as completed.
	RegisterWiring(ctx context.Context, record *models.WiringRecord) error
	// HasWiring reports whether a wiring call was already issued.
	HasWiring(ctx context.Context, network, key string) (bool, error)
}

// Ledger submits creation transactions and state-changing calls and waits
// for finalization. Mutating operations must be issued sequentially; the
// orchestrator owns that ordering.
type Ledger interface {
	// Connect dials the RPC endpoint and cross-checks the chain ID.
	Connect(ctx context.Context, rpcURL string, chainID uint64) error
	// Create submits a contract creation and blocks until it is mined.
	// Rejected or reverted transactions surface as LedgerRejectionError.
	Create(ctx context.Context, initCode []byte) (common.Address, *types.Receipt, error)
	// Call submits a state-changing call and blocks until it is mined.
	Call(ctx context.Context, to common.Address, calldata []byte) (*types.Receipt, error)
	// CodeAt returns the code deployed at an address, for resume probes.
	CodeAt(ctx context.Context, address common.Address) ([]byte, error)
	// Sender returns the submitting identity.
	Sender() common.Address
}

// Linker substitutes library placeholders in raw bytecode. Pure: no ledger
// interaction, deterministic output.
type Linker interface {
	// Link replaces every placeholder with its address, keyed by
	// fully-qualified library name ("source:Library") with a plain-name
	// fallback. Any leftover marker is an UnresolvedPlaceholderError.
	Link(bytecode string, libraries map[string]common.Address) (string, error)
}

// ArtifactRepository loads compiled artifacts and structured key material.
type ArtifactRepository interface {
	GetArtifact(ctx context.Context, ref string) (*models.Artifact, error)
	GetVerifyingKeys(ctx context.Context, file string) (map[string]*models.VerifyingKey, error)
}

// NetworkLister exposes the configured networks for the networks command.
type NetworkLister interface {
	Names() []string
	Resolve(name string) (*config.NetworkConfig, error)
}

// Progress tracking

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// Stages emitted by the DeployStack use case.
const (
	StagePlanCreated   = "plan_created"
	StageResumed       = "stack_resumed"
	StageStepStarting  = "step_starting"
	StageStepSkipped   = "step_skipped"
	StageStepCompleted = "step_completed"
	StageWiringStarted = "wiring_starting"
	StageWiringSkipped = "wiring_skipped"
	StageWiringDone    = "wiring_completed"
	StageKeysDone      = "keys_registered"
	StageCompleted     = "stack_completed"
)
