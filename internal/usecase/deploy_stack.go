package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/daniel0ar/maci-platform/internal/config"
	"github.com/daniel0ar/maci-platform/internal/domain/models"
)

// DeployStackParams contains parameters for one orchestrated run.
type DeployStackParams struct {
	// StackPath is the stack file, absolute or relative to the project root.
	StackPath string
}

// StepOutcome reports what happened to one creation step.
type StepOutcome struct {
	Step    string
	Key     string
	Address common.Address
	TxHash  string
	Skipped bool
}

// DeployStackResult is the outcome of a full run.
type DeployStackResult struct {
	Plan           *StackPlan
	Network        string
	Outcomes       []*StepOutcome
	WiringDone     int
	WiringSkipped  int
	KeysRegistered bool
	KeysSkipped    bool
	DryRun         bool
}

// Deployed returns the number of steps that actually created a contract.
func (r *DeployStackResult) Deployed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Skipped {
			n++
		}
	}
	return n
}

// DeployStack orchestrates a full stack run: creations in dependency order,
// then the wiring pass, then the batched verifying-key registration. Every
// state-changing operation is checked against the registry first, which makes
// an interrupted run resumable by rerunning the same command.
type DeployStack struct {
	cfg       *config.RuntimeConfig
	log       *slog.Logger
	store     ContractStore
	ledger    Ledger
	linker    Linker
	artifacts ArtifactRepository
	progress  ProgressSink
}

// NewDeployStack creates the use case with its dependencies.
func NewDeployStack(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	store ContractStore,
	ledger Ledger,
	linker Linker,
	artifacts ArtifactRepository,
	progress ProgressSink,
) *DeployStack {
	return &DeployStack{
		cfg:       cfg,
		log:       log.With("component", "deploy_stack"),
		store:     store,
		ledger:    ledger,
		linker:    linker,
		artifacts: artifacts,
		progress:  progress,
	}
}

// Run executes the stack.
func (uc *DeployStack) Run(ctx context.Context, params DeployStackParams) (*DeployStackResult, error) {
	network := uc.cfg.Network
	if network == nil {
		return nil, fmt.Errorf("no network selected; pass --network")
	}

	stackCfg, err := uc.loadStack(params.StackPath)
	if err != nil {
		return nil, err
	}

	plan, err := buildPlan(stackCfg)
	if err != nil {
		return nil, fmt.Errorf("building plan for stack %q: %w", stackCfg.Name, err)
	}

	uc.log.Debug("plan built",
		"stack", plan.Name,
		"network", network.Name,
		"steps", len(plan.Steps),
		"wiring", len(plan.Wiring))

	total := len(plan.Steps) + len(plan.Wiring)
	if plan.Keys != nil {
		total++
	}
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StagePlanCreated,
		Total:   total,
		Message: fmt.Sprintf("Deploying stack %s to %s (%d steps)", plan.Name, network.Name, total),
	})

	result := &DeployStackResult{
		Plan:    plan,
		Network: network.Name,
		DryRun:  uc.cfg.DryRun,
	}

	if uc.cfg.DryRun {
		return uc.dryRun(ctx, plan, result)
	}

	if err := uc.ledger.Connect(ctx, network.RpcUrl, network.ChainID); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", network.Name, err)
	}

	state, err := openRunState(uc.cfg.DataDir, plan.Name, network.Name)
	if err != nil {
		return nil, err
	}
	if state.resumed() {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageResumed,
			Message: fmt.Sprintf("Resuming stack %s on %s", plan.Name, network.Name),
		})
	}

	current := 0
	for _, step := range plan.Steps {
		current++
		outcome, err := uc.executeStep(ctx, step, current, total)
		if err != nil {
			state.record(step.Name, &StepState{Status: StepStatusFailed, Error: err.Error()})
			state.finish("failed")
			return nil, fmt.Errorf("step %s: %w", step.Name, err)
		}
		result.Outcomes = append(result.Outcomes, outcome)

		status := StepStatusCompleted
		if outcome.Skipped {
			status = StepStatusSkipped
		}
		if err := state.record(step.Name, &StepState{
			Status:  status,
			Address: outcome.Address.Hex(),
			TxHash:  outcome.TxHash,
		}); err != nil {
			return nil, err
		}
	}

	for _, w := range plan.Wiring {
		current++
		done, err := uc.executeWiring(ctx, w, current, total)
		if err != nil {
			state.record(w.Key(), &StepState{Status: StepStatusFailed, Error: err.Error()})
			state.finish("failed")
			return nil, fmt.Errorf("wiring %s: %w", w.Key(), err)
		}
		if done {
			result.WiringDone++
			state.record(w.Key(), &StepState{Status: StepStatusCompleted})
		} else {
			result.WiringSkipped++
			state.record(w.Key(), &StepState{Status: StepStatusSkipped})
		}
	}

	if plan.Keys != nil {
		current++
		registered, err := uc.registerVerifyingKeys(ctx, plan.Keys, current, total)
		if err != nil {
			state.finish("failed")
			return nil, fmt.Errorf("verifying keys: %w", err)
		}
		result.KeysRegistered = registered
		result.KeysSkipped = !registered
	}

	if err := state.finish("completed"); err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageCompleted,
		Current: total,
		Total:   total,
		Message: fmt.Sprintf("Stack %s complete: %d deployed, %d skipped", plan.Name, result.Deployed(), len(result.Outcomes)-result.Deployed()),
	})
	return result, nil
}

// executeStep creates one contract unless the registry already holds it.
func (uc *DeployStack) executeStep(ctx context.Context, step *StackStep, current, total int) (*StepOutcome, error) {
	network := uc.cfg.Network
	key := step.RegistryKey()

	addr, exists, err := uc.store.TryGetAddress(ctx, network.Name, key)
	if err != nil {
		return nil, err
	}
	if exists {
		if uc.cfg.VerifyResume {
			code, err := uc.ledger.CodeAt(ctx, addr)
			if err != nil {
				return nil, fmt.Errorf("probing code at %s: %w", addr.Hex(), err)
			}
			if len(code) == 0 {
				return nil, fmt.Errorf("component %s is registered at %s but no code exists on %s", key, addr.Hex(), network.Name)
			}
		}
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageStepSkipped,
			Current: current,
			Total:   total,
			Message: fmt.Sprintf("%s already deployed at %s", key, addr.Hex()),
		})
		return &StepOutcome{Step: step.Name, Key: key, Address: addr, Skipped: true}, nil
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageStepStarting,
		Current: current,
		Total:   total,
		Message: fmt.Sprintf("Deploying %s", key),
		Spinner: true,
	})

	artifact, err := uc.artifacts.GetArtifact(ctx, step.Component.Artifact)
	if err != nil {
		return nil, err
	}

	libraries, err := uc.resolveLibraries(ctx, artifact)
	if err != nil {
		return nil, err
	}

	linked, err := uc.linker.Link(artifact.Bytecode, libraries)
	if err != nil {
		return nil, err
	}

	initCode := common.FromHex(linked)
	if len(step.Component.Args) > 0 || len(artifact.ABI.Constructor.Inputs) > 0 {
		values, err := coerceArgs(artifact.ABI.Constructor.Inputs, step.Component.Args, uc.resolver(ctx))
		if err != nil {
			return nil, err
		}
		packed, err := artifact.ABI.Pack("", values...)
		if err != nil {
			return nil, fmt.Errorf("encoding constructor arguments: %w", err)
		}
		initCode = append(initCode, packed...)
	}

	address, receipt, err := uc.ledger.Create(ctx, initCode)
	if err != nil {
		return nil, err
	}

	record := &models.ContractRecord{
		Network:   network.Name,
		ChainID:   network.ChainID,
		Name:      models.ContractName(step.Name),
		Label:     step.Component.Label,
		Address:   address.Hex(),
		Args:      step.Component.Args,
		TxHash:    receipt.TxHash.Hex(),
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.store.Register(ctx, record); err != nil {
		return nil, err
	}

	uc.log.Debug("contract deployed",
		"contract", key,
		"address", address.Hex(),
		"tx", receipt.TxHash.Hex(),
		"gas", receipt.GasUsed)

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageStepCompleted,
		Current: current,
		Total:   total,
		Message: fmt.Sprintf("%s deployed at %s", key, address.Hex()),
	})

	return &StepOutcome{
		Step:    step.Name,
		Key:     key,
		Address: address,
		TxHash:  receipt.TxHash.Hex(),
	}, nil
}

// resolveLibraries gathers the addresses of every library the artifact links
// against. Lookups are read-only and independent, so they run concurrently.
func (uc *DeployStack) resolveLibraries(ctx context.Context, artifact *models.Artifact) (map[string]common.Address, error) {
	names := artifact.LibraryNames()
	if len(names) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	libraries := make(map[string]common.Address, len(names)*2)

	g, gctx := errgroup.WithContext(ctx)
	for _, fqn := range names {
		fqn := fqn
		g.Go(func() error {
			short := fqn
			if idx := strings.LastIndex(fqn, ":"); idx >= 0 {
				short = fqn[idx+1:]
			}
			addr, err := uc.store.MustGetAddress(gctx, uc.cfg.Network.Name, short)
			if err != nil {
				return err
			}
			mu.Lock()
			// Both marker forms must resolve: the hashed marker keys off the
			// fully qualified name, the legacy one off the plain name.
			libraries[fqn] = addr
			libraries[short] = addr
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return libraries, nil
}

// resolver adapts the registry to the argument coercion callback.
func (uc *DeployStack) resolver(ctx context.Context) addressResolver {
	return func(ref string) (common.Address, error) {
		return uc.store.MustGetAddress(ctx, uc.cfg.Network.Name, ref)
	}
}

// executeWiring issues one post-creation call unless the registry marks it
// done. Returns true when a transaction was actually submitted.
func (uc *DeployStack) executeWiring(ctx context.Context, w *models.WiringConfig, current, total int) (bool, error) {
	network := uc.cfg.Network
	key := w.Key()

	done, err := uc.store.HasWiring(ctx, network.Name, key)
	if err != nil {
		return false, err
	}
	if done {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageWiringSkipped,
			Current: current,
			Total:   total,
			Message: fmt.Sprintf("%s already wired", key),
		})
		return false, nil
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageWiringStarted,
		Current: current,
		Total:   total,
		Message: fmt.Sprintf("Wiring %s", key),
		Spinner: true,
	})

	target, err := uc.store.MustGetAddress(ctx, network.Name, w.Target)
	if err != nil {
		return false, err
	}

	calldata, err := encodeWiringCall(w, uc.resolver(ctx))
	if err != nil {
		return false, err
	}

	receipt, err := uc.ledger.Call(ctx, target, calldata)
	if err != nil {
		return false, err
	}

	if err := uc.store.RegisterWiring(ctx, &models.WiringRecord{
		Network:   network.Name,
		Key:       key,
		Target:    w.Target,
		TxHash:    receipt.TxHash.Hex(),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return false, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageWiringDone,
		Current: current,
		Total:   total,
		Message: fmt.Sprintf("%s wired", key),
	})
	return true, nil
}

// registerVerifyingKeys submits every key entry through exactly one batched
// transaction. Returns true when the call was submitted, false when a prior
// run already registered the batch.
func (uc *DeployStack) registerVerifyingKeys(ctx context.Context, keys *models.VerifyingKeysConfig, current, total int) (bool, error) {
	network := uc.cfg.Network
	key := fmt.Sprintf("%s.%s", keys.Target, VerifyingKeysBatchMethod)

	done, err := uc.store.HasWiring(ctx, network.Name, key)
	if err != nil {
		return false, err
	}
	if done {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageWiringSkipped,
			Current: current,
			Total:   total,
			Message: "verifying keys already registered",
		})
		return false, nil
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageWiringStarted,
		Current: current,
		Total:   total,
		Message: fmt.Sprintf("Registering %d verifying key sets", len(keys.Entries)),
		Spinner: true,
	})

	material, err := uc.artifacts.GetVerifyingKeys(ctx, keys.File)
	if err != nil {
		return false, err
	}

	calldata, err := encodeVerifyingKeysBatch(keys.Entries, material)
	if err != nil {
		return false, err
	}

	target, err := uc.store.MustGetAddress(ctx, network.Name, keys.Target)
	if err != nil {
		return false, err
	}

	receipt, err := uc.ledger.Call(ctx, target, calldata)
	if err != nil {
		return false, err
	}

	if err := uc.store.RegisterWiring(ctx, &models.WiringRecord{
		Network:   network.Name,
		Key:       key,
		Target:    keys.Target,
		TxHash:    receipt.TxHash.Hex(),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return false, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageKeysDone,
		Current: current,
		Total:   total,
		Message: fmt.Sprintf("%d verifying key sets registered", len(keys.Entries)),
	})
	return true, nil
}

// dryRun annotates the plan with what a real run would do, without touching
// the ledger or the registry.
func (uc *DeployStack) dryRun(ctx context.Context, plan *StackPlan, result *DeployStackResult) (*DeployStackResult, error) {
	network := uc.cfg.Network

	for _, step := range plan.Steps {
		key := step.RegistryKey()
		addr, exists, err := uc.store.TryGetAddress(ctx, network.Name, key)
		if err != nil {
			return nil, err
		}
		if exists {
			uc.progress.Info(fmt.Sprintf("skip   %s (already at %s)", key, addr.Hex()))
			result.Outcomes = append(result.Outcomes, &StepOutcome{Step: step.Name, Key: key, Address: addr, Skipped: true})
			continue
		}
		uc.progress.Info(fmt.Sprintf("deploy %s (%s)", key, step.Component.Artifact))
		result.Outcomes = append(result.Outcomes, &StepOutcome{Step: step.Name, Key: key})
	}

	for _, w := range plan.Wiring {
		done, err := uc.store.HasWiring(ctx, network.Name, w.Key())
		if err != nil {
			return nil, err
		}
		if done {
			uc.progress.Info(fmt.Sprintf("skip   %s (already wired)", w.Key()))
			result.WiringSkipped++
		} else {
			uc.progress.Info(fmt.Sprintf("call   %s", w.Key()))
			result.WiringDone++
		}
	}

	if plan.Keys != nil {
		uc.progress.Info(fmt.Sprintf("call   %s.%s (%d entries, one transaction)", plan.Keys.Target, VerifyingKeysBatchMethod, len(plan.Keys.Entries)))
	}

	return result, nil
}

// loadStack reads and parses the stack file.
func (uc *DeployStack) loadStack(path string) (*models.StackConfig, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(uc.cfg.ProjectRoot, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stack file: %w", err)
	}

	var cfg models.StackConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing stack file %s: %w", filepath.Base(path), err)
	}
	return &cfg, nil
}
