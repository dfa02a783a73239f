package usecase_test

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniel0ar/maci-platform/internal/adapters/linker"
	"github.com/daniel0ar/maci-platform/internal/config"
	"github.com/daniel0ar/maci-platform/internal/domain"
	"github.com/daniel0ar/maci-platform/internal/domain/models"
	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// fakeStore is an in-memory ContractStore.
type fakeStore struct {
	mu        sync.Mutex
	contracts map[string]*models.ContractRecord // "network/key"
	wirings   map[string]*models.WiringRecord   // "network/key"
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contracts: make(map[string]*models.ContractRecord),
		wirings:   make(map[string]*models.WiringRecord),
	}
}

func (s *fakeStore) Register(_ context.Context, record *models.ContractRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := record.Network + "/" + record.Key()
	if existing, ok := s.contracts[id]; ok && record.Label == "" {
		return &domain.DuplicateRecordError{
			Contract: string(record.Name),
			Network:  record.Network,
			Address:  existing.Address,
		}
	}
	s.contracts[id] = record
	return nil
}

func (s *fakeStore) MustGetAddress(_ context.Context, network, key string) (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.contracts[network+"/"+key]
	if !ok {
		return common.Address{}, &domain.MissingDependencyError{Contract: key, Network: network}
	}
	return common.HexToAddress(record.Address), nil
}

func (s *fakeStore) TryGetAddress(_ context.Context, network, key string) (common.Address, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.contracts[network+"/"+key]
	if !ok {
		return common.Address{}, false, nil
	}
	return common.HexToAddress(record.Address), true, nil
}

func (s *fakeStore) GetContract(_ context.Context, network, key string) (*models.ContractRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.contracts[network+"/"+key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (s *fakeStore) ListContracts(_ context.Context, filter models.ContractFilter) ([]*models.ContractRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ContractRecord
	for _, r := range s.contracts {
		if filter.Network != "" && r.Network != filter.Network {
			continue
		}
		if filter.Name != "" && r.Name != filter.Name {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (s *fakeStore) RegisterWiring(_ context.Context, record *models.WiringRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wirings[record.Network+"/"+record.Key] = record
	return nil
}

func (s *fakeStore) HasWiring(_ context.Context, network, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.wirings[network+"/"+key]
	return ok, nil
}

// fakeLedger records submissions and mints deterministic addresses.
type fakeLedger struct {
	mu      sync.Mutex
	creates [][]byte
	calls   []fakeCall
	code    map[common.Address][]byte

	// failAt fails the Nth create (1-based); 0 disables.
	failAt int
}

type fakeCall struct {
	to       common.Address
	calldata []byte
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{code: make(map[common.Address][]byte)}
}

func (l *fakeLedger) Connect(context.Context, string, uint64) error { return nil }

func (l *fakeLedger) Create(_ context.Context, initCode []byte) (common.Address, *types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.creates) + 1
	if l.failAt != 0 && n == l.failAt {
		return common.Address{}, nil, &domain.LedgerRejectionError{Reason: "execution reverted"}
	}
	l.creates = append(l.creates, initCode)
	addr := common.BigToAddress(big.NewInt(int64(0x1000 + n)))
	l.code[addr] = []byte{0x60, 0x80}
	receipt := &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: common.BigToHash(big.NewInt(int64(n))),
	}
	return addr, receipt, nil
}

func (l *fakeLedger) Call(_ context.Context, to common.Address, calldata []byte) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fakeCall{to: to, calldata: calldata})
	return &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: common.BigToHash(big.NewInt(int64(1000 + len(l.calls)))),
	}, nil
}

func (l *fakeLedger) CodeAt(_ context.Context, address common.Address) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.code[address], nil
}

func (l *fakeLedger) Sender() common.Address {
	return common.HexToAddress("0x2222222222222222222222222222222222222222")
}

// fakeArtifacts serves artifacts and key material from maps.
type fakeArtifacts struct {
	artifacts map[string]*models.Artifact
	keys      map[string]map[string]*models.VerifyingKey
}

func (a *fakeArtifacts) GetArtifact(_ context.Context, ref string) (*models.Artifact, error) {
	artifact, ok := a.artifacts[ref]
	if !ok {
		return nil, fmt.Errorf("artifact %s: %w", ref, domain.ErrNotFound)
	}
	return artifact, nil
}

func (a *fakeArtifacts) GetVerifyingKeys(_ context.Context, file string) (map[string]*models.VerifyingKey, error) {
	keys, ok := a.keys[file]
	if !ok {
		return nil, fmt.Errorf("key file %s: %w", file, domain.ErrNotFound)
	}
	return keys, nil
}

type nopSink struct{}

func (nopSink) OnProgress(context.Context, usecase.ProgressEvent) {}
func (nopSink) Info(string)                                       {}
func (nopSink) Error(string)                                      {}

func testConfig(t *testing.T) *config.RuntimeConfig {
	t.Helper()
	dir := t.TempDir()
	return &config.RuntimeConfig{
		ProjectRoot: dir,
		DataDir:     filepath.Join(dir, ".maci"),
		Network: &config.NetworkConfig{
			Name:    "testnet",
			RpcUrl:  "http://localhost:8545",
			ChainID: 31337,
		},
		Timeout: time.Minute,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeStack(t *testing.T, cfg *config.RuntimeConfig, yaml string) string {
	t.Helper()
	path := filepath.Join(cfg.ProjectRoot, "stack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func mustABI(t *testing.T, def string) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(def))
	require.NoError(t, err)
	return parsed
}

func plainArtifact(t *testing.T, name string) *models.Artifact {
	return &models.Artifact{
		ContractName: name,
		ABI:          mustABI(t, `[]`),
		Bytecode:     "0x6080604052600a600b",
	}
}

// linkedArtifact produces bytecode carrying one hashed link marker per
// library, the way solc emits them.
func linkedArtifact(t *testing.T, name string, libraries ...string) *models.Artifact {
	bytecode := "0x608060"
	refs := make(map[string]map[string][]models.LinkOffset)
	for _, fqn := range libraries {
		marker := "__$" + hex.EncodeToString(crypto.Keccak256([]byte(fqn)))[:34] + "$__"
		bytecode += marker
		source, lib, _ := strings.Cut(fqn, ":")
		if refs[source] == nil {
			refs[source] = make(map[string][]models.LinkOffset)
		}
		refs[source][lib] = []models.LinkOffset{{Start: 0, Length: 20}}
	}
	bytecode += "604052"
	return &models.Artifact{
		ContractName:   name,
		ABI:            mustABI(t, `[]`),
		Bytecode:       bytecode,
		LinkReferences: refs,
	}
}

func argArtifact(t *testing.T, name string, inputs string) *models.Artifact {
	return &models.Artifact{
		ContractName: name,
		ABI:          mustABI(t, `[{"type":"constructor","inputs":[`+inputs+`]}]`),
		Bytecode:     "0x6080604052600a600b",
	}
}

const coreStackYAML = `name: maci-core
components:
  PoseidonT3:
    artifact: PoseidonT3.json
  PoseidonT4:
    artifact: PoseidonT4.json
  PoseidonT5:
    artifact: PoseidonT5.json
  PoseidonT6:
    artifact: PoseidonT6.json
  PollFactory:
    artifact: PollFactory.json
    libraries: [PoseidonT3, PoseidonT4, PoseidonT5, PoseidonT6]
  Verifier:
    artifact: Verifier.json
  MACI:
    artifact: MACI.json
    args: ["@PollFactory", "@Verifier"]
`

func coreArtifacts(t *testing.T) *fakeArtifacts {
	t.Helper()
	return &fakeArtifacts{
		artifacts: map[string]*models.Artifact{
			"PoseidonT3.json": plainArtifact(t, "PoseidonT3"),
			"PoseidonT4.json": plainArtifact(t, "PoseidonT4"),
			"PoseidonT5.json": plainArtifact(t, "PoseidonT5"),
			"PoseidonT6.json": plainArtifact(t, "PoseidonT6"),
			"PollFactory.json": linkedArtifact(t, "PollFactory",
				"contracts/crypto/PoseidonT3.sol:PoseidonT3",
				"contracts/crypto/PoseidonT4.sol:PoseidonT4",
				"contracts/crypto/PoseidonT5.sol:PoseidonT5",
				"contracts/crypto/PoseidonT6.sol:PoseidonT6",
			),
			"Verifier.json": plainArtifact(t, "Verifier"),
			"MACI.json": argArtifact(t, "MACI",
				`{"name":"pollFactory","type":"address"},{"name":"verifier","type":"address"}`),
		},
	}
}

func newUseCase(cfg *config.RuntimeConfig, store *fakeStore, ledger *fakeLedger, artifacts *fakeArtifacts) *usecase.DeployStack {
	return usecase.NewDeployStack(cfg, testLogger(), store, ledger, linker.NewSolcLinker(), artifacts, nopSink{})
}

func TestDeployStack_FullRun(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	ledger := newFakeLedger()
	uc := newUseCase(cfg, store, ledger, coreArtifacts(t))

	result, err := uc.Run(context.Background(), usecase.DeployStackParams{
		StackPath: writeStack(t, cfg, coreStackYAML),
	})
	require.NoError(t, err)

	assert.Equal(t, 7, result.Deployed())
	assert.Len(t, ledger.creates, 7)

	// All four library addresses made it into the factory bytecode.
	factory, err := store.GetContract(context.Background(), "testnet", "PollFactory")
	require.NoError(t, err)
	for _, lib := range []string{"PoseidonT3", "PoseidonT4", "PoseidonT5", "PoseidonT6"} {
		record, err := store.GetContract(context.Background(), "testnet", lib)
		require.NoError(t, err)
		wantBody := strings.ToLower(strings.TrimPrefix(record.Address, "0x"))
		found := false
		for _, initCode := range ledger.creates {
			if strings.Contains(hex.EncodeToString(initCode), wantBody) {
				found = true
				break
			}
		}
		assert.True(t, found, "address of %s linked into some creation", lib)
	}

	// MACI constructor args reference registered addresses.
	maciInit := ledger.creates[6]
	factoryAddr := common.HexToAddress(factory.Address)
	assert.True(t, strings.Contains(hex.EncodeToString(maciInit), hex.EncodeToString(factoryAddr.Bytes())))

	// Run state journal was written.
	_, err = os.Stat(filepath.Join(cfg.DataDir, "state", "stack-maci-core.json"))
	assert.NoError(t, err)
}

func TestDeployStack_ResumeSkipsRegistered(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	ledger := newFakeLedger()
	uc := newUseCase(cfg, store, ledger, coreArtifacts(t))

	ctx := context.Background()
	stackPath := writeStack(t, cfg, coreStackYAML)

	_, err := uc.Run(ctx, usecase.DeployStackParams{StackPath: stackPath})
	require.NoError(t, err)
	require.Len(t, ledger.creates, 7)

	result, err := uc.Run(ctx, usecase.DeployStackParams{StackPath: stackPath})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Deployed())
	assert.Len(t, result.Outcomes, 7)
	assert.Len(t, ledger.creates, 7, "no new transactions on a fully deployed stack")
}

func TestDeployStack_FailureMidRunThenResume(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	ledger := newFakeLedger()
	ledger.failAt = 5
	uc := newUseCase(cfg, store, ledger, coreArtifacts(t))

	ctx := context.Background()
	stackPath := writeStack(t, cfg, coreStackYAML)

	_, err := uc.Run(ctx, usecase.DeployStackParams{StackPath: stackPath})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrLedgerRejected)

	// The four libraries landed before the failure and stay registered.
	records, err := store.ListContracts(ctx, models.ContractFilter{Network: "testnet"})
	require.NoError(t, err)
	assert.Len(t, records, 4)

	// Rerunning the same command completes the remaining steps only.
	ledger.failAt = 0
	result, err := uc.Run(ctx, usecase.DeployStackParams{StackPath: stackPath})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Deployed())
	assert.Len(t, ledger.creates, 7)

	records, err = store.ListContracts(ctx, models.ContractFilter{Network: "testnet"})
	require.NoError(t, err)
	assert.Len(t, records, 7)
}

func TestDeployStack_CircularWiring(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	ledger := newFakeLedger()

	artifacts := &fakeArtifacts{
		artifacts: map[string]*models.Artifact{
			"A.json": plainArtifact(t, "A"),
			"B.json": argArtifact(t, "B", `{"name":"a","type":"address"}`),
		},
	}
	uc := newUseCase(cfg, store, ledger, artifacts)

	stackPath := writeStack(t, cfg, `name: circular
components:
  A:
    artifact: A.json
  B:
    artifact: B.json
    args: ["@A"]
wiring:
  - target: A
    method: setB(address)
    args: ["@B"]
`)

	ctx := context.Background()
	result, err := uc.Run(ctx, usecase.DeployStackParams{StackPath: stackPath})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Deployed())
	assert.Equal(t, 1, result.WiringDone)
	require.Len(t, ledger.calls, 1)

	// The wiring call went to A carrying B's address.
	aAddr, err := store.MustGetAddress(ctx, "testnet", "A")
	require.NoError(t, err)
	bAddr, err := store.MustGetAddress(ctx, "testnet", "B")
	require.NoError(t, err)
	call := ledger.calls[0]
	assert.Equal(t, aAddr, call.to)
	assert.Equal(t, crypto.Keccak256([]byte("setB(address)"))[:4], call.calldata[:4])
	assert.Contains(t, hex.EncodeToString(call.calldata), hex.EncodeToString(bAddr.Bytes()))

	// A second run skips the wiring; no new transaction is issued.
	result, err = uc.Run(ctx, usecase.DeployStackParams{StackPath: stackPath})
	require.NoError(t, err)
	assert.Equal(t, 0, result.WiringDone)
	assert.Equal(t, 1, result.WiringSkipped)
	assert.Len(t, ledger.calls, 1)
}

func TestDeployStack_VerifyingKeysSingleBatch(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	ledger := newFakeLedger()

	material := map[string]*models.VerifyingKey{
		"process-qv":    stubKey(1),
		"tally-qv":      stubKey(2),
		"process-nonqv": stubKey(3),
		"tally-nonqv":   stubKey(4),
	}
	artifacts := &fakeArtifacts{
		artifacts: map[string]*models.Artifact{
			"VkRegistry.json": plainArtifact(t, "VkRegistry"),
		},
		keys: map[string]map[string]*models.VerifyingKey{
			"zkeys/vks.json": material,
		},
	}
	uc := newUseCase(cfg, store, ledger, artifacts)

	stackPath := writeStack(t, cfg, `name: vkeys
components:
  VkRegistry:
    artifact: VkRegistry.json
keys:
  target: VkRegistry
  file: zkeys/vks.json
  entries:
    - mode: qv
      stateTreeDepth: 10
      intStateTreeDepth: 1
      messageBatchDepth: 2
      voteOptionTreeDepth: 2
      processKey: process-qv
      tallyKey: tally-qv
    - mode: non-qv
      stateTreeDepth: 10
      intStateTreeDepth: 1
      messageBatchDepth: 2
      voteOptionTreeDepth: 2
      processKey: process-nonqv
      tallyKey: tally-nonqv
`)

	ctx := context.Background()
	result, err := uc.Run(ctx, usecase.DeployStackParams{StackPath: stackPath})
	require.NoError(t, err)

	assert.True(t, result.KeysRegistered)
	require.Len(t, ledger.calls, 1, "both modes travel in one batched transaction")

	registry, err := store.MustGetAddress(ctx, "testnet", "VkRegistry")
	require.NoError(t, err)
	assert.Equal(t, registry, ledger.calls[0].to)

	// 5^2 = 25 appears as the message batch size for both entries.
	payload := hex.EncodeToString(ledger.calls[0].calldata)
	assert.Contains(t, payload, fmt.Sprintf("%064x", 25))

	// Rerunning skips the batch entirely.
	result, err = uc.Run(ctx, usecase.DeployStackParams{StackPath: stackPath})
	require.NoError(t, err)
	assert.False(t, result.KeysRegistered)
	assert.True(t, result.KeysSkipped)
	assert.Len(t, ledger.calls, 1)
}

func TestDeployStack_MissingLibraryDependency(t *testing.T) {
	cfg := testConfig(t)
	uc := newUseCase(cfg, newFakeStore(), newFakeLedger(), &fakeArtifacts{
		artifacts: map[string]*models.Artifact{
			"PollFactory.json": linkedArtifact(t, "PollFactory",
				"contracts/crypto/PoseidonT3.sol:PoseidonT3"),
		},
	})

	stackPath := writeStack(t, cfg, `name: broken
components:
  PollFactory:
    artifact: PollFactory.json
`)

	_, err := uc.Run(context.Background(), usecase.DeployStackParams{StackPath: stackPath})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingDependency)
}

func TestDeployStack_UnresolvedPlaceholder(t *testing.T) {
	cfg := testConfig(t)

	// Marker present in the bytecode but absent from the link references, so
	// no substitution covers it.
	artifact := linkedArtifact(t, "PollFactory", "contracts/crypto/PoseidonT3.sol:PoseidonT3")
	artifact.Bytecode += "__$" + hex.EncodeToString(crypto.Keccak256([]byte("ghost")))[:34] + "$__"

	store := newFakeStore()
	require.NoError(t, store.Register(context.Background(), &models.ContractRecord{
		Network: "testnet",
		ChainID: 31337,
		Name:    "PoseidonT3",
		Address: "0x1111111111111111111111111111111111111111",
	}))

	uc := newUseCase(cfg, store, newFakeLedger(), &fakeArtifacts{
		artifacts: map[string]*models.Artifact{"PollFactory.json": artifact},
	})

	stackPath := writeStack(t, cfg, `name: ghost
components:
  PollFactory:
    artifact: PollFactory.json
`)

	_, err := uc.Run(context.Background(), usecase.DeployStackParams{StackPath: stackPath})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnresolvedPlaceholder)
}

func TestDeployStack_DryRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.DryRun = true
	ledger := newFakeLedger()
	uc := newUseCase(cfg, newFakeStore(), ledger, coreArtifacts(t))

	result, err := uc.Run(context.Background(), usecase.DeployStackParams{
		StackPath: writeStack(t, cfg, coreStackYAML),
	})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Empty(t, ledger.creates)
	assert.Empty(t, ledger.calls)
}

func TestDeployStack_NoNetwork(t *testing.T) {
	cfg := testConfig(t)
	cfg.Network = nil
	uc := newUseCase(cfg, newFakeStore(), newFakeLedger(), coreArtifacts(t))

	_, err := uc.Run(context.Background(), usecase.DeployStackParams{StackPath: "stack.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network")
}

func stubKey(seed int64) *models.VerifyingKey {
	n := func(i int64) *big.Int { return big.NewInt(seed*1000 + i) }
	g2 := func(i int64) models.G2Point {
		return models.G2Point{X: [2]*big.Int{n(i), n(i + 1)}, Y: [2]*big.Int{n(i + 2), n(i + 3)}}
	}
	return &models.VerifyingKey{
		Alpha1: models.G1Point{X: n(1), Y: n(2)},
		Beta2:  g2(10),
		Gamma2: g2(20),
		Delta2: g2(30),
		IC:     []models.G1Point{{X: n(40), Y: n(41)}},
	}
}
