package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/daniel0ar/maci-platform/internal/config"
	"github.com/daniel0ar/maci-platform/internal/domain"
	"github.com/daniel0ar/maci-platform/internal/domain/models"
	"github.com/daniel0ar/maci-platform/internal/usecase"
)

const (
	DataDir       = ".maci"
	ContractsFile = "contracts.json"
	WiringsFile   = "wirings.json"
)

// FileRepository persists contract and wiring records in JSON files keyed by
// network. Collections are append-only: an address never changes once
// registered.
type FileRepository struct {
	rootDir string
	mu      sync.RWMutex

	// network -> ordered records, as persisted
	contracts map[string][]*models.ContractRecord
	wirings   map[string][]*models.WiringRecord

	// network -> key -> record, rebuilt on load and registration
	byKey     map[string]map[string]*models.ContractRecord
	wiringKey map[string]map[string]*models.WiringRecord
}

// NewFileRepository creates a repository rooted at the project directory.
func NewFileRepository(rootDir string) (*FileRepository, error) {
	dataDir := filepath.Join(rootDir, DataDir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", DataDir, err)
	}

	r := &FileRepository{
		rootDir:   rootDir,
		contracts: make(map[string][]*models.ContractRecord),
		wirings:   make(map[string][]*models.WiringRecord),
	}

	if err := r.load(); err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	return r, nil
}

// NewFileRepositoryFromConfig creates a FileRepository from RuntimeConfig.
func NewFileRepositoryFromConfig(cfg *config.RuntimeConfig) (*FileRepository, error) {
	return NewFileRepository(cfg.ProjectRoot)
}

func (r *FileRepository) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadFile(ContractsFile, &r.contracts); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load contracts: %w", err)
	}
	if err := r.loadFile(WiringsFile, &r.wirings); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load wirings: %w", err)
	}

	r.rebuildLookups()
	return nil
}

func (r *FileRepository) loadFile(filename string, v any) error {
	path := filepath.Join(r.rootDir, DataDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (r *FileRepository) save() error {
	if err := r.saveFile(ContractsFile, r.contracts); err != nil {
		return fmt.Errorf("failed to save contracts: %w", err)
	}
	if err := r.saveFile(WiringsFile, r.wirings); err != nil {
		return fmt.Errorf("failed to save wirings: %w", err)
	}
	return nil
}

func (r *FileRepository) saveFile(filename string, v any) error {
	path := filepath.Join(r.rootDir, DataDir, filename)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first, then atomic rename
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func (r *FileRepository) rebuildLookups() {
	r.byKey = make(map[string]map[string]*models.ContractRecord)
	for network, records := range r.contracts {
		idx := make(map[string]*models.ContractRecord, len(records))
		for _, rec := range records {
			idx[rec.Key()] = rec
		}
		r.byKey[network] = idx
	}

	r.wiringKey = make(map[string]map[string]*models.WiringRecord)
	for network, records := range r.wirings {
		idx := make(map[string]*models.WiringRecord, len(records))
		for _, rec := range records {
			idx[rec.Key] = rec
		}
		r.wiringKey[network] = idx
	}
}

// Register appends a new contract record. An unlabeled registration for a
// (name, network) pair that already holds an unlabeled record fails with
// DuplicateRecordError; a label disambiguates further instances.
func (r *FileRepository) Register(ctx context.Context, record *models.ContractRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.Address == "" || record.Address == (common.Address{}).Hex() {
		return fmt.Errorf("%w: refusing to register zero address for %s", domain.ErrInvalidAddress, record.Name)
	}

	if existing, ok := r.byKey[record.Network][record.Key()]; ok {
		return &domain.DuplicateRecordError{
			Contract: record.Key(),
			Network:  record.Network,
			Address:  existing.Address,
		}
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	clone := *record
	r.contracts[record.Network] = append(r.contracts[record.Network], &clone)
	if r.byKey[record.Network] == nil {
		r.byKey[record.Network] = make(map[string]*models.ContractRecord)
	}
	r.byKey[record.Network][clone.Key()] = &clone

	return r.save()
}

// MustGetAddress returns the registered address or a MissingDependencyError.
func (r *FileRepository) MustGetAddress(ctx context.Context, network, key string) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byKey[network][key]
	if !ok {
		return common.Address{}, &domain.MissingDependencyError{Contract: key, Network: network}
	}
	return common.HexToAddress(rec.Address), nil
}

// TryGetAddress reports whether a contract is registered without failing.
func (r *FileRepository) TryGetAddress(ctx context.Context, network, key string) (common.Address, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byKey[network][key]
	if !ok {
		return common.Address{}, false, nil
	}
	return common.HexToAddress(rec.Address), true, nil
}

// GetContract retrieves a record by network and key.
func (r *FileRepository) GetContract(ctx context.Context, network, key string) (*models.ContractRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byKey[network][key]
	if !ok {
		return nil, domain.ErrNotFound
	}

	clone := *rec
	return &clone, nil
}

// ListContracts enumerates records matching the filter, in registration order.
func (r *FileRepository) ListContracts(ctx context.Context, filter models.ContractFilter) ([]*models.ContractRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.ContractRecord
	for network, records := range r.contracts {
		if filter.Network != "" && network != filter.Network {
			continue
		}
		for _, rec := range records {
			if filter.Name != "" && rec.Name != filter.Name {
				continue
			}
			if filter.ChainID != 0 && rec.ChainID != filter.ChainID {
				continue
			}
			clone := *rec
			result = append(result, &clone)
		}
	}
	return result, nil
}

// RegisterWiring marks a wiring call as completed. Re-registration of the
// same key is idempotent.
func (r *FileRepository) RegisterWiring(ctx context.Context, record *models.WiringRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.wiringKey[record.Network][record.Key]; ok {
		return nil
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	clone := *record
	r.wirings[record.Network] = append(r.wirings[record.Network], &clone)
	if r.wiringKey[record.Network] == nil {
		r.wiringKey[record.Network] = make(map[string]*models.WiringRecord)
	}
	r.wiringKey[record.Network][clone.Key] = &clone

	return r.save()
}

// HasWiring reports whether a wiring call was already issued on the network.
func (r *FileRepository) HasWiring(ctx context.Context, network, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.wiringKey[network][key]
	return ok, nil
}

var _ usecase.ContractStore = (*FileRepository)(nil)
