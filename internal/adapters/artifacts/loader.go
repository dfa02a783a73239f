package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/daniel0ar/maci-platform/internal/config"
	"github.com/daniel0ar/maci-platform/internal/domain/models"
	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// rawArtifact mirrors the compiler output JSON on disk.
type rawArtifact struct {
	ContractName   string                                    `json:"contractName"`
	SourceName     string                                    `json:"sourceName"`
	ABI            json.RawMessage                           `json:"abi"`
	Bytecode       string                                    `json:"bytecode"`
	LinkReferences map[string]map[string][]models.LinkOffset `json:"linkReferences"`
}

// Loader reads compiled contract artifacts from the project's artifacts
// directory, caching parsed results per path.
type Loader struct {
	rootDir      string
	artifactsDir string

	mu    sync.Mutex
	cache map[string]*models.Artifact
}

// NewLoader creates an artifact loader for the project.
func NewLoader(cfg *config.RuntimeConfig) *Loader {
	dir := "artifacts"
	if cfg.Project != nil && cfg.Project.ArtifactsDir != "" {
		dir = cfg.Project.ArtifactsDir
	}
	return &Loader{
		rootDir:      cfg.ProjectRoot,
		artifactsDir: dir,
		cache:        make(map[string]*models.Artifact),
	}
}

// GetArtifact loads an artifact by reference. A relative reference is
// resolved against the artifacts directory.
func (l *Loader) GetArtifact(ctx context.Context, ref string) (*models.Artifact, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, ok := l.cache[ref]; ok {
		return cached, nil
	}

	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.rootDir, l.artifactsDir, ref)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", ref, err)
	}

	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", ref, err)
	}
	if raw.Bytecode == "" {
		return nil, fmt.Errorf("artifact %s has no bytecode", ref)
	}

	parsedABI, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI of %s: %w", ref, err)
	}

	artifact := &models.Artifact{
		ContractName:   raw.ContractName,
		SourceName:     raw.SourceName,
		ABI:            parsedABI,
		RawABI:         raw.ABI,
		Bytecode:       raw.Bytecode,
		LinkReferences: raw.LinkReferences,
	}
	l.cache[ref] = artifact
	return artifact, nil
}

var _ usecase.ArtifactRepository = (*Loader)(nil)
