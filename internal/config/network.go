package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const networkCacheFile = "network-cache.json"

// NetworkResolver resolves network names to configurations with caching
type NetworkResolver struct {
	projectRoot string
	project     *ProjectConfig
	cache       *networkCache
	httpClient  *http.Client
	mu          sync.RWMutex
}

// networkCache caches chain ID lookups so repeated runs avoid an RPC
// round-trip per invocation.
type networkCache struct {
	Networks  map[string]uint64 `json:"networks"` // name -> chainID
	RPCs      map[string]uint64 `json:"rpcs"`     // rpcURL -> chainID
	UpdatedAt time.Time         `json:"updatedAt"`
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(projectRoot string, project *ProjectConfig) *NetworkResolver {
	r := &NetworkResolver{
		projectRoot: projectRoot,
		project:     project,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	r.loadCache()
	return r
}

// Resolve resolves a network name to its configuration
func (r *NetworkResolver) Resolve(networkName string) (*NetworkConfig, error) {
	rpcURL, exists := r.project.RpcEndpoints[networkName]
	if !exists {
		return nil, fmt.Errorf("network %q not found in %s [rpc_endpoints]", networkName, ProjectFile)
	}

	r.mu.RLock()
	chainID, cached := r.cache.Networks[networkName]
	r.mu.RUnlock()

	if !cached {
		fetched, err := r.fetchChainID(rpcURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chain ID for network %s: %w", networkName, err)
		}
		chainID = fetched
		r.updateCache(networkName, rpcURL, chainID)
	}

	return &NetworkConfig{
		Name:     networkName,
		RpcUrl:   rpcURL,
		ChainID:  chainID,
		Explorer: r.project.Explorers[networkName],
	}, nil
}

// Names returns all configured network names.
func (r *NetworkResolver) Names() []string {
	names := make([]string, 0, len(r.project.RpcEndpoints))
	for name := range r.project.RpcEndpoints {
		names = append(names, name)
	}
	return names
}

// fetchChainID fetches the chain ID from an RPC endpoint
func (r *NetworkResolver) fetchChainID(rpcURL string) (uint64, error) {
	r.mu.RLock()
	if chainID, exists := r.cache.RPCs[rpcURL]; exists {
		r.mu.RUnlock()
		return chainID, nil
	}
	r.mu.RUnlock()

	requestBody := `{"jsonrpc":"2.0","method":"eth_chainId","params":[],"id":1}`

	resp, err := r.httpClient.Post(rpcURL, "application/json", strings.NewReader(requestBody))
	if err != nil {
		return 0, fmt.Errorf("failed to make RPC request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	var rpcResponse struct {
		Result string `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcResponse); err != nil {
		return 0, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if rpcResponse.Error != nil {
		return 0, fmt.Errorf("RPC error %d: %s", rpcResponse.Error.Code, rpcResponse.Error.Message)
	}

	chainID, err := strconv.ParseUint(strings.TrimPrefix(rpcResponse.Result, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse chain ID %q: %w", rpcResponse.Result, err)
	}

	return chainID, nil
}

func (r *NetworkResolver) cachePath() string {
	return filepath.Join(r.projectRoot, ".maci", networkCacheFile)
}

func (r *NetworkResolver) loadCache() {
	r.cache = &networkCache{
		Networks: make(map[string]uint64),
		RPCs:     make(map[string]uint64),
	}

	data, err := os.ReadFile(r.cachePath())
	if err != nil {
		return
	}

	var cache networkCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return
	}
	if cache.Networks == nil {
		cache.Networks = make(map[string]uint64)
	}
	if cache.RPCs == nil {
		cache.RPCs = make(map[string]uint64)
	}
	r.cache = &cache
}

func (r *NetworkResolver) updateCache(networkName, rpcURL string, chainID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Networks[networkName] = chainID
	r.cache.RPCs[rpcURL] = chainID
	r.cache.UpdatedAt = time.Now()

	if err := os.MkdirAll(filepath.Dir(r.cachePath()), 0755); err != nil {
		return
	}
	data, err := json.MarshalIndent(r.cache, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(r.cachePath(), data, 0644)
}
