package config

import (
	"time"
)

// RuntimeConfig is the fully resolved runtime configuration, injected into
// use cases.
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Network is nil until a --network flag or config value resolves one.
	Network *NetworkConfig

	// Execution settings
	Debug          bool
	NonInteractive bool
	Timeout        time.Duration
	DryRun         bool

	// VerifyResume probes on-chain code for every registered component that a
	// resumed run skips.
	VerifyResume bool

	// Resolved project configuration (maci.toml)
	Project *ProjectConfig
}

// NetworkConfig is a resolved target network.
type NetworkConfig struct {
	Name     string
	RpcUrl   string
	ChainID  uint64
	Explorer string
}

// ProjectConfig mirrors the maci.toml structure.
type ProjectConfig struct {
	// RpcEndpoints maps network name to RPC URL; values may reference
	// environment variables with ${VAR}.
	RpcEndpoints map[string]string `toml:"rpc_endpoints"`
	// Explorers maps network name to a block explorer base URL.
	Explorers map[string]string `toml:"explorers,omitempty"`
	// Accounts configures the submitting identity.
	Accounts AccountsConfig `toml:"accounts"`
	// ArtifactsDir is the directory holding compiled contract artifacts,
	// relative to the project root.
	ArtifactsDir string `toml:"artifacts_dir,omitempty"`
}

// AccountsConfig selects the deployer key. The key itself never lives in the
// TOML file; only the name of the environment variable that holds it.
type AccountsConfig struct {
	PrivateKeyEnv string `toml:"private_key_env,omitempty"`
}
