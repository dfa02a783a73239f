package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ProjectFile is the project configuration file that marks the project root.
const ProjectFile = "maci.toml"

// loadProjectConfig loads and parses maci.toml, expanding ${VAR} references
// from the environment.
func loadProjectConfig(projectRoot string) (*ProjectConfig, error) {
	// Load .env files first so endpoint references can expand
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", envFile, err)
			}
		}
	}

	path := filepath.Join(projectRoot, ProjectFile)
	var cfg ProjectConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFile, err)
	}

	expanded := make(map[string]string, len(cfg.RpcEndpoints))
	for name, url := range cfg.RpcEndpoints {
		expanded[name] = os.ExpandEnv(url)
	}
	cfg.RpcEndpoints = expanded

	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = "artifacts"
	}

	return &cfg, nil
}

// PrivateKeyHex returns the deployer private key from the configured
// environment variable.
func (p *ProjectConfig) PrivateKeyHex() (string, error) {
	envName := p.Accounts.PrivateKeyEnv
	if envName == "" {
		envName = "MACI_PRIVATE_KEY"
	}

	key := os.Getenv(envName)
	if key == "" {
		return "", fmt.Errorf("deployer key not set: export %s", envName)
	}
	return key, nil
}
