package models

import (
	"fmt"
	"strings"
)

// StackConfig is the parsed stack file: the components to deploy, the wiring
// calls that resolve circular references after creation, and the verifying-key
// registration step. The file only describes topology; addresses come from the
// registry at run time.
type StackConfig struct {
	Name       string                      `yaml:"name"`
	Components map[string]*ComponentConfig `yaml:"components"`
	Wiring     []*WiringConfig             `yaml:"wiring,omitempty"`
	Keys       *VerifyingKeysConfig        `yaml:"keys,omitempty"`
}

// ComponentConfig describes a single contract creation.
type ComponentConfig struct {
	// Artifact is the compiled artifact reference, e.g. "artifacts/MACI.json".
	Artifact string `yaml:"artifact"`
	// Libraries lists component names whose addresses must be linked into the
	// bytecode before creation.
	Libraries []string `yaml:"libraries,omitempty"`
	// Args are constructor arguments. A value of the form "@Name" or
	// "@Name:label" resolves to the registered address of that component.
	Args []string `yaml:"args,omitempty"`
	// Deps are additional ordering constraints beyond libraries and arg
	// references.
	Deps []string `yaml:"deps,omitempty"`
	// Label distinguishes multiple deployments under one logical id.
	Label string `yaml:"label,omitempty"`
}

// WiringConfig describes one post-creation state-changing call.
type WiringConfig struct {
	// Target is the component receiving the call.
	Target string `yaml:"target"`
	// Method is the full Solidity signature, e.g. "setMaciInstance(address)".
	Method string `yaml:"method"`
	// Args follow the same "@Name" reference convention as constructor args.
	Args []string `yaml:"args,omitempty"`
}

// Key identifies a wiring call for the registry idempotency check.
func (w *WiringConfig) Key() string {
	method := w.Method
	if idx := strings.Index(method, "("); idx > 0 {
		method = method[:idx]
	}
	return fmt.Sprintf("%s.%s", w.Target, method)
}

// VerifyingKeysConfig describes the batched verifying-key registration.
type VerifyingKeysConfig struct {
	// Target is the VkRegistry component name.
	Target string `yaml:"target"`
	// File holds the structured key material, keyed by key name.
	File string `yaml:"file"`
	// Entries are positionally aligned: entry i supplies mode i, config i and
	// key pair i of the single batched call.
	Entries []*VerifyingKeyEntry `yaml:"entries"`
}

// VerifyingKeyEntry binds one (mode, tree configuration) pair to its process
// and tally keys.
type VerifyingKeyEntry struct {
	Mode                Mode   `yaml:"mode"`
	StateTreeDepth      uint8  `yaml:"stateTreeDepth"`
	IntStateTreeDepth   uint8  `yaml:"intStateTreeDepth"`
	MessageBatchDepth   uint8  `yaml:"messageBatchDepth"`
	VoteOptionTreeDepth uint8  `yaml:"voteOptionTreeDepth"`
	ProcessKey          string `yaml:"processKey"`
	TallyKey            string `yaml:"tallyKey"`
}

// ArgRef reports whether an argument value is a registry reference and, if
// so, returns the referenced component name.
func ArgRef(arg string) (string, bool) {
	if strings.HasPrefix(arg, "@") {
		return strings.TrimPrefix(arg, "@"), true
	}
	return "", false
}

// Validate checks the stack configuration before any plan is built.
func (c *StackConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("stack name is required")
	}
	if len(c.Components) == 0 {
		return fmt.Errorf("at least one component is required")
	}

	for name, component := range c.Components {
		if component.Artifact == "" {
			return fmt.Errorf("component %q must specify an artifact", name)
		}
		for _, dep := range component.DependsOn() {
			if dep == name {
				return fmt.Errorf("component %q cannot depend on itself", name)
			}
			if _, exists := c.Components[dep]; !exists {
				return fmt.Errorf("component %q depends on unknown component %q", name, dep)
			}
		}
	}

	for _, w := range c.Wiring {
		if _, exists := c.Components[w.Target]; !exists {
			return fmt.Errorf("wiring call targets unknown component %q", w.Target)
		}
		if !strings.Contains(w.Method, "(") || !strings.HasSuffix(w.Method, ")") {
			return fmt.Errorf("wiring method %q must be a full signature", w.Method)
		}
	}

	if c.Keys != nil {
		if _, exists := c.Components[c.Keys.Target]; !exists {
			return fmt.Errorf("keys step targets unknown component %q", c.Keys.Target)
		}
		if len(c.Keys.Entries) == 0 {
			return fmt.Errorf("keys step requires at least one entry")
		}
		for i, entry := range c.Keys.Entries {
			if !entry.Mode.Valid() {
				return fmt.Errorf("keys entry %d: unknown mode %q", i, entry.Mode)
			}
			if entry.ProcessKey == "" || entry.TallyKey == "" {
				return fmt.Errorf("keys entry %d: processKey and tallyKey are required", i)
			}
		}
	}

	return nil
}

// DependsOn returns every component this one must wait for: linked libraries,
// explicit deps, and constructor argument references.
func (c *ComponentConfig) DependsOn() []string {
	seen := make(map[string]struct{})
	var deps []string
	add := func(name string) {
		// A reference may carry a label ("@Poll:weekly"); ordering only cares
		// about the component name.
		if idx := strings.Index(name, ":"); idx > 0 {
			name = name[:idx]
		}
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			deps = append(deps, name)
		}
	}

	for _, lib := range c.Libraries {
		add(lib)
	}
	for _, dep := range c.Deps {
		add(dep)
	}
	for _, arg := range c.Args {
		if ref, ok := ArgRef(arg); ok {
			add(ref)
		}
	}
	return deps
}
