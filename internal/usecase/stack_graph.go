package usecase

import (
	"fmt"
	"sort"

	"github.com/daniel0ar/maci-platform/internal/domain/models"
)

// StackPlan is the linearized deployment plan: creation steps in dependency
// order, followed by the wiring pass and the optional verifying-key step.
// The plan lives only for the duration of one run; only its effects
// (registry records) are persisted.
type StackPlan struct {
	Name   string
	Steps  []*StackStep
	Wiring []*models.WiringConfig
	Keys   *models.VerifyingKeysConfig
}

// StackStep is one contract creation.
type StackStep struct {
	Name         string
	Component    *models.ComponentConfig
	Dependencies []string
}

// RegistryKey is the key the step's record uses in the registry.
func (s *StackStep) RegistryKey() string {
	if s.Component.Label != "" {
		return fmt.Sprintf("%s:%s", s.Name, s.Component.Label)
	}
	return s.Name
}

// dependencyGraph is a DAG over stack components, edges pointing from a
// dependency to its dependents.
type dependencyGraph struct {
	nodes map[string]*models.ComponentConfig
	edges map[string][]string
}

func newDependencyGraph(cfg *models.StackConfig) *dependencyGraph {
	graph := &dependencyGraph{
		nodes: cfg.Components,
		edges: make(map[string][]string),
	}

	for name, component := range cfg.Components {
		for _, dep := range component.DependsOn() {
			if _, exists := cfg.Components[dep]; !exists {
				// Caught during validation
				continue
			}
			graph.edges[dep] = append(graph.edges[dep], name)
		}
	}

	return graph
}

// topologicalSort returns the creation steps in execution order, or an error
// when the "requires address of" edges form a cycle. Circular relationships
// must be expressed as wiring calls instead.
func (g *dependencyGraph) topologicalSort() ([]*StackStep, error) {
	inDegree := make(map[string]int)
	for name := range g.nodes {
		inDegree[name] = 0
	}
	for name, component := range g.nodes {
		for _, dep := range component.DependsOn() {
			if _, exists := g.nodes[dep]; !exists {
				return nil, fmt.Errorf("component %q depends on unknown component %q", name, dep)
			}
			inDegree[name]++
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	// Deterministic order between independent components
	sort.Strings(queue)

	var result []*StackStep
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		component := g.nodes[current]
		result = append(result, &StackStep{
			Name:         current,
			Component:    component,
			Dependencies: component.DependsOn(),
		})

		dependents := g.edges[current]
		sort.Strings(dependents)
		for _, dependent := range dependents {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycleNodes []string
		for name, degree := range inDegree {
			if degree > 0 {
				cycleNodes = append(cycleNodes, name)
			}
		}
		sort.Strings(cycleNodes)
		return nil, fmt.Errorf("circular dependency detected involving components: %v (use a wiring call for circular references)", cycleNodes)
	}

	return result, nil
}

// buildPlan validates the stack configuration and linearizes it.
func buildPlan(cfg *models.StackConfig) (*StackPlan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	steps, err := newDependencyGraph(cfg).topologicalSort()
	if err != nil {
		return nil, err
	}

	return &StackPlan{
		Name:   cfg.Name,
		Steps:  steps,
		Wiring: cfg.Wiring,
		Keys:   cfg.Keys,
	}, nil
}
