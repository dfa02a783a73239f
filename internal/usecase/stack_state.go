package usecase

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Step statuses recorded in the run state file.
const (
	StepStatusPending   = "pending"
	StepStatusCompleted = "completed"
	StepStatusSkipped   = "skipped"
	StepStatusFailed    = "failed"
)

// RunState is the progress journal of one stack run, persisted under
// .maci/state/. It exists for operator visibility; resume decisions are made
// against the registry, never against this file.
type RunState struct {
	Stack     string                `json:"stack"`
	Network   string                `json:"network"`
	Status    string                `json:"status"`
	StartedAt time.Time             `json:"startedAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
	Steps     map[string]*StepState `json:"steps"`
}

// StepState is one creation or wiring step as last observed.
type StepState struct {
	Status  string `json:"status"`
	Address string `json:"address,omitempty"`
	TxHash  string `json:"txHash,omitempty"`
	Error   string `json:"error,omitempty"`
}

type runStateFile struct {
	path  string
	state *RunState
}

func openRunState(dataDir, stack, network string) (*runStateFile, error) {
	dir := filepath.Join(dataDir, "state")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	f := &runStateFile{
		path: filepath.Join(dir, fmt.Sprintf("stack-%s.json", stack)),
	}

	data, err := os.ReadFile(f.path)
	switch {
	case err == nil:
		var prior RunState
		if err := json.Unmarshal(data, &prior); err == nil && prior.Network == network {
			prior.Status = "running"
			f.state = &prior
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading run state: %w", err)
	}

	if f.state == nil {
		f.state = &RunState{
			Stack:     stack,
			Network:   network,
			Status:    "running",
			StartedAt: time.Now().UTC(),
			Steps:     make(map[string]*StepState),
		}
	}
	return f, nil
}

// resumed reports whether a prior run left completed steps behind.
func (f *runStateFile) resumed() bool {
	for _, step := range f.state.Steps {
		if step.Status == StepStatusCompleted || step.Status == StepStatusSkipped {
			return true
		}
	}
	return false
}

func (f *runStateFile) record(step string, state *StepState) error {
	f.state.Steps[step] = state
	return f.save()
}

func (f *runStateFile) finish(status string) error {
	f.state.Status = status
	return f.save()
}

func (f *runStateFile) save() error {
	f.state.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(f.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run state: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing run state: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing run state: %w", err)
	}
	return nil
}
