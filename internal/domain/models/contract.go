package models

import (
	"fmt"
	"time"
)

// ContractName is the stable logical identifier of a deployable component,
// independent of its on-chain address.
type ContractName string

// Known contracts of the MACI stack. A stack file may introduce additional
// names; these constants only cover the canonical topology.
const (
	PoseidonT3               ContractName = "PoseidonT3"
	PoseidonT4               ContractName = "PoseidonT4"
	PoseidonT5               ContractName = "PoseidonT5"
	PoseidonT6               ContractName = "PoseidonT6"
	PollFactory              ContractName = "PollFactory"
	MessageProcessorFactory  ContractName = "MessageProcessorFactory"
	TallyFactory             ContractName = "TallyFactory"
	Verifier                 ContractName = "Verifier"
	VkRegistry               ContractName = "VkRegistry"
	FreeForAllGatekeeper     ContractName = "FreeForAllGatekeeper"
	ConstantVoiceCreditProxy ContractName = "ConstantInitialVoiceCreditProxy"
	MACI                     ContractName = "MACI"
)

// ContractRecord is one registered deployment of a contract on a network.
// Records are append-only: the address never changes once registered.
type ContractRecord struct {
	Network   string       `json:"network"`
	ChainID   uint64       `json:"chainId"`
	Name      ContractName `json:"name"`
	Label     string       `json:"label,omitempty"`
	Address   string       `json:"address"`
	Args      []string     `json:"args,omitempty"`
	TxHash    string       `json:"txHash,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Key returns the registry key for the record: Name, or Name:label when a
// label distinguishes multiple instances under one logical id.
func (r *ContractRecord) Key() string {
	if r.Label != "" {
		return fmt.Sprintf("%s:%s", r.Name, r.Label)
	}
	return string(r.Name)
}

// ID returns the fully qualified identifier, e.g. "optimism-sepolia/MACI".
func (r *ContractRecord) ID() string {
	return fmt.Sprintf("%s/%s", r.Network, r.Key())
}

// WiringRecord marks a post-creation wiring call as completed so a resumed
// run does not issue it again.
type WiringRecord struct {
	Network   string    `json:"network"`
	Key       string    `json:"key"` // e.g. "MACI.setVkRegistry" or "VkRegistry.setVerifyingKeysBatch"
	Target    string    `json:"target"`
	TxHash    string    `json:"txHash,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContractFilter narrows registry enumeration.
type ContractFilter struct {
	Network string
	Name    ContractName
	ChainID uint64
}
