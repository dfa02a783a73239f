package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrMissingDependency is returned when a prerequisite contract has no
	// registered address on the target network
	ErrMissingDependency = errors.New("missing dependency")

	// ErrDuplicateRecord is returned when an unlabeled record already exists
	// for a (contract, network) pair and a second unlabeled registration is attempted
	ErrDuplicateRecord = errors.New("duplicate record")

	// ErrUnresolvedPlaceholder is returned when bytecode still contains
	// library link markers after substitution
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")

	// ErrLedgerRejected is returned when the chain rejected or reverted a
	// submitted transaction
	ErrLedgerRejected = errors.New("transaction rejected")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidStack is returned when a stack configuration is invalid
	ErrInvalidStack = errors.New("invalid stack")
)

// MissingDependencyError reports which prerequisite was not registered.
type MissingDependencyError struct {
	Contract string
	Network  string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("no deployment of %s registered on network %s", e.Contract, e.Network)
}

func (e *MissingDependencyError) Unwrap() error { return ErrMissingDependency }

// DuplicateRecordError reports a conflicting registration.
type DuplicateRecordError struct {
	Contract string
	Network  string
	Address  string
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("%s already registered on network %s at %s (use a label to register another instance)",
		e.Contract, e.Network, e.Address)
}

func (e *DuplicateRecordError) Unwrap() error { return ErrDuplicateRecord }

// UnresolvedPlaceholderError lists every link marker left in the bytecode
// after substitution.
type UnresolvedPlaceholderError struct {
	Markers []string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("bytecode contains unresolved library placeholders: %s",
		strings.Join(e.Markers, ", "))
}

func (e *UnresolvedPlaceholderError) Unwrap() error { return ErrUnresolvedPlaceholder }

// LedgerRejectionError carries the failing transaction context.
type LedgerRejectionError struct {
	TxHash string
	Reason string
}

func (e *LedgerRejectionError) Error() string {
	if e.TxHash == "" {
		return fmt.Sprintf("transaction rejected: %s", e.Reason)
	}
	return fmt.Sprintf("transaction %s rejected: %s", e.TxHash, e.Reason)
}

func (e *LedgerRejectionError) Unwrap() error { return ErrLedgerRejected }
