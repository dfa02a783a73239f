package models

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is a compiled contract artifact: the creation bytecode template,
// its ABI and the library link references left by the compiler.
type Artifact struct {
	ContractName string
	SourceName   string
	ABI          abi.ABI
	RawABI       json.RawMessage
	// Bytecode is the 0x-prefixed creation bytecode, possibly containing
	// unresolved library link markers.
	Bytecode string
	// LinkReferences maps source file -> library name -> byte offsets of the
	// placeholder inside the bytecode.
	LinkReferences map[string]map[string][]LinkOffset
}

// LinkOffset locates one placeholder occurrence in the bytecode.
type LinkOffset struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// LibraryNames returns every library the bytecode links against, as
// fully-qualified "source:Library" names.
func (a *Artifact) LibraryNames() []string {
	var names []string
	for source, libs := range a.LinkReferences {
		for lib := range libs {
			names = append(names, source+":"+lib)
		}
	}
	return names
}
