package linker

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/daniel0ar/maci-platform/internal/domain"
	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// leftoverPattern matches any link marker still present after substitution:
// the hashed form (__$<34 hex>$__) emitted by solc >=0.5 and the legacy
// fully-qualified-name form (__<name padded to 36>__).
var leftoverPattern = regexp.MustCompile(`__\$[0-9a-fA-F]{34}\$__|__[A-Za-z0-9_$.:\\/-]{36}__`)

// SolcLinker substitutes solc library placeholders in creation bytecode.
// Linking is a pure function: no ledger interaction, deterministic output.
type SolcLinker struct{}

// NewSolcLinker creates a new linker.
func NewSolcLinker() *SolcLinker {
	return &SolcLinker{}
}

// Link replaces every library placeholder with its address. Keys are
// fully-qualified library names ("contracts/crypto/Hasher.sol:PoseidonT3");
// a plain library name is accepted too and hashed as-is, matching how the
// compiler derives the marker. Any marker left in the bytecode afterwards is
// an UnresolvedPlaceholderError, raised before any ledger submission.
func (l *SolcLinker) Link(bytecode string, libraries map[string]common.Address) (string, error) {
	body := strings.TrimPrefix(bytecode, "0x")

	for name, address := range libraries {
		addrHex := strings.ToLower(address.Hex()[2:])
		body = strings.ReplaceAll(body, hashedMarker(name), addrHex)
		body = strings.ReplaceAll(body, legacyMarker(name), addrHex)
	}

	if leftover := leftoverPattern.FindAllString(body, -1); len(leftover) > 0 {
		return "", &domain.UnresolvedPlaceholderError{Markers: dedupe(leftover)}
	}

	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("linked bytecode is not valid hex: %w", err)
	}

	return "0x" + body, nil
}

// hashedMarker builds the solc >=0.5 placeholder for a library name:
// "__$" + first 17 bytes of keccak256(name) in hex + "$__".
func hashedMarker(name string) string {
	digest := crypto.Keccak256([]byte(name))
	return "__$" + hex.EncodeToString(digest)[:34] + "$__"
}

// legacyMarker builds the pre-0.5 placeholder: the name truncated to 36
// characters and padded with underscores to a 40-character marker.
func legacyMarker(name string) string {
	trimmed := name
	if len(trimmed) > 36 {
		trimmed = trimmed[:36]
	}
	return "__" + trimmed + strings.Repeat("_", 36-len(trimmed)) + "__"
}

func dedupe(markers []string) []string {
	seen := make(map[string]struct{}, len(markers))
	var result []string
	for _, m := range markers {
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			result = append(result, m)
		}
	}
	return result
}

var _ usecase.Linker = (*SolcLinker)(nil)
