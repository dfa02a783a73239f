package linker_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniel0ar/maci-platform/internal/adapters/linker"
	"github.com/daniel0ar/maci-platform/internal/domain"
)

const poseidonT3 = "contracts/crypto/Hasher.sol:PoseidonT3"

func hashedMarker(name string) string {
	digest := crypto.Keccak256([]byte(name))
	return "__$" + hex.EncodeToString(digest)[:34] + "$__"
}

func legacyMarker(name string) string {
	trimmed := name
	if len(trimmed) > 36 {
		trimmed = trimmed[:36]
	}
	return "__" + trimmed + strings.Repeat("_", 36-len(trimmed)) + "__"
}

func TestLink_SubstitutesHashedMarker(t *testing.T) {
	l := linker.NewSolcLinker()
	addr := common.HexToAddress("0x1234567890123456789012345678901234567890")

	bytecode := "0x6080604052" + hashedMarker(poseidonT3) + "6001600155"
	linked, err := l.Link(bytecode, map[string]common.Address{poseidonT3: addr})
	require.NoError(t, err)

	assert.Equal(t, "0x60806040521234567890123456789012345678901234567890"+"6001600155", linked)
	assert.NotContains(t, linked, "__")
}

func TestLink_SubstitutesLegacyMarker(t *testing.T) {
	l := linker.NewSolcLinker()
	addr := common.HexToAddress("0x1234567890123456789012345678901234567890")

	bytecode := "0x6080" + legacyMarker(poseidonT3) + "6002"
	linked, err := l.Link(bytecode, map[string]common.Address{poseidonT3: addr})
	require.NoError(t, err)
	assert.Equal(t, "0x60801234567890123456789012345678901234567890"+"6002", linked)
}

func TestLink_Deterministic(t *testing.T) {
	l := linker.NewSolcLinker()
	libraries := map[string]common.Address{
		"a.sol:L1": common.HexToAddress("0x1111111111111111111111111111111111111111"),
		"b.sol:L2": common.HexToAddress("0x2222222222222222222222222222222222222222"),
	}
	bytecode := "0x6080" + hashedMarker("a.sol:L1") + "60aa" + hashedMarker("b.sol:L2") + "60bb"

	first, err := l.Link(bytecode, libraries)
	require.NoError(t, err)
	second, err := l.Link(bytecode, libraries)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLink_UnresolvedPlaceholderFails(t *testing.T) {
	l := linker.NewSolcLinker()
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")

	bytecode := "0x6080" + hashedMarker("a.sol:L1") + hashedMarker("b.sol:L2") + "60ff"

	// Only one of the two libraries supplied
	_, err := l.Link(bytecode, map[string]common.Address{"a.sol:L1": addr})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnresolvedPlaceholder)

	var unresolved *domain.UnresolvedPlaceholderError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, []string{hashedMarker("b.sol:L2")}, unresolved.Markers)
}

func TestLink_EmptyPlaceholderSetFails(t *testing.T) {
	l := linker.NewSolcLinker()

	bytecode := "0x6080" + hashedMarker("a.sol:L1") + "60ff"
	_, err := l.Link(bytecode, nil)
	assert.ErrorIs(t, err, domain.ErrUnresolvedPlaceholder)
}

func TestLink_NoMarkersPassesThrough(t *testing.T) {
	l := linker.NewSolcLinker()

	linked, err := l.Link("0x608060405260016000", nil)
	require.NoError(t, err)
	assert.Equal(t, "0x608060405260016000", linked)
}

func TestLink_RejectsInvalidHexAfterLinking(t *testing.T) {
	l := linker.NewSolcLinker()

	// Odd-length body survives marker substitution but is not deployable
	_, err := l.Link("0x60806", nil)
	assert.Error(t, err)
}
