package usecase

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniel0ar/maci-platform/internal/domain/models"
)

func staticResolver(addrs map[string]common.Address) addressResolver {
	return func(ref string) (common.Address, error) {
		return addrs[ref], nil
	}
}

func TestParseWiringMethod(t *testing.T) {
	method, err := parseWiringMethod("setMaciInstance(address)")
	require.NoError(t, err)

	assert.Equal(t, "setMaciInstance", method.Name)
	require.Len(t, method.Inputs, 1)
	assert.Equal(t, crypto.Keccak256([]byte("setMaciInstance(address)"))[:4], method.ID)
}

func TestParseWiringMethod_NoArgs(t *testing.T) {
	method, err := parseWiringMethod("initialize()")
	require.NoError(t, err)
	assert.Empty(t, method.Inputs)
	assert.Equal(t, crypto.Keccak256([]byte("initialize()"))[:4], method.ID)
}

func TestParseWiringMethod_Malformed(t *testing.T) {
	for _, sig := range []string{"setThing", "(address)", "setThing(address"} {
		_, err := parseWiringMethod(sig)
		assert.Error(t, err, sig)
	}
}

func TestEncodeWiringCall(t *testing.T) {
	maci := common.HexToAddress("0x1111111111111111111111111111111111111111")
	calldata, err := encodeWiringCall(&models.WiringConfig{
		Target: "PollFactory",
		Method: "setMaciInstance(address)",
		Args:   []string{"@MACI"},
	}, staticResolver(map[string]common.Address{"MACI": maci}))
	require.NoError(t, err)

	require.Len(t, calldata, 4+32)
	assert.Equal(t, crypto.Keccak256([]byte("setMaciInstance(address)"))[:4], calldata[:4])
	assert.Equal(t, maci.Bytes(), calldata[4+12:])
}

func TestCoerceArgs(t *testing.T) {
	method, err := parseWiringMethod("configure(uint8,uint256,bool,string)")
	require.NoError(t, err)

	values, err := coerceArgs(method.Inputs, []string{"7", "900000", "true", "hello"}, nil)
	require.NoError(t, err)

	assert.Equal(t, uint8(7), values[0])
	assert.Equal(t, big.NewInt(900000), values[1])
	assert.Equal(t, true, values[2])
	assert.Equal(t, "hello", values[3])
}

func TestCoerceArgs_CountMismatch(t *testing.T) {
	method, err := parseWiringMethod("setThing(address,uint256)")
	require.NoError(t, err)

	_, err = coerceArgs(method.Inputs, []string{"0x1111111111111111111111111111111111111111"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument count mismatch")
}

func TestCoerceArgs_BadAddress(t *testing.T) {
	method, err := parseWiringMethod("setThing(address)")
	require.NoError(t, err)

	_, err = coerceArgs(method.Inputs, []string{"not-an-address"}, nil)
	require.Error(t, err)
}

func testVerifyingKey(seed int64) *models.VerifyingKey {
	n := func(i int64) *big.Int { return big.NewInt(seed*1000 + i) }
	g2 := func(i int64) models.G2Point {
		return models.G2Point{
			X: [2]*big.Int{n(i), n(i + 1)},
			Y: [2]*big.Int{n(i + 2), n(i + 3)},
		}
	}
	return &models.VerifyingKey{
		Alpha1: models.G1Point{X: n(1), Y: n(2)},
		Beta2:  g2(10),
		Gamma2: g2(20),
		Delta2: g2(30),
		IC: []models.G1Point{
			{X: n(40), Y: n(41)},
			{X: n(42), Y: n(43)},
		},
	}
}

func TestEncodeVerifyingKeysBatch(t *testing.T) {
	keys := map[string]*models.VerifyingKey{
		"process-qv":    testVerifyingKey(1),
		"tally-qv":      testVerifyingKey(2),
		"process-nonqv": testVerifyingKey(3),
		"tally-nonqv":   testVerifyingKey(4),
	}
	entries := []*models.VerifyingKeyEntry{
		{
			Mode: models.ModeQV, StateTreeDepth: 10, IntStateTreeDepth: 1,
			MessageBatchDepth: 2, VoteOptionTreeDepth: 2,
			ProcessKey: "process-qv", TallyKey: "tally-qv",
		},
		{
			Mode: models.ModeNonQV, StateTreeDepth: 10, IntStateTreeDepth: 1,
			MessageBatchDepth: 2, VoteOptionTreeDepth: 2,
			ProcessKey: "process-nonqv", TallyKey: "tally-nonqv",
		},
	}

	calldata, err := encodeVerifyingKeysBatch(entries, keys)
	require.NoError(t, err)
	require.Greater(t, len(calldata), 4)

	// Batch depth 2 means a message batch size of 5^2 = 25; the size lands in
	// the third parameter array. Both modes travel in the same call.
	assert.Equal(t, calldata, mustEncodeAgain(t, entries, keys))
}

func mustEncodeAgain(t *testing.T, entries []*models.VerifyingKeyEntry, keys map[string]*models.VerifyingKey) []byte {
	t.Helper()
	out, err := encodeVerifyingKeysBatch(entries, keys)
	require.NoError(t, err)
	return out
}

func TestEncodeVerifyingKeysBatch_MissingKey(t *testing.T) {
	entries := []*models.VerifyingKeyEntry{
		{Mode: models.ModeQV, ProcessKey: "absent", TallyKey: "also-absent"},
	}

	_, err := encodeVerifyingKeysBatch(entries, map[string]*models.VerifyingKey{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent")
}
