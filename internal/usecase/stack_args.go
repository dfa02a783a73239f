package usecase

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/daniel0ar/maci-platform/internal/domain/models"
)

// addressResolver maps a "@Name" or "@Name:label" reference to a registered
// address. The orchestrator backs it with the registry.
type addressResolver func(ref string) (common.Address, error)

// coerceArgs converts the stack file's string arguments into the Go values
// the ABI packer expects for the given inputs.
func coerceArgs(inputs abi.Arguments, args []string, resolve addressResolver) ([]interface{}, error) {
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("argument count mismatch: have %d, constructor wants %d", len(args), len(inputs))
	}

	values := make([]interface{}, len(args))
	for i, arg := range args {
		value, err := coerceArg(inputs[i].Type, arg, resolve)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, inputs[i].Name, err)
		}
		values[i] = value
	}
	return values, nil
}

func coerceArg(t abi.Type, arg string, resolve addressResolver) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		if ref, ok := models.ArgRef(arg); ok {
			return resolve(ref)
		}
		if !common.IsHexAddress(arg) {
			return common.Address{}, fmt.Errorf("%q is not a hex address", arg)
		}
		return common.HexToAddress(arg), nil

	case abi.UintTy, abi.IntTy:
		n, ok := new(big.Int).SetString(arg, 0)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", arg)
		}
		return sizedInt(t, n)

	case abi.BoolTy:
		b, err := strconv.ParseBool(arg)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", arg)
		}
		return b, nil

	case abi.StringTy:
		return arg, nil

	case abi.FixedBytesTy:
		if t.Size != 32 {
			return nil, fmt.Errorf("unsupported fixed bytes size %d", t.Size)
		}
		raw := common.FromHex(arg)
		if len(raw) != 32 {
			return nil, fmt.Errorf("%q is not 32 bytes", arg)
		}
		var out [32]byte
		copy(out[:], raw)
		return out, nil

	case abi.BytesTy:
		return common.FromHex(arg), nil

	default:
		return nil, fmt.Errorf("unsupported argument type %s", t.String())
	}
}

// sizedInt narrows a big.Int to the Go type the packer's reflection expects
// for the declared bit width.
func sizedInt(t abi.Type, n *big.Int) (interface{}, error) {
	if t.T == abi.UintTy {
		switch t.Size {
		case 8:
			return uint8(n.Uint64()), nil
		case 16:
			return uint16(n.Uint64()), nil
		case 32:
			return uint32(n.Uint64()), nil
		case 64:
			return n.Uint64(), nil
		default:
			return n, nil
		}
	}
	switch t.Size {
	case 8:
		return int8(n.Int64()), nil
	case 16:
		return int16(n.Int64()), nil
	case 32:
		return int32(n.Int64()), nil
	case 64:
		return n.Int64(), nil
	default:
		return n, nil
	}
}

// parseWiringMethod turns a "setMaciInstance(address)" style signature into
// an ABI method with a computed selector.
func parseWiringMethod(signature string) (abi.Method, error) {
	open := strings.Index(signature, "(")
	end := strings.LastIndex(signature, ")")
	if open <= 0 || end != len(signature)-1 {
		return abi.Method{}, fmt.Errorf("malformed method signature %q", signature)
	}

	name := signature[:open]
	var inputs abi.Arguments
	params := signature[open+1 : end]
	if params != "" {
		for i, part := range strings.Split(params, ",") {
			typ, err := abi.NewType(strings.TrimSpace(part), "", nil)
			if err != nil {
				return abi.Method{}, fmt.Errorf("parameter %d of %q: %w", i, signature, err)
			}
			inputs = append(inputs, abi.Argument{Name: fmt.Sprintf("arg%d", i), Type: typ})
		}
	}

	return abi.NewMethod(name, name, abi.Function, "", false, false, inputs, nil), nil
}

// encodeWiringCall builds the calldata for one wiring step.
func encodeWiringCall(w *models.WiringConfig, resolve addressResolver) ([]byte, error) {
	method, err := parseWiringMethod(w.Method)
	if err != nil {
		return nil, err
	}

	values, err := coerceArgs(method.Inputs, w.Args, resolve)
	if err != nil {
		return nil, fmt.Errorf("wiring %s: %w", w.Key(), err)
	}

	packed, err := method.Inputs.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("wiring %s: %w", w.Key(), err)
	}
	return append(method.ID, packed...), nil
}

// ABI-side mirror of the Groth16 verifying key. Field names line up with the
// tuple components so the packer's reflection finds them.
type abiG1Point struct {
	X *big.Int
	Y *big.Int
}

type abiG2Point struct {
	X [2]*big.Int
	Y [2]*big.Int
}

type abiVerifyingKey struct {
	Alpha1 abiG1Point
	Beta2  abiG2Point
	Gamma2 abiG2Point
	Delta2 abiG2Point
	Ic     []abiG1Point
}

func toABIKey(vk *models.VerifyingKey) abiVerifyingKey {
	out := abiVerifyingKey{
		Alpha1: abiG1Point{X: vk.Alpha1.X, Y: vk.Alpha1.Y},
		Beta2:  abiG2Point{X: vk.Beta2.X, Y: vk.Beta2.Y},
		Gamma2: abiG2Point{X: vk.Gamma2.X, Y: vk.Gamma2.Y},
		Delta2: abiG2Point{X: vk.Delta2.X, Y: vk.Delta2.Y},
	}
	for _, p := range vk.IC {
		out.Ic = append(out.Ic, abiG1Point{X: p.X, Y: p.Y})
	}
	return out
}

// VerifyingKeysBatchMethod is the registry contract entry point all key
// entries are submitted through in a single transaction.
const VerifyingKeysBatchMethod = "setVerifyingKeysBatch"

var (
	g1Components = []abi.ArgumentMarshaling{
		{Name: "x", Type: "uint256"},
		{Name: "y", Type: "uint256"},
	}
	g2Components = []abi.ArgumentMarshaling{
		{Name: "x", Type: "uint256[2]"},
		{Name: "y", Type: "uint256[2]"},
	}
	vkComponents = []abi.ArgumentMarshaling{
		{Name: "alpha1", Type: "tuple", Components: g1Components},
		{Name: "beta2", Type: "tuple", Components: g2Components},
		{Name: "gamma2", Type: "tuple", Components: g2Components},
		{Name: "delta2", Type: "tuple", Components: g2Components},
		{Name: "ic", Type: "tuple[]", Components: g1Components},
	}
)

// encodeVerifyingKeysBatch assembles the positionally aligned parameter
// arrays from the key entries and packs a single batched call.
func encodeVerifyingKeysBatch(entries []*models.VerifyingKeyEntry, keys map[string]*models.VerifyingKey) ([]byte, error) {
	uintSlice, err := abi.NewType("uint256[]", "", nil)
	if err != nil {
		return nil, err
	}
	uint8Slice, err := abi.NewType("uint8[]", "", nil)
	if err != nil {
		return nil, err
	}
	vkSlice, err := abi.NewType("tuple[]", "", vkComponents)
	if err != nil {
		return nil, err
	}

	inputs := abi.Arguments{
		{Name: "stateTreeDepths", Type: uintSlice},
		{Name: "intStateTreeDepths", Type: uintSlice},
		{Name: "messageBatchSizes", Type: uintSlice},
		{Name: "voteOptionTreeDepths", Type: uintSlice},
		{Name: "modes", Type: uint8Slice},
		{Name: "processVks", Type: vkSlice},
		{Name: "tallyVks", Type: vkSlice},
	}
	method := abi.NewMethod(VerifyingKeysBatchMethod, VerifyingKeysBatchMethod, abi.Function, "", false, false, inputs, nil)

	var (
		stateTreeDepths      []*big.Int
		intStateTreeDepths   []*big.Int
		messageBatchSizes    []*big.Int
		voteOptionTreeDepths []*big.Int
		modes                []uint8
		processVks           []abiVerifyingKey
		tallyVks             []abiVerifyingKey
	)

	for _, entry := range entries {
		processKey, ok := keys[entry.ProcessKey]
		if !ok {
			return nil, fmt.Errorf("verifying key %q not found in key file", entry.ProcessKey)
		}
		tallyKey, ok := keys[entry.TallyKey]
		if !ok {
			return nil, fmt.Errorf("verifying key %q not found in key file", entry.TallyKey)
		}

		mode, err := entry.Mode.Uint8()
		if err != nil {
			return nil, err
		}

		stateTreeDepths = append(stateTreeDepths, new(big.Int).SetUint64(uint64(entry.StateTreeDepth)))
		intStateTreeDepths = append(intStateTreeDepths, new(big.Int).SetUint64(uint64(entry.IntStateTreeDepth)))
		messageBatchSizes = append(messageBatchSizes, models.MessageBatchSize(entry.MessageBatchDepth))
		voteOptionTreeDepths = append(voteOptionTreeDepths, new(big.Int).SetUint64(uint64(entry.VoteOptionTreeDepth)))
		modes = append(modes, mode)
		processVks = append(processVks, toABIKey(processKey))
		tallyVks = append(tallyVks, toABIKey(tallyKey))
	}

	packed, err := method.Inputs.Pack(
		stateTreeDepths, intStateTreeDepths, messageBatchSizes,
		voteOptionTreeDepths, modes, processVks, tallyVks,
	)
	if err != nil {
		return nil, fmt.Errorf("packing verifying key batch: %w", err)
	}
	return append(method.ID, packed...), nil
}
