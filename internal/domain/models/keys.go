package models

import (
	"fmt"
	"math/big"
)

// Mode selects which verifying-key pair applies to a poll: quadratic voting
// or non-quadratic voting.
type Mode string

const (
	ModeQV    Mode = "qv"
	ModeNonQV Mode = "non-qv"
)

// Valid reports whether the mode is one of the supported variants.
func (m Mode) Valid() bool {
	return m == ModeQV || m == ModeNonQV
}

// Uint8 returns the on-chain enum value for the mode.
func (m Mode) Uint8() (uint8, error) {
	switch m {
	case ModeQV:
		return 0, nil
	case ModeNonQV:
		return 1, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", m)
	}
}

// G1Point is a point on the BN254 G1 curve.
type G1Point struct {
	X *big.Int `json:"x"`
	Y *big.Int `json:"y"`
}

// G2Point is a point on the BN254 G2 curve.
type G2Point struct {
	X [2]*big.Int `json:"x"`
	Y [2]*big.Int `json:"y"`
}

// VerifyingKey is a Groth16 verifying key in the layout the VkRegistry
// contract expects. The key material arrives already validated from the
// configuration layer; this type only carries it to the encoder.
type VerifyingKey struct {
	Alpha1 G1Point   `json:"alpha1"`
	Beta2  G2Point   `json:"beta2"`
	Gamma2 G2Point   `json:"gamma2"`
	Delta2 G2Point   `json:"delta2"`
	IC     []G1Point `json:"ic"`
}

// MessageBatchSize derives the batch size submitted on-chain from the batch
// tree depth (each tree level holds five children).
func MessageBatchSize(depth uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(depth)), nil)
}
