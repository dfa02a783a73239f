package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/daniel0ar/maci-platform/internal/domain/models"
)

// bigInt accepts both JSON numbers and decimal strings, the two encodings
// key-material files use for field elements.
type bigInt big.Int

func (b *bigInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid field element %q", s)
	}
	*b = bigInt(*v)
	return nil
}

func (b *bigInt) Int() *big.Int {
	return (*big.Int)(b)
}

type rawG1 struct {
	X *bigInt `json:"x"`
	Y *bigInt `json:"y"`
}

type rawG2 struct {
	X [2]*bigInt `json:"x"`
	Y [2]*bigInt `json:"y"`
}

type rawVerifyingKey struct {
	Alpha1 rawG1   `json:"alpha1"`
	Beta2  rawG2   `json:"beta2"`
	Gamma2 rawG2   `json:"gamma2"`
	Delta2 rawG2   `json:"delta2"`
	IC     []rawG1 `json:"ic"`
}

// GetVerifyingKeys loads the structured key material for the batched
// VkRegistry step. Validation of the key material itself happens upstream;
// this only decodes the already-exported file.
func (l *Loader) GetVerifyingKeys(ctx context.Context, file string) (map[string]*models.VerifyingKey, error) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.rootDir, file)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read verifying keys %s: %w", file, err)
	}

	var raw map[string]*rawVerifyingKey
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse verifying keys %s: %w", file, err)
	}

	keys := make(map[string]*models.VerifyingKey, len(raw))
	for name, rk := range raw {
		vk, err := rk.toModel()
		if err != nil {
			return nil, fmt.Errorf("verifying key %q: %w", name, err)
		}
		keys[name] = vk
	}
	return keys, nil
}

func (rk *rawVerifyingKey) toModel() (*models.VerifyingKey, error) {
	g1 := func(p rawG1) (models.G1Point, error) {
		if p.X == nil || p.Y == nil {
			return models.G1Point{}, fmt.Errorf("incomplete G1 point")
		}
		return models.G1Point{X: p.X.Int(), Y: p.Y.Int()}, nil
	}
	g2 := func(p rawG2) (models.G2Point, error) {
		if p.X[0] == nil || p.X[1] == nil || p.Y[0] == nil || p.Y[1] == nil {
			return models.G2Point{}, fmt.Errorf("incomplete G2 point")
		}
		return models.G2Point{
			X: [2]*big.Int{p.X[0].Int(), p.X[1].Int()},
			Y: [2]*big.Int{p.Y[0].Int(), p.Y[1].Int()},
		}, nil
	}

	alpha, err := g1(rk.Alpha1)
	if err != nil {
		return nil, err
	}
	beta, err := g2(rk.Beta2)
	if err != nil {
		return nil, err
	}
	gamma, err := g2(rk.Gamma2)
	if err != nil {
		return nil, err
	}
	delta, err := g2(rk.Delta2)
	if err != nil {
		return nil, err
	}

	if len(rk.IC) == 0 {
		return nil, fmt.Errorf("empty IC")
	}
	ic := make([]models.G1Point, len(rk.IC))
	for i, p := range rk.IC {
		point, err := g1(p)
		if err != nil {
			return nil, fmt.Errorf("ic[%d]: %w", i, err)
		}
		ic[i] = point
	}

	return &models.VerifyingKey{
		Alpha1: alpha,
		Beta2:  beta,
		Gamma2: gamma,
		Delta2: delta,
		IC:     ic,
	}, nil
}
