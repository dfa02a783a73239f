package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/daniel0ar/maci-platform/internal/domain"
	"github.com/daniel0ar/maci-platform/internal/domain/models"
)

// ShowContractParams identifies one registry record.
type ShowContractParams struct {
	Network string
	Key     string // "Name" or "Name:label"
}

// ShowContractResult carries the record plus close matches when the lookup
// missed.
type ShowContractResult struct {
	Contract    *models.ContractRecord
	Suggestions []string
}

// ShowContract resolves a single contract record by key.
type ShowContract struct {
	store ContractStore
}

func NewShowContract(store ContractStore) *ShowContract {
	return &ShowContract{store: store}
}

// Run looks up the record. On a miss it returns ErrNotFound together with
// fuzzy-matched key suggestions from the same network.
func (uc *ShowContract) Run(ctx context.Context, params ShowContractParams) (*ShowContractResult, error) {
	record, err := uc.store.GetContract(ctx, params.Network, params.Key)
	if err == nil {
		return &ShowContractResult{Contract: record}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	suggestions, sErr := uc.suggest(ctx, params.Network, params.Key)
	if sErr != nil {
		return nil, sErr
	}
	return &ShowContractResult{Suggestions: suggestions}, fmt.Errorf("contract %q on %s: %w", params.Key, params.Network, domain.ErrNotFound)
}

func (uc *ShowContract) suggest(ctx context.Context, network, key string) ([]string, error) {
	records, err := uc.store.ListContracts(ctx, models.ContractFilter{Network: network})
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key()
	}
	sort.Strings(keys)

	matches := fuzzy.Find(key, keys)
	var suggestions []string
	for i, m := range matches {
		if i == 5 {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return suggestions, nil
}
