package usecase

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/daniel0ar/maci-platform/internal/domain/models"
)

// ListContractsParams contains filter parameters.
type ListContractsParams struct {
	Network string
	Name    string
	ChainID uint64
}

// ListContractsResult groups records by network for rendering.
type ListContractsResult struct {
	Contracts []*models.ContractRecord
	Networks  []string
}

// ListContracts returns registry records matching a filter.
type ListContracts struct {
	store ContractStore
}

func NewListContracts(store ContractStore) *ListContracts {
	return &ListContracts{store: store}
}

// Run executes the query.
func (uc *ListContracts) Run(ctx context.Context, params ListContractsParams) (*ListContractsResult, error) {
	records, err := uc.store.ListContracts(ctx, models.ContractFilter{
		Network: params.Network,
		Name:    models.ContractName(params.Name),
		ChainID: params.ChainID,
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Network != records[j].Network {
			return records[i].Network < records[j].Network
		}
		return records[i].Key() < records[j].Key()
	})

	networks := lo.Uniq(lo.Map(records, func(r *models.ContractRecord, _ int) string {
		return r.Network
	}))

	return &ListContractsResult{Contracts: records, Networks: networks}, nil
}
