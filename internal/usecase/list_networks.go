package usecase

import (
	"context"
	"sort"
)

// NetworkInfo is one resolved network entry.
type NetworkInfo struct {
	Name    string
	ChainID uint64
	RpcUrl  string
	Error   string
}

// ListNetworks resolves every configured network.
type ListNetworks struct {
	resolver NetworkLister
}

func NewListNetworks(resolver NetworkLister) *ListNetworks {
	return &ListNetworks{resolver: resolver}
}

// Run resolves each configured endpoint. Resolution failures are reported
// per network instead of failing the whole listing.
func (uc *ListNetworks) Run(ctx context.Context) ([]*NetworkInfo, error) {
	names := uc.resolver.Names()
	sort.Strings(names)

	infos := make([]*NetworkInfo, 0, len(names))
	for _, name := range names {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		info := &NetworkInfo{Name: name}
		network, err := uc.resolver.Resolve(name)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.ChainID = network.ChainID
			info.RpcUrl = network.RpcUrl
		}
		infos = append(infos, info)
	}
	return infos, nil
}
