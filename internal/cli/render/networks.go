package render

import (
	"fmt"
	"io"

	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out   io.Writer
	color bool
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer, color bool) *NetworksRenderer {
	return &NetworksRenderer{
		out:   out,
		color: color,
	}
}

// Render renders the list of configured networks
func (r *NetworksRenderer) Render(networks []*usecase.NetworkInfo) error {
	if len(networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in maci.toml [rpc_endpoints]")
		return nil
	}

	fmt.Fprintln(r.out, "Available networks:")
	fmt.Fprintln(r.out)

	for _, network := range networks {
		if network.Error != "" {
			fmt.Fprintf(r.out, "  ✗ %s - %s\n", network.Name, network.Error)
		} else {
			fmt.Fprintf(r.out, "  ✓ %s - Chain ID: %d\n", network.Name, network.ChainID)
		}
	}

	return nil
}

var _ Renderer[[]*usecase.NetworkInfo] = (*NetworksRenderer)(nil)
