package cli

import (
	"github.com/spf13/cobra"

	"github.com/daniel0ar/maci-platform/internal/cli/render"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List available networks from maci.toml",
		Long: `List all networks configured in the [rpc_endpoints] section of maci.toml.

This command shows all available networks and attempts to fetch their chain IDs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			networks, err := app.ListNetworks.Run(cmd.Context())
			if err != nil {
				return err
			}

			renderer := render.NewNetworksRenderer(cmd.OutOrStdout(), true)
			return renderer.Render(networks)
		},
	}

	return cmd
}
