package cli

import (
	"github.com/spf13/cobra"

	"github.com/daniel0ar/maci-platform/internal/cli/render"
	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var (
		contractName string
		chainID      uint64
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered contracts",
		Long: `List contracts from the registry, grouped by network.

The list can be filtered by network, contract name or chain ID.`,
		Example: `  # List everything
  maci-deploy list

  # List MACI deployments on one network
  maci-deploy list --network optimism-sepolia --contract MACI`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			network := ""
			if app.Config.Network != nil {
				network = app.Config.Network.Name
			}

			result, err := app.ListContracts.Run(cmd.Context(), usecase.ListContractsParams{
				Network: network,
				Name:    contractName,
				ChainID: chainID,
			})
			if err != nil {
				return err
			}

			renderer := render.NewContractsRenderer(cmd.OutOrStdout(), true)
			return renderer.Render(result)
		},
	}

	cmd.Flags().StringVar(&contractName, "contract", "", "Filter by contract name")
	cmd.Flags().Uint64Var(&chainID, "chain", 0, "Filter by chain ID")

	return cmd
}
