package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daniel0ar/maci-platform/internal/cli/render"
	"github.com/daniel0ar/maci-platform/internal/domain"
	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <contract>",
		Short: "Show a registered contract",
		Long: `Show the registry record for one contract on the selected network.

The argument is the contract name, optionally with a label
("EASGatekeeper:resident").`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if app.Config.Network == nil {
				return fmt.Errorf("no network selected; pass --network")
			}

			result, err := app.ShowContract.Run(cmd.Context(), usecase.ShowContractParams{
				Network: app.Config.Network.Name,
				Key:     args[0],
			})

			renderer := render.NewContractRenderer(cmd.OutOrStdout(), true, app.Config.Network.Explorer)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) && result != nil {
					// Print suggestions alongside the error
					_ = renderer.Render(result)
				}
				return err
			}

			return renderer.Render(result)
		},
	}

	return cmd
}
