package cli

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/daniel0ar/maci-platform/internal/cli/render"
	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var (
		stackPath   string
		skipConfirm bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a contract stack",
		Long: `Deploy every component of a stack file in dependency order, issue the
post-creation wiring calls and register the verifying keys.

Already-registered components are skipped, so rerunning the same command
resumes an interrupted deployment.`,
		Example: `  # Deploy the core stack to optimism-sepolia
  maci-deploy deploy --network optimism-sepolia

  # Preview without sending transactions
  maci-deploy deploy --network optimism-sepolia --dry-run

  # Resume and verify on-chain code for already-registered components
  maci-deploy deploy --network optimism-sepolia --verify-resume`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if app.Config.Network == nil {
				return fmt.Errorf("no network selected; pass --network")
			}

			if !app.Config.NonInteractive && !app.Config.DryRun && !skipConfirm {
				if err := confirmDeploy(stackPath, app.Config.Network.Name); err != nil {
					return err
				}
			}

			result, err := app.DeployStack.Run(cmd.Context(), usecase.DeployStackParams{
				StackPath: stackPath,
			})
			if err != nil {
				return err
			}

			renderer := render.NewDeployRenderer(cmd.OutOrStdout(), true)
			return renderer.Render(result)
		},
	}

	cmd.Flags().StringVar(&stackPath, "stack", "stack.yaml", "Stack file to deploy")
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().Bool("dry-run", false, "Print the plan without sending transactions")
	cmd.Flags().Bool("verify-resume", false, "Probe on-chain code for every skipped component")

	return cmd
}

// confirmDeploy asks for confirmation before sending transactions
func confirmDeploy(stackPath, network string) error {
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Deploy %s to %s", stackPath, network),
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return fmt.Errorf("deployment cancelled")
		}
		return err
	}
	return nil
}
