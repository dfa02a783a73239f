package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daniel0ar/maci-platform/internal/adapters/progress"
	"github.com/daniel0ar/maci-platform/internal/app"
	"github.com/daniel0ar/maci-platform/internal/config"
	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "maci-deploy",
		Short: "Deployment orchestrator for the MACI contract stack",
		Long: `maci-deploy deploys and wires the MACI smart contract stack: Poseidon
libraries, factories, the verifying key registry and the MACI core contract,
tracked in a per-network registry so interrupted runs can be resumed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)

			sink := sinkFor(cmd, v.GetBool("non_interactive"))

			appInstance, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (from maci.toml [rpc_endpoints])")

	rootCmd.AddCommand(NewDeployCmd())
	rootCmd.AddCommand(NewListCmd())
	rootCmd.AddCommand(NewShowCmd())
	rootCmd.AddCommand(NewNetworksCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// sinkFor selects the progress sink for a command
func sinkFor(cmd *cobra.Command, nonInteractive bool) usecase.ProgressSink {
	if cmd.Name() == "deploy" && !nonInteractive {
		return progress.NewDeployProgress(cmd.OutOrStdout())
	}
	return progress.NewNopSink()
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	a, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}
	return a, nil
}
