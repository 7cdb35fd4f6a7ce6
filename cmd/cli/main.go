package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/dance-matcher/cmd/cli/commands"
	"github.com/jakechorley/dance-matcher/internal/config"
	"github.com/jakechorley/dance-matcher/pkg/utils/logging"
)

func main() {
	app := &commands.AppContext{Ctx: context.Background()}

	rootCmd := &cobra.Command{
		Use:   "dance-matcher",
		Short: "Dance matcher CLI - place dancers into dances",
		Long: `Matches auditioning dancers to dances with capacity limits using
dancer-proposing deferred acceptance, then records, publishes and announces the result.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(app)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.Env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.MatchCmd(app))
	rootCmd.AddCommand(commands.ListRunsCmd(app))
	rootCmd.AddCommand(commands.NotifyDancersCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up the logger and configuration. Clients and the database are opened by
// the commands that need them.
func initApp(app *commands.AppContext) error {
	var err error

	app.Logger, err = logging.InitLogger(app.Env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", app.Env))

	app.Cfg, err = config.LoadWithEnv(app.Env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("source", app.Cfg.Source),
		zap.Int("reject_tier", app.Cfg.RejectTier))

	return nil
}
