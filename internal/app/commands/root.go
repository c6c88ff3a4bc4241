// Package commands implements the marketsync command line.
package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"stock_sync/internal/app/di"
	"stock_sync/internal/platform/config"
	"stock_sync/internal/platform/logging"
)

// ErrSyncIncomplete is returned when any run failed symbols or aborted.
// The summaries have already been printed when it is returned.
var ErrSyncIncomplete = errors.New("sync incomplete")

// Env holds the collaborators of the commands. Tests replace them.
type Env struct {
	Out   io.Writer
	Load  func(ctx context.Context) (*config.Config, error)
	Build func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*di.App, error)
}

// DefaultEnv reads .env and the process environment and wires real connections.
func DefaultEnv(out io.Writer) Env {
	return Env{
		Out:   out,
		Load:  func(ctx context.Context) (*config.Config, error) { return config.Load(ctx) },
		Build: di.Build,
	}
}

// NewRootCmd represents the base command when called without any subcommands.
func NewRootCmd(env Env) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "marketsync",
		Short: "Synchronize daily price series and fundamentals snapshots",
		Long: `marketsync keeps a local store of daily price series and fundamentals
snapshots up to date. Only symbols whose data is stale are fetched, in paced
batches with retries.

Examples:
  # Refresh everything that is due for every active symbol
  marketsync sync

  # Refresh prime market series only
  marketsync sync series --markets prime

  # Force a snapshot refresh of two symbols
  marketsync sync snapshot --symbols 7203,6758 --force

  # Load the JPX listed-company list before the first market sync
  marketsync import-symbols data_j.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(env.Out)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	// setup loads configuration and installs the logger for a subcommand.
	setup := func(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
		cfg, err := env.Load(cmd.Context())
		if err != nil {
			return nil, nil, err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return nil, nil, err
		}
		return cfg, logger, nil
	}

	root.AddCommand(
		newSyncCmd(env, setup),
		newStatsCmd(env, setup),
		newIntervalCmd(setup),
		newImportSymbolsCmd(env, setup),
	)
	return root
}

type setupFunc func(cmd *cobra.Command) (*config.Config, *slog.Logger, error)
