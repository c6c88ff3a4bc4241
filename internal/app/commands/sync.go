package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stock_sync/internal/feature/marketsync/domain/entity"
	"stock_sync/internal/feature/marketsync/usecase"
	symbolusecase "stock_sync/internal/feature/symbollist/usecase"
)

type syncRunner interface {
	Sync(ctx context.Context, symbols []string, kind entity.DataKind, opts ...usecase.SyncOption) (map[string]bool, entity.SyncSummary, error)
}

type cohortResolver interface {
	ResolveCohort(ctx context.Context, f symbolusecase.CohortFilter) ([]string, error)
}

func newSyncCmd(env Env, setup setupFunc) *cobra.Command {
	var (
		markets []string
		symbols []string
		force   bool
	)

	cmd := &cobra.Command{
		Use:       "sync [series|snapshot|all]",
		Short:     "Refresh stale series and snapshots",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"series", "snapshot", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "all"
			if len(args) == 1 {
				target = args[0]
			}
			kinds, err := parseKinds(target)
			if err != nil {
				return err
			}

			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			app, err := env.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Warn("failed to close connections", "error", err)
				}
			}()

			filter := symbolusecase.CohortFilter{Markets: markets, Symbols: symbols}
			return runSync(cmd.Context(), cmd.OutOrStdout(), app.Sync, app.Symbols, filter, kinds, force)
		},
	}
	cmd.Flags().StringSliceVar(&markets, "markets", nil, "market segments to sync (prime, standard, growth, all)")
	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "explicit symbol codes; overrides --markets")
	cmd.Flags().BoolVar(&force, "force", false, "refresh every symbol regardless of staleness")
	return cmd
}

// parseKinds maps the sync target to the kinds run, in order.
func parseKinds(target string) ([]entity.DataKind, error) {
	if strings.EqualFold(target, "all") {
		return []entity.DataKind{entity.KindSeries, entity.KindSnapshot}, nil
	}
	kind, err := entity.ParseDataKind(target)
	if err != nil {
		return nil, err
	}
	return []entity.DataKind{kind}, nil
}

// runSync resolves the cohort once and runs every kind against it.
// Every summary is printed even when an earlier kind was incomplete.
func runSync(ctx context.Context, out io.Writer, runner syncRunner, cohort cohortResolver, filter symbolusecase.CohortFilter, kinds []entity.DataKind, force bool) error {
	symbols, err := cohort.ResolveCohort(ctx, filter)
	if err != nil {
		return fmt.Errorf("resolve cohort: %w", err)
	}

	var opts []usecase.SyncOption
	if force {
		opts = append(opts, usecase.WithForce())
	}

	incomplete := false
	for _, kind := range kinds {
		_, summary, err := runner.Sync(ctx, symbols, kind, opts...)
		if err != nil {
			return fmt.Errorf("sync %s: %w", kind, err)
		}
		printSummary(out, summary)
		if !summary.OK() {
			incomplete = true
		}
	}
	if incomplete {
		return ErrSyncIncomplete
	}
	return nil
}

func printSummary(w io.Writer, s entity.SyncSummary) {
	status := "ok"
	switch {
	case s.Aborted:
		status = "aborted"
	case s.Failed > 0:
		status = "partial"
	}
	fmt.Fprintf(w, "%-8s %-7s checked=%d due=%d skipped=%d refreshed=%d failed=%d batches=%d elapsed=%s\n",
		s.Kind, status, s.Checked, s.Due, s.Skipped, s.Refreshed, s.Failed, s.Batches,
		s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	if len(s.FailedSymbols) > 0 {
		fmt.Fprintf(w, "         failed: %s\n", strings.Join(s.FailedSymbols, ","))
	}
}
