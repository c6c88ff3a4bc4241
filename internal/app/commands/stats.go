package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"stock_sync/internal/feature/marketsync/domain/entity"
)

func newStatsCmd(env Env, setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the store currently holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			stats, err := app.Stats.Stats(cmd.Context())
			if err != nil {
				return err
			}
			active, err := app.Symbols.ListActiveSymbols(cmd.Context())
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats, len(active), app.Location)
			return nil
		},
	}
}

func printStats(w io.Writer, s entity.StoreStats, activeSymbols int, loc *time.Location) {
	fmt.Fprintf(w, "active symbols:         %d\n", activeSymbols)
	fmt.Fprintf(w, "symbols with series:    %d\n", s.SymbolsWithSeries)
	fmt.Fprintf(w, "candles:                %d\n", s.Candles)
	fmt.Fprintf(w, "latest bar:             %s\n", formatTime(s.LatestBar, loc, time.DateOnly))
	fmt.Fprintf(w, "symbols with snapshot:  %d\n", s.SymbolsWithSnapshot)
	fmt.Fprintf(w, "latest snapshot update: %s\n", formatTime(s.LatestSnapshotUpdate, loc, time.DateTime))
}

func formatTime(t time.Time, loc *time.Location, layout string) string {
	if t.IsZero() {
		return "-"
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(layout)
}
