package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"stock_sync/internal/feature/marketsync/usecase"
)

func newIntervalCmd(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "interval <symbol>...",
		Short: "Print the snapshot refresh interval of each symbol",
		Long: `Print the snapshot refresh interval of each symbol. The interval is derived
from the symbol alone, so the output is the same on every run and host.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}
			for _, symbol := range args {
				days := usecase.IntervalDays(symbol, cfg.Sync.SnapshotBaseDays, cfg.Sync.SnapshotSpreadDays)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d days\n", symbol, days)
			}
			return nil
		},
	}
}
