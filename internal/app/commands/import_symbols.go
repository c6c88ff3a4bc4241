package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	symboladapters "stock_sync/internal/feature/symbollist/adapters"
	"stock_sync/internal/feature/symbollist/domain/entity"
	symbolusecase "stock_sync/internal/feature/symbollist/usecase"
)

type symbolImporter interface {
	ImportSymbols(ctx context.Context, rows []entity.Symbol, deactivateMissing bool) (symbolusecase.ImportResult, error)
}

func newImportSymbolsCmd(env Env, setup setupFunc) *cobra.Command {
	var keepMissing bool

	cmd := &cobra.Command{
		Use:   "import-symbols <file>",
		Short: "Load the JPX listed-company list into the symbols table",
		Long: `Load the JPX listed-company list (data_j.xls saved as CSV, UTF-8 or Shift_JIS)
into the symbols table. The market column feeds "sync --markets". Symbols that
are no longer listed are deactivated unless --keep-missing is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			rows, err := symboladapters.ParseJPXList(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
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

			return runImportSymbols(cmd.Context(), cmd.OutOrStdout(), app.Symbols, rows, !keepMissing)
		},
	}
	cmd.Flags().BoolVar(&keepMissing, "keep-missing", false, "leave symbols absent from the file active")
	return cmd
}

func runImportSymbols(ctx context.Context, out io.Writer, importer symbolImporter, rows []entity.Symbol, deactivateMissing bool) error {
	res, err := importer.ImportSymbols(ctx, rows, deactivateMissing)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported=%d skipped=%d deactivated=%d\n", res.Imported, res.Skipped, res.Deactivated)
	return nil
}
