// Package usecase resolves which symbols a sync run covers.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock_sync/internal/feature/symbollist/domain/entity"
)

// ErrEmptyCohort is returned when a filter matches no active symbol.
var ErrEmptyCohort = errors.New("no symbols match the cohort filter")

// ErrUnknownMarket is returned for a market code that is not a JPX segment.
var ErrUnknownMarket = errors.New("unknown market")

// ErrNothingToImport is returned when an import carries no valid symbol.
// Nothing is written, so an empty file never deactivates the universe.
var ErrNothingToImport = errors.New("no valid symbols to import")

// MarketAll selects every active symbol regardless of segment.
const MarketAll = "all"

// Markets maps CLI market codes to the segment names stored in symbols.market.
var Markets = map[string]string{
	"prime":    "プライム（内国株式）",
	"standard": "スタンダード（内国株式）",
	"growth":   "グロース（内国株式）",
}

// SymbolRepository abstracts the persistence layer for symbol (stock ticker) data.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	// ListActiveCodes returns codes ordered by sort_key. An empty markets slice means every market.
	ListActiveCodes(ctx context.Context, markets []string) ([]string, error)
	// Upsert inserts or updates symbols by code. With deactivateMissing, active symbols
	// absent from symbols are deactivated and their count is returned.
	Upsert(ctx context.Context, symbols []entity.Symbol, deactivateMissing bool) (int64, error)
}

// CohortFilter chooses the symbols of one run.
// Explicit Symbols take precedence over Markets.
type CohortFilter struct {
	Markets []string
	Symbols []string
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols returns all active symbols from the repository.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}

// ResolveCohort returns the symbol codes selected by f.
// Explicit symbols are returned as given, without consulting the repository.
func (u *SymbolUsecase) ResolveCohort(ctx context.Context, f CohortFilter) ([]string, error) {
	if explicit := splitList(f.Symbols); len(explicit) > 0 {
		return explicit, nil
	}

	segments, err := segmentsFor(splitList(f.Markets))
	if err != nil {
		return nil, err
	}
	codes, err := u.repo.ListActiveCodes(ctx, segments)
	if err != nil {
		return nil, fmt.Errorf("list active codes: %w", err)
	}
	if len(codes) == 0 {
		return nil, ErrEmptyCohort
	}
	return codes, nil
}

// ImportResult counts what ImportSymbols did.
type ImportResult struct {
	Imported    int
	Skipped     int
	Deactivated int64
}

// ImportSymbols stores the listed-company rows as active symbols.
//
// Codes are normalized with NormalizeCode. Rows without a valid code or a name,
// and repeated codes, are skipped. A zero SortKey becomes the row's position
// among the imported rows. With deactivateMissing, symbols no longer listed are
// marked inactive so that cohorts stop selecting them.
func (u *SymbolUsecase) ImportSymbols(ctx context.Context, rows []entity.Symbol, deactivateMissing bool) (ImportResult, error) {
	var res ImportResult
	seen := make(map[string]struct{}, len(rows))
	symbols := make([]entity.Symbol, 0, len(rows))
	for _, row := range rows {
		code, ok := NormalizeCode(row.Code)
		name := strings.TrimSpace(row.Name)
		if !ok || name == "" {
			res.Skipped++
			continue
		}
		if _, dup := seen[code]; dup {
			res.Skipped++
			continue
		}
		seen[code] = struct{}{}

		sortKey := row.SortKey
		if sortKey == 0 {
			sortKey = len(symbols) + 1
		}
		symbols = append(symbols, entity.Symbol{
			Code:     code,
			Name:     name,
			Market:   strings.TrimSpace(row.Market),
			IsActive: true,
			SortKey:  sortKey,
		})
	}
	if len(symbols) == 0 {
		return res, ErrNothingToImport
	}

	deactivated, err := u.repo.Upsert(ctx, symbols, deactivateMissing)
	if err != nil {
		return ImportResult{}, fmt.Errorf("upsert symbols: %w", err)
	}
	res.Imported = len(symbols)
	res.Deactivated = deactivated
	return res, nil
}

// NormalizeCode returns the plain four character security code of raw.
// Exchange suffixes (".T") and spreadsheet decimals (".0") are dropped, and
// alphanumeric codes such as "130A" are upper-cased.
func NormalizeCode(raw string) (string, bool) {
	code, _, _ := strings.Cut(strings.TrimSpace(raw), ".")
	code = strings.ToUpper(code)
	if len(code) != 4 {
		return "", false
	}
	for _, c := range code {
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') {
			return "", false
		}
	}
	return code, true
}

// segmentsFor maps market codes to segment names. nil means no market restriction.
func segmentsFor(markets []string) ([]string, error) {
	if len(markets) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(markets))
	for _, m := range markets {
		m = strings.ToLower(m)
		if m == MarketAll {
			return nil, nil
		}
		name, ok := Markets[m]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMarket, m)
		}
		out = append(out, name)
	}
	return out, nil
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, v := range in {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
