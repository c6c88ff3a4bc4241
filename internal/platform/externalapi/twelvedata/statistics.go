package twelvedata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"stock_sync/internal/feature/marketsync/domain/entity"
	"stock_sync/internal/platform/externalapi/twelvedata/dto"
)

// FetchSnapshot は銘柄ごとに statistics (および設定により profile) を取得してスナップショットを組み立てます。
// 1銘柄の失敗は他の銘柄に影響せず、すべての銘柄が失敗した場合のみエラーを返します。
func (t *TwelveDataMarket) FetchSnapshot(ctx context.Context, symbols []string) (map[string]entity.SnapshotPayload, error) {
	out := make(map[string]entity.SnapshotPayload, len(symbols))
	fetched := make(map[string]entity.SnapshotPayload, len(symbols))
	var errs []error
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// 同じ銘柄に変換される入力は1回だけ取得する
		if snap, ok := fetched[t.formatSymbol(symbol)]; ok {
			out[symbol] = snap
			continue
		}
		snap, err := t.snapshot(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("statistics request failed", "symbol", symbol, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
			continue
		}
		fetched[t.formatSymbol(symbol)] = snap
		out[symbol] = snap
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (t *TwelveDataMarket) snapshot(ctx context.Context, symbol string) (entity.SnapshotPayload, error) {
	q := url.Values{}
	q.Set("symbol", t.formatSymbol(symbol))

	var stats dto.StatisticsResponse
	if err := t.get(ctx, "statistics", q, &stats); err != nil {
		return entity.SnapshotPayload{}, err
	}
	if stats.Status == "error" {
		return entity.SnapshotPayload{}, fmt.Errorf("twelvedata: %s", stats.Message)
	}
	snap := fromStatistics(stats)

	if t.cfg.IncludeProfile {
		pq := url.Values{}
		pq.Set("symbol", t.formatSymbol(symbol))
		var profile dto.ProfileResponse
		err := t.get(ctx, "profile", pq, &profile)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return entity.SnapshotPayload{}, ctx.Err()
			}
			slog.Debug("profile request failed", "symbol", symbol, "error", err)
		case profile.Status == "error":
			slog.Debug("profile rejected", "symbol", symbol, "message", profile.Message)
		default:
			applyProfile(&snap, profile)
		}
	}
	return snap, nil
}

func fromStatistics(r dto.StatisticsResponse) entity.SnapshotPayload {
	s := r.Statistics
	snap := entity.SnapshotPayload{
		MarketCap: toInt64(s.ValuationsMetrics.MarketCapitalization),

		DividendYield:              s.DividendsAndSplits.ForwardAnnualDividendYield,
		DividendRate:               s.DividendsAndSplits.ForwardAnnualDividendRate,
		TrailingAnnualDividendRate: s.DividendsAndSplits.TrailingAnnualDividendRate,
		ExDividendDate:             parseDate(s.DividendsAndSplits.ExDividendDate),

		TrailingPE:     s.ValuationsMetrics.TrailingPE,
		ForwardPE:      s.ValuationsMetrics.ForwardPE,
		PriceToBook:    s.ValuationsMetrics.PriceToBookMRQ,
		DebtToEquity:   s.Financials.BalanceSheet.TotalDebtToEquityMRQ,
		ReturnOnEquity: s.Financials.ReturnOnEquityTTM,
		ReturnOnAssets: s.Financials.ReturnOnAssetsTTM,

		TotalRevenue:   toInt64(s.Financials.IncomeStatement.RevenueTTM),
		EarningsGrowth: s.Financials.IncomeStatement.QuarterlyEarningsGrowthYOY,
		RevenueGrowth:  s.Financials.IncomeStatement.QuarterlyRevenueGrowth,
		ProfitMargins:  s.Financials.ProfitMargin,

		FiftyTwoWeekHigh: s.StockPriceSummary.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  s.StockPriceSummary.FiftyTwoWeekLow,
	}
	// 90日平均を優先し、なければ10日平均
	snap.AverageVolume = toInt64(s.StockStatistics.Avg90Volume)
	if snap.AverageVolume == nil {
		snap.AverageVolume = toInt64(s.StockStatistics.Avg10Volume)
	}
	return snap
}

func applyProfile(snap *entity.SnapshotPayload, p dto.ProfileResponse) {
	if v := strings.TrimSpace(p.Sector); v != "" {
		snap.Sector = &v
	}
	if v := strings.TrimSpace(p.Industry); v != "" {
		snap.Industry = &v
	}
	if p.Employees != nil && *p.Employees > 0 {
		n := *p.Employees
		snap.FullTimeEmployees = &n
	}
}

func toInt64(f *float64) *int64 {
	if f == nil {
		return nil
	}
	n := int64(*f)
	return &n
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	return &d
}
