package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_sync/internal/feature/marketsync/domain/entity"
	"stock_sync/internal/feature/marketsync/usecase"
)

// ErrEmptySeries is returned when ReplaceSeries is asked to store no bars.
var ErrEmptySeries = errors.New("series has no bars")

const (
	insertBatchSize = 500
	// lookupChunkSize bounds the IN list of bulk reads.
	lookupChunkSize = 500
)

type marketStore struct {
	db *gorm.DB
}

var _ usecase.EntityStore = (*marketStore)(nil)

// NewMarketStore returns the gorm implementation of usecase.EntityStore.
func NewMarketStore(db *gorm.DB) *marketStore {
	return &marketStore{db: db}
}

// ReplaceSeries deletes every stored daily bar of symbol, inserts candles and
// records the refresh, all in one transaction.
func (s *marketStore) ReplaceSeries(ctx context.Context, symbol string, candles []entity.Candle, refreshedAt time.Time) error {
	if len(candles) == 0 {
		return fmt.Errorf("replace series %s: %w", symbol, ErrEmptySeries)
	}
	ms := toCandleModels(symbol, candles)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&CandleModel{Symbol: symbol, Interval: entity.SeriesInterval}).
			Delete(&CandleModel{}).Error; err != nil {
			return fmt.Errorf("delete series %s: %w", symbol, err)
		}
		if err := tx.CreateInBatches(&ms, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert series %s: %w", symbol, err)
		}
		return markRefreshed(tx, symbol, entity.KindSeries, refreshedAt)
	})
}

// UpsertSnapshot overwrites the snapshot row of symbol and records the refresh.
func (s *marketStore) UpsertSnapshot(ctx context.Context, symbol string, snapshot entity.SnapshotPayload, refreshedAt time.Time) error {
	m := toSnapshotModel(symbol, snapshot, refreshedAt)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			UpdateAll: true,
		}).Create(&m).Error; err != nil {
			return fmt.Errorf("upsert snapshot %s: %w", symbol, err)
		}
		return markRefreshed(tx, symbol, entity.KindSnapshot, refreshedAt)
	})
}

// LastRefresh returns the refresh time of symbol for kind.
func (s *marketStore) LastRefresh(ctx context.Context, symbol string, kind entity.DataKind) (time.Time, bool, error) {
	var rows []RefreshRecordModel
	if err := s.db.WithContext(ctx).
		Where(&RefreshRecordModel{Symbol: symbol, Kind: kind.String()}).
		Limit(1).
		Find(&rows).Error; err != nil {
		return time.Time{}, false, err
	}
	if len(rows) == 0 {
		return time.Time{}, false, nil
	}
	return rows[0].RefreshedAt, true, nil
}

// LastRefreshBulk returns the refresh times of every symbol in symbols that has one.
func (s *marketStore) LastRefreshBulk(ctx context.Context, symbols []string, kind entity.DataKind) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(symbols))
	for _, chunk := range usecase.Chunk(symbols, lookupChunkSize) {
		var rows []RefreshRecordModel
		if err := s.db.WithContext(ctx).
			Where("kind = ? AND symbol IN ?", kind.String(), chunk).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out[r.Symbol] = r.RefreshedAt
		}
	}
	return out, nil
}

// Stats summarizes what the store holds.
func (s *marketStore) Stats(ctx context.Context) (entity.StoreStats, error) {
	var st entity.StoreStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&CandleModel{}).Count(&st.Candles).Error; err != nil {
		return st, fmt.Errorf("count candles: %w", err)
	}
	if err := db.Model(&CandleModel{}).Distinct("symbol").Count(&st.SymbolsWithSeries).Error; err != nil {
		return st, fmt.Errorf("count series symbols: %w", err)
	}
	if err := db.Model(&SnapshotModel{}).Count(&st.SymbolsWithSnapshot).Error; err != nil {
		return st, fmt.Errorf("count snapshots: %w", err)
	}

	var latest []CandleModel
	if err := db.Order(clause.OrderByColumn{Column: clause.Column{Name: "time"}, Desc: true}).
		Limit(1).Find(&latest).Error; err != nil {
		return st, fmt.Errorf("latest bar: %w", err)
	}
	if len(latest) > 0 {
		st.LatestBar = latest[0].Time
	}

	var refreshed []RefreshRecordModel
	if err := db.Where(&RefreshRecordModel{Kind: entity.KindSnapshot.String()}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "refreshed_at"}, Desc: true}).
		Limit(1).Find(&refreshed).Error; err != nil {
		return st, fmt.Errorf("latest snapshot: %w", err)
	}
	if len(refreshed) > 0 {
		st.LatestSnapshotUpdate = refreshed[0].RefreshedAt
	}
	return st, nil
}

func markRefreshed(tx *gorm.DB, symbol string, kind entity.DataKind, at time.Time) error {
	rec := RefreshRecordModel{Symbol: symbol, Kind: kind.String(), RefreshedAt: at}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"refreshed_at"}),
	}).Create(&rec).Error; err != nil {
		return fmt.Errorf("record refresh %s/%s: %w", symbol, kind, err)
	}
	return nil
}

// toCandleModels converts candles for storage. A repeated trading day keeps its last row.
func toCandleModels(symbol string, candles []entity.Candle) []CandleModel {
	pos := make(map[int64]int, len(candles))
	ms := make([]CandleModel, 0, len(candles))
	for _, c := range candles {
		m := CandleModel{
			Symbol:   symbol,
			Interval: entity.SeriesInterval,
			Time:     c.Time,
			Open:     c.Open,
			High:     c.High,
			Low:      c.Low,
			Close:    c.Close,
			Volume:   c.Volume,
		}
		key := c.Time.Unix()
		if i, dup := pos[key]; dup {
			ms[i] = m
			continue
		}
		pos[key] = len(ms)
		ms = append(ms, m)
	}
	return ms
}

func toSnapshotModel(symbol string, p entity.SnapshotPayload, at time.Time) SnapshotModel {
	return SnapshotModel{
		Symbol:                     symbol,
		Industry:                   p.Industry,
		Sector:                     p.Sector,
		FullTimeEmployees:          p.FullTimeEmployees,
		MarketCap:                  p.MarketCap,
		CurrentPrice:               p.CurrentPrice,
		DividendYield:              p.DividendYield,
		DividendRate:               p.DividendRate,
		TrailingAnnualDividendRate: p.TrailingAnnualDividendRate,
		ExDividendDate:             p.ExDividendDate,
		TrailingPE:                 p.TrailingPE,
		ForwardPE:                  p.ForwardPE,
		PriceToBook:                p.PriceToBook,
		DebtToEquity:               p.DebtToEquity,
		ReturnOnEquity:             p.ReturnOnEquity,
		ReturnOnAssets:             p.ReturnOnAssets,
		TotalRevenue:               p.TotalRevenue,
		EarningsGrowth:             p.EarningsGrowth,
		RevenueGrowth:              p.RevenueGrowth,
		ProfitMargins:              p.ProfitMargins,
		FiftyTwoWeekHigh:           p.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:            p.FiftyTwoWeekLow,
		AverageVolume:              p.AverageVolume,
		LastUpdated:                at,
	}
}
