// Package usecase implements the market data synchronization engine: deciding
// which symbols are due, fetching them from the provider in paced batches and
// persisting what came back.
package usecase

import (
	"context"
	"time"

	"stock_sync/internal/feature/marketsync/domain/entity"
)

// EntityStore abstracts the persistence layer for synced market data.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type EntityStore interface {
	// LastRefresh returns the last successful refresh of symbol for kind.
	// ok is false when the symbol was never refreshed.
	LastRefresh(ctx context.Context, symbol string, kind entity.DataKind) (last time.Time, ok bool, err error)
	// LastRefreshBulk returns the refresh times of every symbol that has one.
	LastRefreshBulk(ctx context.Context, symbols []string, kind entity.DataKind) (map[string]time.Time, error)
	// ReplaceSeries replaces all stored bars of symbol and records the refresh.
	ReplaceSeries(ctx context.Context, symbol string, candles []entity.Candle, refreshedAt time.Time) error
	// UpsertSnapshot stores the snapshot of symbol and records the refresh.
	UpsertSnapshot(ctx context.Context, symbol string, snapshot entity.SnapshotPayload, refreshedAt time.Time) error
}

// MarketProvider abstracts the remote data source.
// Symbols absent from the returned map were not answered by the provider.
type MarketProvider interface {
	FetchSeries(ctx context.Context, symbols []string, start, end time.Time) (map[string]entity.SeriesPayload, error)
	FetchSnapshot(ctx context.Context, symbols []string) (map[string]entity.SnapshotPayload, error)
}

// SummaryPublisher receives the summary of every finished run.
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, summary entity.SyncSummary) error
}
