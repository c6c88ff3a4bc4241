package usecase

import (
	"fmt"
	"time"

	"stock_sync/internal/feature/marketsync/domain/entity"
)

// Config tunes batching, retries and pacing of a sync run.
// Field tags are read by the platform config loader under the SYNC_ prefix.
type Config struct {
	SeriesBatchSize   int `env:"SERIES_BATCH_SIZE, default=1000"`
	SnapshotBatchSize int `env:"SNAPSHOT_BATCH_SIZE, default=100"`

	MaxAttempts int           `env:"MAX_ATTEMPTS, default=3"`
	RetryDelay  time.Duration `env:"RETRY_DELAY, default=2s"`

	SeriesPacing   time.Duration `env:"SERIES_PACING, default=2s"`
	SnapshotPacing time.Duration `env:"SNAPSHOT_PACING, default=10s"`

	SnapshotBaseDays   int `env:"SNAPSHOT_BASE_DAYS, default=14"`
	SnapshotSpreadDays int `env:"SNAPSHOT_SPREAD_DAYS, default=7"`

	// SeriesLookbackDays covers one trading year (252 days) plus a 30 day margin.
	SeriesLookbackDays int `env:"SERIES_LOOKBACK_DAYS, default=282"`
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		SeriesBatchSize:    1000,
		SnapshotBatchSize:  100,
		MaxAttempts:        3,
		RetryDelay:         2 * time.Second,
		SeriesPacing:       2 * time.Second,
		SnapshotPacing:     10 * time.Second,
		SnapshotBaseDays:   14,
		SnapshotSpreadDays: 7,
		SeriesLookbackDays: 282,
	}
}

// Validate rejects settings that would make a run misbehave.
func (c Config) Validate() error {
	switch {
	case c.SeriesBatchSize <= 0 || c.SnapshotBatchSize <= 0:
		return fmt.Errorf("%w: batch sizes must be positive (series=%d snapshot=%d)", ErrInvalidConfig, c.SeriesBatchSize, c.SnapshotBatchSize)
	case c.MaxAttempts <= 0:
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	case c.RetryDelay < 0 || c.SeriesPacing < 0 || c.SnapshotPacing < 0:
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	case c.SnapshotBaseDays <= 0 || c.SnapshotSpreadDays <= 0:
		return fmt.Errorf("%w: snapshot interval base and spread must be positive", ErrInvalidConfig)
	case c.SeriesLookbackDays <= 0:
		return fmt.Errorf("%w: series lookback must be positive", ErrInvalidConfig)
	}
	return nil
}

// BatchSize returns the number of symbols per provider request for kind.
func (c Config) BatchSize(kind entity.DataKind) int {
	if kind == entity.KindSnapshot {
		return c.SnapshotBatchSize
	}
	return c.SeriesBatchSize
}

// Pacing returns the wait between two consecutive batches of kind.
func (c Config) Pacing(kind entity.DataKind) time.Duration {
	if kind == entity.KindSnapshot {
		return c.SnapshotPacing
	}
	return c.SeriesPacing
}
