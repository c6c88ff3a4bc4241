package usecase

import (
	"context"
	"log/slog"
	"time"

	"stock_sync/internal/feature/marketsync/domain/entity"
)

// StalenessClassifier decides which symbols need a refresh.
type StalenessClassifier struct {
	store              EntityStore
	snapshotBaseDays   int
	snapshotSpreadDays int
	logger             *slog.Logger
}

// NewStalenessClassifier creates a classifier reading refresh records from store.
func NewStalenessClassifier(store EntityStore, cfg Config, logger *slog.Logger) *StalenessClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &StalenessClassifier{
		store:              store,
		snapshotBaseDays:   cfg.SnapshotBaseDays,
		snapshotSpreadDays: cfg.SnapshotSpreadDays,
		logger:             logger,
	}
}

// IsDue reports whether symbol must be refreshed for kind at now.
// last is nil when the symbol has never been refreshed.
// Comparison is by calendar date in now's location.
func (c *StalenessClassifier) IsDue(symbol string, kind entity.DataKind, last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	days := 1
	if kind == entity.KindSnapshot {
		days = IntervalDays(symbol, c.snapshotBaseDays, c.snapshotSpreadDays)
	}
	cutoff := dateOf(now, now.Location()).AddDate(0, 0, -days)
	return dateOf(*last, now.Location()).Before(cutoff)
}

// FilterDue partitions symbols into due and notDue, preserving input order.
//
// A failed bulk read falls back to one read per symbol. A failed read for a
// symbol marks it due: refetching is preferred over silently skipping.
func (c *StalenessClassifier) FilterDue(ctx context.Context, symbols []string, kind entity.DataKind, now time.Time) (due, notDue []string) {
	records, err := c.store.LastRefreshBulk(ctx, symbols, kind)
	if err != nil {
		c.logger.Warn("bulk refresh read failed, falling back to per-symbol reads",
			"kind", kind.String(), "symbols", len(symbols), "error", err)
		records = c.readEach(ctx, symbols, kind)
	}

	for _, s := range symbols {
		var last *time.Time
		if t, ok := records[s]; ok {
			last = &t
		}
		if c.IsDue(s, kind, last, now) {
			due = append(due, s)
		} else {
			notDue = append(notDue, s)
		}
	}
	return due, notDue
}

func (c *StalenessClassifier) readEach(ctx context.Context, symbols []string, kind entity.DataKind) map[string]time.Time {
	out := make(map[string]time.Time, len(symbols))
	for _, s := range symbols {
		t, ok, err := c.store.LastRefresh(ctx, s, kind)
		if err != nil {
			c.logger.Warn("refresh record read failed, treating symbol as due",
				"kind", kind.String(), "symbol", s, "error", err)
			continue
		}
		if ok {
			out[s] = t
		}
	}
	return out
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
