package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stock_sync/internal/feature/marketsync/domain/entity"
	"stock_sync/internal/shared/ratelimiter"
)

// SyncUsecase runs one synchronization pass over a list of symbols: classify,
// batch, fetch with retries, persist, aggregate. It keeps no state between runs.
type SyncUsecase struct {
	sleeper    ratelimiter.Sleeper
	cfg        Config
	classifier *StalenessClassifier
	fetcher    *RetryingFetcher
	publisher  SummaryPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a SyncUsecase.
type Option func(*SyncUsecase)

// WithLogger sets the logger used for run, batch and symbol events.
func WithLogger(l *slog.Logger) Option {
	return func(u *SyncUsecase) {
		if l != nil {
			u.logger = l
		}
	}
}

// WithClock replaces time.Now as the source of the run's reference time.
func WithClock(now func() time.Time) Option {
	return func(u *SyncUsecase) { u.now = now }
}

// WithPublisher sends every finished summary to p.
func WithPublisher(p SummaryPublisher) Option {
	return func(u *SyncUsecase) { u.publisher = p }
}

// NewSyncUsecase wires a SyncUsecase. It fails only when cfg is invalid.
func NewSyncUsecase(store EntityStore, provider MarketProvider, sleeper ratelimiter.Sleeper, cfg Config, opts ...Option) (*SyncUsecase, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u := &SyncUsecase{
		sleeper: sleeper,
		cfg:     cfg,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.classifier = NewStalenessClassifier(store, cfg, u.logger)
	u.fetcher = NewRetryingFetcher(provider, store, sleeper, cfg, u.logger)
	return u, nil
}

type syncOptions struct {
	force bool
}

// SyncOption adjusts a single Sync call.
type SyncOption func(*syncOptions)

// WithForce treats every symbol as due regardless of its refresh record.
func WithForce() SyncOption {
	return func(o *syncOptions) { o.force = true }
}

// Sync refreshes the due symbols of kind and reports the outcome per symbol.
//
// The returned map holds every distinct input symbol. Symbols that were not due
// map to true. Provider and persistence failures never produce an error; the
// error is reserved for invalid input.
func (u *SyncUsecase) Sync(ctx context.Context, symbols []string, kind entity.DataKind, opts ...SyncOption) (map[string]bool, entity.SyncSummary, error) {
	if !kind.Valid() {
		return nil, entity.SyncSummary{}, fmt.Errorf("%w: %d", entity.ErrInvalidDataKind, int(kind))
	}
	symbols = distinct(symbols)
	if len(symbols) == 0 {
		return nil, entity.SyncSummary{}, ErrNoSymbols
	}
	var o syncOptions
	for _, opt := range opts {
		opt(&o)
	}

	started := u.now()
	log := u.logger.With("kind", kind.String())

	var due, fresh []string
	if o.force {
		due = symbols
	} else {
		due, fresh = u.classifier.FilterDue(ctx, symbols, kind, started)
	}
	log.Info("sync started", "symbols", len(symbols), "due", len(due), "fresh", len(fresh), "force", o.force)

	attempted := make(map[string]bool, len(due))
	batches := Chunk(due, u.cfg.BatchSize(kind))
	sent := 0
	aborted := false

	for i, batch := range batches {
		if aborted {
			for _, s := range batch {
				attempted[s] = false
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Error("sync cancelled before batch", "batch", i+1, "error", err)
			aborted = true
			for _, s := range batch {
				attempted[s] = false
			}
			continue
		}

		res := u.fetcher.FetchBatch(ctx, kind, batch, started)
		sent++
		for s, ok := range res.Results {
			attempted[s] = ok
		}
		for s, reason := range res.Failures {
			log.Warn("symbol not refreshed", "batch", i+1, "symbol", s, "reason", string(reason))
		}
		log.Info("batch finished",
			"batch", i+1,
			"batches", len(batches),
			"size", len(batch),
			"refreshed", len(batch)-len(res.Failures),
			"failed", len(res.Failures),
			"attempts", len(res.Attempts),
		)

		if res.Aborted {
			log.Error("provider unavailable, aborting remaining batches",
				"batch", i+1, "remaining", len(batches)-i-1, "attempts", len(res.Attempts))
			aborted = true
			continue
		}
		if i < len(batches)-1 {
			if err := u.sleeper.Sleep(ctx, u.cfg.Pacing(kind)); err != nil {
				log.Error("sync cancelled while pacing", "batch", i+1, "error", err)
				aborted = true
			}
		}
	}

	results, summary := Merge(attempted, fresh)
	summary.Kind = kind
	summary.Batches = sent
	summary.Aborted = aborted
	summary.StartedAt = started
	summary.FinishedAt = u.now()

	u.report(ctx, log, summary)
	return results, summary, nil
}

func (u *SyncUsecase) report(ctx context.Context, log *slog.Logger, summary entity.SyncSummary) {
	attrs := []any{
		"checked", summary.Checked,
		"due", summary.Due,
		"skipped", summary.Skipped,
		"refreshed", summary.Refreshed,
		"failed", summary.Failed,
		"batches", summary.Batches,
		"aborted", summary.Aborted,
		"elapsed", summary.FinishedAt.Sub(summary.StartedAt),
	}
	if summary.OK() {
		log.Info("sync finished", attrs...)
	} else {
		log.Warn("sync finished with failures", attrs...)
	}

	if u.publisher == nil {
		return
	}
	// Summaries of cancelled runs are published too.
	if err := u.publisher.PublishSummary(context.WithoutCancel(ctx), summary); err != nil {
		log.Warn("failed to publish sync summary", "error", err)
	}
}

// distinct drops blank and repeated symbols, keeping the first occurrence.
func distinct(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
