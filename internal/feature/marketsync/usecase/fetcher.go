package usecase

import (
	"context"
	"log/slog"
	"time"

	"stock_sync/internal/feature/marketsync/domain/entity"
	"stock_sync/internal/shared/ratelimiter"
)

// BatchResult is the outcome of fetching and persisting one batch.
type BatchResult struct {
	// Results maps every symbol of the batch to whether it was refreshed.
	Results map[string]bool
	// Failures holds the reason for every symbol mapped to false.
	Failures map[string]entity.FailureReason
	// Attempts lists each provider call made for the batch, in order.
	Attempts []entity.AttemptOutcome
	// Aborted is set when every attempt failed; the run must stop.
	Aborted bool
}

func newBatchResult(batch []string, attempts []entity.AttemptOutcome) BatchResult {
	return BatchResult{
		Results:  make(map[string]bool, len(batch)),
		Failures: make(map[string]entity.FailureReason),
		Attempts: attempts,
	}
}

func (r *BatchResult) succeed(symbol string) {
	r.Results[symbol] = true
}

func (r *BatchResult) fail(symbol string, reason entity.FailureReason) {
	r.Results[symbol] = false
	r.Failures[symbol] = reason
}

// abortedBatch marks every symbol of batch as failed because the provider never answered.
func abortedBatch(batch []string, attempts []entity.AttemptOutcome) BatchResult {
	r := newBatchResult(batch, attempts)
	for _, s := range batch {
		r.fail(s, entity.ReasonBatchAborted)
	}
	r.Aborted = true
	return r
}

// RetryingFetcher requests one batch from the provider with bounded retries,
// then validates and persists each symbol independently.
type RetryingFetcher struct {
	provider MarketProvider
	store    EntityStore
	sleeper  ratelimiter.Sleeper
	cfg      Config
	logger   *slog.Logger
}

// NewRetryingFetcher creates a fetcher. A nil logger uses slog.Default().
func NewRetryingFetcher(provider MarketProvider, store EntityStore, sleeper ratelimiter.Sleeper, cfg Config, logger *slog.Logger) *RetryingFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingFetcher{
		provider: provider,
		store:    store,
		sleeper:  sleeper,
		cfg:      cfg,
		logger:   logger,
	}
}

// FetchBatch fetches batch for kind and persists every usable payload with refresh time now.
// Provider and persistence failures are reported in the result, never returned.
func (f *RetryingFetcher) FetchBatch(ctx context.Context, kind entity.DataKind, batch []string, now time.Time) BatchResult {
	if kind == entity.KindSnapshot {
		return f.fetchSnapshots(ctx, batch, now)
	}
	return f.fetchSeries(ctx, batch, now)
}

func (f *RetryingFetcher) fetchSeries(ctx context.Context, batch []string, now time.Time) BatchResult {
	start := now.AddDate(0, 0, -f.cfg.SeriesLookbackDays)
	payloads, attempts, ok := fetchWithRetry(ctx, f, entity.KindSeries, len(batch), func(ctx context.Context) (map[string]entity.SeriesPayload, error) {
		return f.provider.FetchSeries(ctx, batch, start, now)
	})
	if !ok {
		return abortedBatch(batch, attempts)
	}

	res := newBatchResult(batch, attempts)
	for _, s := range batch {
		p, found := payloads[s]
		if !found {
			res.fail(s, entity.ReasonMissing)
			continue
		}
		candles := p.Candles(s)
		if len(candles) == 0 {
			f.logger.Warn("no complete bars in series", "symbol", s, "rows", len(p.Bars))
			res.fail(s, entity.ReasonInvalidPayload)
			continue
		}
		if err := f.store.ReplaceSeries(ctx, s, candles, now); err != nil {
			f.logger.Error("failed to persist series", "symbol", s, "error", err)
			res.fail(s, entity.ReasonPersistenceFailed)
			continue
		}
		res.succeed(s)
	}
	return res
}

func (f *RetryingFetcher) fetchSnapshots(ctx context.Context, batch []string, now time.Time) BatchResult {
	payloads, attempts, ok := fetchWithRetry(ctx, f, entity.KindSnapshot, len(batch), func(ctx context.Context) (map[string]entity.SnapshotPayload, error) {
		return f.provider.FetchSnapshot(ctx, batch)
	})
	if !ok {
		return abortedBatch(batch, attempts)
	}

	res := newBatchResult(batch, attempts)
	for _, s := range batch {
		p, found := payloads[s]
		if !found {
			res.fail(s, entity.ReasonMissing)
			continue
		}
		if !p.Usable() {
			f.logger.Warn("snapshot has too few fields", "symbol", s, "fields", p.PopulatedFields())
			res.fail(s, entity.ReasonInvalidPayload)
			continue
		}
		if err := f.store.UpsertSnapshot(ctx, s, p, now); err != nil {
			f.logger.Error("failed to persist snapshot", "symbol", s, "error", err)
			res.fail(s, entity.ReasonPersistenceFailed)
			continue
		}
		res.succeed(s)
	}
	return res
}

// fetchWithRetry calls the provider up to MaxAttempts times. An error or an
// empty result is a failed attempt, followed by RetryDelay unless it was the
// last one. ok is false when no attempt produced a usable result.
func fetchWithRetry[P any](
	ctx context.Context,
	f *RetryingFetcher,
	kind entity.DataKind,
	size int,
	call func(context.Context) (map[string]P, error),
) (payloads map[string]P, attempts []entity.AttemptOutcome, ok bool) {
	attempts = make([]entity.AttemptOutcome, 0, f.cfg.MaxAttempts)
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		out, err := call(ctx)
		outcome := entity.AttemptOutcome{Attempt: attempt}
		switch {
		case err != nil:
			outcome.Status = entity.AttemptTransportError
			outcome.Err = err
		case len(out) == 0:
			outcome.Status = entity.AttemptEmpty
		default:
			outcome.Status = entity.AttemptSuccess
			return out, append(attempts, outcome), true
		}
		attempts = append(attempts, outcome)

		f.logger.Warn("provider attempt failed",
			"kind", kind.String(),
			"symbols", size,
			"attempt", attempt,
			"max_attempts", f.cfg.MaxAttempts,
			"status", outcome.Status.String(),
			"error", err,
		)
		if attempt == f.cfg.MaxAttempts {
			break
		}
		if err := f.sleeper.Sleep(ctx, f.cfg.RetryDelay); err != nil {
			return nil, attempts, false
		}
	}
	return nil, attempts, false
}
