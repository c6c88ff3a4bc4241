package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_sync/internal/feature/marketsync/domain/entity"
)

func newTestSync(t *testing.T, store EntityStore, provider MarketProvider, sleeper *fakeSleeper, cfg Config, now time.Time, opts ...Option) *SyncUsecase {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger()), WithClock(func() time.Time { return now })}, opts...)
	uc, err := NewSyncUsecase(store, provider, sleeper, cfg, opts...)
	require.NoError(t, err)
	return uc
}

func TestNewSyncUsecase_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SeriesBatchSize = 0

	_, err := NewSyncUsecase(newMemoryStore(), &mockMarketProvider{}, &fakeSleeper{}, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSyncUsecase_Sync_Misconfiguration(t *testing.T) {
	t.Parallel()

	uc := newTestSync(t, newMemoryStore(), &mockMarketProvider{}, &fakeSleeper{}, DefaultConfig(), time.Now())

	_, _, err := uc.Sync(context.Background(), []string{"A"}, entity.DataKind(0))
	assert.ErrorIs(t, err, entity.ErrInvalidDataKind)

	_, _, err = uc.Sync(context.Background(), nil, entity.KindSeries)
	assert.ErrorIs(t, err, ErrNoSymbols)

	_, _, err = uc.Sync(context.Background(), []string{" ", ""}, entity.KindSeries)
	assert.ErrorIs(t, err, ErrNoSymbols)
}

func TestSyncUsecase_Sync_ScenarioABC(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 18, 0, 0, 0, jst)
	store := newMemoryStore()
	store.setRefreshed(entity.KindSeries, "B", now.Add(-3*time.Hour))
	store.setRefreshed(entity.KindSeries, "C", now.AddDate(0, 0, -3))
	provider := &mockMarketProvider{FetchSeriesFunc: allSeries}
	publisher := &mockPublisher{}

	uc := newTestSync(t, store, provider, &fakeSleeper{}, DefaultConfig(), now, WithPublisher(publisher))
	results, summary, err := uc.Sync(context.Background(), []string{"A", "B", "C"}, entity.KindSeries)
	require.NoError(t, err)

	require.Len(t, provider.FetchSeriesCalls, 1)
	assert.Equal(t, []string{"A", "C"}, provider.FetchSeriesCalls[0], "B must not be requested")
	assert.Equal(t, map[string]bool{"A": true, "B": true, "C": true}, results)
	assert.Equal(t, entity.SyncSummary{
		Kind:       entity.KindSeries,
		Checked:    3,
		Due:        2,
		Skipped:    1,
		Refreshed:  2,
		Succeeded:  3,
		Batches:    1,
		StartedAt:  now,
		FinishedAt: now,
	}, summary)
	assert.True(t, summary.OK())
	require.Len(t, publisher.Summaries, 1)
	assert.Equal(t, summary, publisher.Summaries[0])
}

func TestSyncUsecase_Sync_NothingDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 18, 0, 0, 0, jst)
	store := newMemoryStore()
	for _, s := range []string{"A", "B"} {
		store.setRefreshed(entity.KindSnapshot, s, now)
	}
	provider := &mockMarketProvider{}
	sleeper := &fakeSleeper{}

	uc := newTestSync(t, store, provider, sleeper, DefaultConfig(), now)
	results, summary, err := uc.Sync(context.Background(), []string{"A", "B"}, entity.KindSnapshot)
	require.NoError(t, err)

	assert.Zero(t, provider.calls())
	assert.Empty(t, sleeper.Waits)
	assert.Equal(t, map[string]bool{"A": true, "B": true}, results)
	assert.Equal(t, summary.Checked, summary.Succeeded)
	assert.Zero(t, summary.Due)
	assert.Zero(t, summary.Batches)
	assert.False(t, summary.Aborted)
}

func TestSyncUsecase_Sync_AbortOnSecondOfThreeBatches(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SeriesBatchSize = 2
	now := time.Date(2025, 6, 10, 18, 0, 0, 0, jst)
	symbols := []string{"A1", "A2", "B1", "B2", "C1", "C2"}

	provider := &mockMarketProvider{
		FetchSeriesFunc: func(ctx context.Context, batch []string, start, end time.Time) (map[string]entity.SeriesPayload, error) {
			switch batch[0] {
			case "A1":
				// A2 is missing from the answer: an isolated failure.
				return map[string]entity.SeriesPayload{"A1": seriesFor(end, 2)}, nil
			case "B1":
				return nil, ErrProvider
			default:
				t.Errorf("batch %v must not be requested after an abort", batch)
				return nil, ErrProvider
			}
		},
	}
	sleeper := &fakeSleeper{}
	store := newMemoryStore()

	uc := newTestSync(t, store, provider, sleeper, cfg, now)
	results, summary, err := uc.Sync(context.Background(), symbols, entity.KindSeries)
	require.NoError(t, err, "provider outages are reported, not returned")

	assert.Equal(t, map[string]bool{
		"A1": true, "A2": false,
		"B1": false, "B2": false,
		"C1": false, "C2": false,
	}, results)
	assert.True(t, summary.Aborted)
	assert.False(t, summary.OK())
	assert.Equal(t, 6, summary.Due)
	assert.Equal(t, 1, summary.Refreshed)
	assert.Equal(t, 5, summary.Failed)
	assert.Equal(t, 2, summary.Batches)
	assert.Equal(t, []string{"A2", "B1", "B2", "C1", "C2"}, summary.FailedSymbols)
	assert.Len(t, provider.FetchSeriesCalls, 1+3)
	// one pacing wait after batch 1, two retry waits inside batch 2, nothing after the abort
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second}, sleeper.Waits)
}

func TestSyncUsecase_Sync_PacingBetweenBatchesOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		kind      entity.DataKind
		n         int
		wantCalls int
		wantWaits []time.Duration
	}{
		{name: "series single batch", kind: entity.KindSeries, n: 1000, wantCalls: 1, wantWaits: nil},
		{name: "series three batches", kind: entity.KindSeries, n: 2500, wantCalls: 3, wantWaits: []time.Duration{2 * time.Second, 2 * time.Second}},
		{name: "snapshot two batches", kind: entity.KindSnapshot, n: 150, wantCalls: 2, wantWaits: []time.Duration{10 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider := &mockMarketProvider{
				FetchSeriesFunc: allSeries,
				FetchSnapshotFunc: func(ctx context.Context, symbols []string) (map[string]entity.SnapshotPayload, error) {
					out := make(map[string]entity.SnapshotPayload, len(symbols))
					for _, s := range symbols {
						out[s] = usableSnapshot()
					}
					return out, nil
				},
			}
			sleeper := &fakeSleeper{}
			uc := newTestSync(t, newMemoryStore(), provider, sleeper, DefaultConfig(), time.Now())

			_, summary, err := uc.Sync(context.Background(), symbolsN(tt.n), tt.kind)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCalls, provider.calls())
			assert.Equal(t, tt.wantWaits, sleeper.Waits)
			assert.Equal(t, tt.n, summary.Refreshed)
			assert.True(t, summary.OK())
		})
	}
}

func TestSyncUsecase_Sync_BatchSizes(t *testing.T) {
	t.Parallel()

	provider := &mockMarketProvider{FetchSeriesFunc: allSeries}
	uc := newTestSync(t, newMemoryStore(), provider, &fakeSleeper{}, DefaultConfig(), time.Now())

	_, _, err := uc.Sync(context.Background(), symbolsN(2001), entity.KindSeries)
	require.NoError(t, err)

	require.Len(t, provider.FetchSeriesCalls, 3)
	assert.Len(t, provider.FetchSeriesCalls[0], 1000)
	assert.Len(t, provider.FetchSeriesCalls[1], 1000)
	assert.Len(t, provider.FetchSeriesCalls[2], 1)
}

func TestSyncUsecase_Sync_DuplicateSymbols(t *testing.T) {
	t.Parallel()

	provider := &mockMarketProvider{FetchSeriesFunc: allSeries}
	uc := newTestSync(t, newMemoryStore(), provider, &fakeSleeper{}, DefaultConfig(), time.Now())

	results, summary, err := uc.Sync(context.Background(), []string{"A", "B", "A", " B "}, entity.KindSeries)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, provider.FetchSeriesCalls[0])
	assert.Len(t, results, 2)
	assert.Equal(t, 2, summary.Checked)
}

func TestSyncUsecase_Sync_Force(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 18, 0, 0, 0, jst)
	store := newMemoryStore()
	store.setRefreshed(entity.KindSeries, "A", now)
	provider := &mockMarketProvider{FetchSeriesFunc: allSeries}

	uc := newTestSync(t, store, provider, &fakeSleeper{}, DefaultConfig(), now)
	_, summary, err := uc.Sync(context.Background(), []string{"A"}, entity.KindSeries, WithForce())
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls())
	assert.Zero(t, store.LastRefreshBulkCalls, "force skips the staleness read")
	assert.Equal(t, 1, summary.Refreshed)
	assert.Zero(t, summary.Skipped)
}

func TestSyncUsecase_Sync_Idempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 18, 0, 0, 0, jst)
	symbols := []string{"A", "B", "C"}

	for _, force := range []bool{false, true} {
		t.Run(fmt.Sprintf("force=%v", force), func(t *testing.T) {
			t.Parallel()

			store := newMemoryStore()
			provider := &mockMarketProvider{FetchSeriesFunc: allSeries}
			uc := newTestSync(t, store, provider, &fakeSleeper{}, DefaultConfig(), now)

			var opts []SyncOption
			if force {
				opts = append(opts, WithForce())
			}

			_, first, err := uc.Sync(context.Background(), symbols, entity.KindSeries, opts...)
			require.NoError(t, err)
			seriesAfterFirst := cloneSeries(store.series)
			refreshAfterFirst := cloneTimes(store.refreshed[entity.KindSeries])

			_, second, err := uc.Sync(context.Background(), symbols, entity.KindSeries, opts...)
			require.NoError(t, err)

			assert.Equal(t, seriesAfterFirst, store.series)
			assert.Equal(t, refreshAfterFirst, store.refreshed[entity.KindSeries])
			assert.True(t, first.OK())
			assert.True(t, second.OK())
			if !force {
				assert.Equal(t, 3, second.Skipped)
				assert.Equal(t, 1, provider.calls())
			}
		})
	}
}

func TestSyncUsecase_Sync_CancelledWhilePacing(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SnapshotBatchSize = 1
	provider := &mockMarketProvider{
		FetchSnapshotFunc: func(ctx context.Context, symbols []string) (map[string]entity.SnapshotPayload, error) {
			return map[string]entity.SnapshotPayload{symbols[0]: usableSnapshot()}, nil
		},
	}
	sleeper := &fakeSleeper{Err: context.Canceled}

	uc := newTestSync(t, newMemoryStore(), provider, sleeper, cfg, time.Now())
	results, summary, err := uc.Sync(context.Background(), []string{"A", "B", "C"}, entity.KindSnapshot)
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"A": true, "B": false, "C": false}, results)
	assert.True(t, summary.Aborted)
	assert.Equal(t, 1, summary.Batches)
	assert.Equal(t, 1, provider.calls())
}

func TestSyncUsecase_Sync_PublisherErrorIsNotFatal(t *testing.T) {
	t.Parallel()

	provider := &mockMarketProvider{FetchSeriesFunc: allSeries}
	publisher := &mockPublisher{Err: ErrProvider}

	uc := newTestSync(t, newMemoryStore(), provider, &fakeSleeper{}, DefaultConfig(), time.Now(), WithPublisher(publisher))
	_, summary, err := uc.Sync(context.Background(), []string{"A"}, entity.KindSeries)

	require.NoError(t, err)
	assert.True(t, summary.OK())
	assert.Len(t, publisher.Summaries, 1)
}

func TestSyncUsecase_Sync_CancelledRunIsPublished(t *testing.T) {
	t.Parallel()

	provider := &mockMarketProvider{FetchSeriesFunc: allSeries}
	publisher := &mockPublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uc := newTestSync(t, newMemoryStore(), provider, &fakeSleeper{}, DefaultConfig(), time.Now(), WithPublisher(publisher))
	_, summary, err := uc.Sync(ctx, []string{"A", "B"}, entity.KindSeries)
	require.NoError(t, err)

	assert.True(t, summary.Aborted)
	assert.Equal(t, 0, provider.calls())
	require.Len(t, publisher.Summaries, 1)
	assert.True(t, publisher.Summaries[0].Aborted)
	assert.NoError(t, publisher.CtxErrs[0], "publishing must not inherit the cancellation")
}

func cloneSeries(in map[string][]entity.Candle) map[string][]entity.Candle {
	out := make(map[string][]entity.Candle, len(in))
	for k, v := range in {
		out[k] = append([]entity.Candle(nil), v...)
	}
	return out
}

func cloneTimes(in map[string]time.Time) map[string]time.Time {
	out := make(map[string]time.Time, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
