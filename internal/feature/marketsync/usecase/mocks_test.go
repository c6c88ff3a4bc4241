package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"stock_sync/internal/feature/marketsync/domain/entity"
)

var (
	ErrProvider = errors.New("provider unavailable")
	ErrDB       = errors.New("database error")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryStore is an in-memory EntityStore. Func fields override the default behaviour.
type memoryStore struct {
	mu        sync.Mutex
	refreshed map[entity.DataKind]map[string]time.Time
	series    map[string][]entity.Candle
	snapshots map[string]entity.SnapshotPayload

	LastRefreshBulkFunc func(ctx context.Context, symbols []string, kind entity.DataKind) (map[string]time.Time, error)
	LastRefreshFunc     func(ctx context.Context, symbol string, kind entity.DataKind) (time.Time, bool, error)
	ReplaceSeriesFunc   func(ctx context.Context, symbol string, candles []entity.Candle) error
	UpsertSnapshotFunc  func(ctx context.Context, symbol string, snapshot entity.SnapshotPayload) error

	LastRefreshBulkCalls int
	LastRefreshCalls     int
	ReplaceSeriesCalls   int
	UpsertSnapshotCalls  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		refreshed: map[entity.DataKind]map[string]time.Time{
			entity.KindSeries:   {},
			entity.KindSnapshot: {},
		},
		series:    map[string][]entity.Candle{},
		snapshots: map[string]entity.SnapshotPayload{},
	}
}

func (m *memoryStore) setRefreshed(kind entity.DataKind, symbol string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshed[kind][symbol] = t
}

func (m *memoryStore) LastRefresh(ctx context.Context, symbol string, kind entity.DataKind) (time.Time, bool, error) {
	m.mu.Lock()
	m.LastRefreshCalls++
	m.mu.Unlock()
	if m.LastRefreshFunc != nil {
		return m.LastRefreshFunc(ctx, symbol, kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.refreshed[kind][symbol]
	return t, ok, nil
}

func (m *memoryStore) LastRefreshBulk(ctx context.Context, symbols []string, kind entity.DataKind) (map[string]time.Time, error) {
	m.mu.Lock()
	m.LastRefreshBulkCalls++
	m.mu.Unlock()
	if m.LastRefreshBulkFunc != nil {
		return m.LastRefreshBulkFunc(ctx, symbols, kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]time.Time{}
	for _, s := range symbols {
		if t, ok := m.refreshed[kind][s]; ok {
			out[s] = t
		}
	}
	return out, nil
}

func (m *memoryStore) ReplaceSeries(ctx context.Context, symbol string, candles []entity.Candle, refreshedAt time.Time) error {
	m.mu.Lock()
	m.ReplaceSeriesCalls++
	m.mu.Unlock()
	if m.ReplaceSeriesFunc != nil {
		if err := m.ReplaceSeriesFunc(ctx, symbol, candles); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[symbol] = append([]entity.Candle(nil), candles...)
	m.refreshed[entity.KindSeries][symbol] = refreshedAt
	return nil
}

func (m *memoryStore) UpsertSnapshot(ctx context.Context, symbol string, snapshot entity.SnapshotPayload, refreshedAt time.Time) error {
	m.mu.Lock()
	m.UpsertSnapshotCalls++
	m.mu.Unlock()
	if m.UpsertSnapshotFunc != nil {
		if err := m.UpsertSnapshotFunc(ctx, symbol, snapshot); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[symbol] = snapshot
	m.refreshed[entity.KindSnapshot][symbol] = refreshedAt
	return nil
}

// mockMarketProvider is a mock implementation of the MarketProvider interface.
type mockMarketProvider struct {
	FetchSeriesFunc   func(ctx context.Context, symbols []string, start, end time.Time) (map[string]entity.SeriesPayload, error)
	FetchSnapshotFunc func(ctx context.Context, symbols []string) (map[string]entity.SnapshotPayload, error)

	FetchSeriesCalls   [][]string
	FetchSnapshotCalls [][]string
}

func (m *mockMarketProvider) FetchSeries(ctx context.Context, symbols []string, start, end time.Time) (map[string]entity.SeriesPayload, error) {
	m.FetchSeriesCalls = append(m.FetchSeriesCalls, append([]string(nil), symbols...))
	if m.FetchSeriesFunc != nil {
		return m.FetchSeriesFunc(ctx, symbols, start, end)
	}
	return nil, errors.New("FetchSeriesFunc is not implemented")
}

func (m *mockMarketProvider) FetchSnapshot(ctx context.Context, symbols []string) (map[string]entity.SnapshotPayload, error) {
	m.FetchSnapshotCalls = append(m.FetchSnapshotCalls, append([]string(nil), symbols...))
	if m.FetchSnapshotFunc != nil {
		return m.FetchSnapshotFunc(ctx, symbols)
	}
	return nil, errors.New("FetchSnapshotFunc is not implemented")
}

func (m *mockMarketProvider) calls() int {
	return len(m.FetchSeriesCalls) + len(m.FetchSnapshotCalls)
}

// fakeSleeper records requested waits and returns immediately.
type fakeSleeper struct {
	Waits []time.Duration
	Err   error
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.Waits = append(s.Waits, d)
	return s.Err
}

// mockPublisher captures published summaries.
type mockPublisher struct {
	Summaries []entity.SyncSummary
	CtxErrs   []error
	Err       error
}

func (p *mockPublisher) PublishSummary(ctx context.Context, summary entity.SyncSummary) error {
	p.Summaries = append(p.Summaries, summary)
	p.CtxErrs = append(p.CtxErrs, ctx.Err())
	return p.Err
}

func ptr[T any](v T) *T { return &v }

// seriesFor returns a payload with n complete daily bars ending at end.
func seriesFor(end time.Time, n int) entity.SeriesPayload {
	bars := make([]entity.Bar, 0, n)
	for d := n - 1; d >= 0; d-- {
		bars = append(bars, entity.Bar{
			Time:   end.AddDate(0, 0, -d),
			Open:   ptr(100.0),
			High:   ptr(110.0),
			Low:    ptr(95.0),
			Close:  ptr(105.0),
			Volume: ptr(int64(1000)),
		})
	}
	return entity.SeriesPayload{Bars: bars}
}

// allSeries answers every requested symbol with a complete payload.
func allSeries(ctx context.Context, symbols []string, start, end time.Time) (map[string]entity.SeriesPayload, error) {
	out := make(map[string]entity.SeriesPayload, len(symbols))
	for _, s := range symbols {
		out[s] = seriesFor(end, 3)
	}
	return out, nil
}
