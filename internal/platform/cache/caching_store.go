// Package cache provides Redis decorators for the marketsync store.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_sync/internal/feature/marketsync/domain/entity"
	"stock_sync/internal/feature/marketsync/usecase"
)

// CachingStore decorates an EntityStore with Redis.
// Refresh records are cached read-through in one hash per data kind, and every
// successful write drops the candle and snapshot read caches of that symbol.
// Redis failures never fail the call; the inner store stays authoritative.
type CachingStore struct {
	inner     usecase.EntityStore
	rdb       redis.UniversalClient
	namespace string
	loc       *time.Location
	now       func() time.Time
}

var _ usecase.EntityStore = (*CachingStore)(nil)

// NewCachingStore wraps inner. A nil rdb disables caching entirely.
// If namespace is empty, it uses "marketsync". loc decides when the cached
// refresh records expire (see TimeUntilNextReset).
func NewCachingStore(rdb redis.UniversalClient, inner usecase.EntityStore, namespace string, loc *time.Location) *CachingStore {
	if namespace == "" {
		namespace = "marketsync"
	}
	return &CachingStore{
		inner:     inner,
		rdb:       rdb,
		namespace: namespace,
		loc:       loc,
		now:       time.Now,
	}
}

// LastRefresh reads a single refresh record through the cache.
func (c *CachingStore) LastRefresh(ctx context.Context, symbol string, kind entity.DataKind) (time.Time, bool, error) {
	if c.rdb == nil {
		return c.inner.LastRefresh(ctx, symbol, kind)
	}
	if v, err := c.rdb.HGet(ctx, c.refreshKey(kind), symbol).Result(); err == nil {
		if ts, ok := parseUnix(v); ok {
			return ts, true, nil
		}
	}

	ts, ok, err := c.inner.LastRefresh(ctx, symbol, kind)
	if err != nil || !ok {
		return ts, ok, err
	}
	c.remember(ctx, kind, map[string]time.Time{symbol: ts})
	return ts, true, nil
}

// LastRefreshBulk serves what it can from the hash and asks the inner store for the rest.
func (c *CachingStore) LastRefreshBulk(ctx context.Context, symbols []string, kind entity.DataKind) (map[string]time.Time, error) {
	if c.rdb == nil || len(symbols) == 0 {
		return c.inner.LastRefreshBulk(ctx, symbols, kind)
	}

	out := make(map[string]time.Time, len(symbols))
	misses := symbols

	vals, err := c.rdb.HMGet(ctx, c.refreshKey(kind), symbols...).Result()
	if err == nil {
		misses = make([]string, 0, len(symbols))
		for i, v := range vals {
			s, _ := v.(string)
			if ts, ok := parseUnix(s); ok {
				out[symbols[i]] = ts
				continue
			}
			misses = append(misses, symbols[i])
		}
	} else {
		slog.Debug("refresh cache read failed", "kind", kind, "error", err)
	}
	if len(misses) == 0 {
		return out, nil
	}

	found, err := c.inner.LastRefreshBulk(ctx, misses, kind)
	if err != nil {
		return nil, err
	}
	for s, ts := range found {
		out[s] = ts
	}
	c.remember(ctx, kind, found)
	return out, nil
}

// ReplaceSeries writes through to the inner store and then updates the cache.
func (c *CachingStore) ReplaceSeries(ctx context.Context, symbol string, candles []entity.Candle, refreshedAt time.Time) error {
	if err := c.inner.ReplaceSeries(ctx, symbol, candles, refreshedAt); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	c.remember(ctx, entity.KindSeries, map[string]time.Time{symbol: refreshedAt})
	// キャッシュ削除の失敗は無視する (best effort)
	if err := c.deleteByPattern(ctx, c.candlesPrefix(symbol)+"*"); err != nil {
		slog.Warn("candle cache invalidation failed", "symbol", symbol, "error", err)
	}
	return nil
}

// UpsertSnapshot writes through to the inner store and then updates the cache.
func (c *CachingStore) UpsertSnapshot(ctx context.Context, symbol string, snapshot entity.SnapshotPayload, refreshedAt time.Time) error {
	if err := c.inner.UpsertSnapshot(ctx, symbol, snapshot, refreshedAt); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	c.remember(ctx, entity.KindSnapshot, map[string]time.Time{symbol: refreshedAt})
	if err := c.rdb.Del(ctx, c.snapshotKey(symbol)).Err(); err != nil {
		slog.Warn("snapshot cache invalidation failed", "symbol", symbol, "error", err)
	}
	return nil
}

// remember stores refresh times and re-arms the hash expiry at the next reset.
func (c *CachingStore) remember(ctx context.Context, kind entity.DataKind, times map[string]time.Time) {
	if len(times) == 0 {
		return
	}
	fields := make([]any, 0, len(times)*2)
	for s, ts := range times {
		fields = append(fields, s, strconv.FormatInt(ts.UnixNano(), 10))
	}
	key := c.refreshKey(kind)
	ttl := TimeUntilNextReset(c.now(), c.loc, DefaultResetHour)

	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, fields...)
		p.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		slog.Debug("refresh cache write failed", "kind", kind, "error", err)
	}
}

// refreshKey is the hash holding refresh times of one data kind.
func (c *CachingStore) refreshKey(kind entity.DataKind) string {
	return fmt.Sprintf("%s:refresh:%s", c.namespace, kind)
}

// candlesPrefix matches the read cache entries of the candle API ("candles:<symbol>:<interval>:<n>").
func (c *CachingStore) candlesPrefix(symbol string) string {
	return fmt.Sprintf("candles:%s:", safe(symbol))
}

func (c *CachingStore) snapshotKey(symbol string) string {
	return fmt.Sprintf("snapshot:%s", safe(symbol))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingStore) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

func parseUnix(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, n).UTC(), true
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
