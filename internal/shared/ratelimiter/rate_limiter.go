package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded(ctx context.Context) error
}

// RateLimiter は固定ウィンドウ方式で操作の頻度を制限します。
// 複数のgoroutineから安全に呼び出せます。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // ウィンドウあたりの上限
	interval  time.Duration // ウィンドウの長さ
	count     int
	lastReset time.Time

	now     func() time.Time
	sleeper Sleeper
}

// Option は RateLimiter の任意設定です。
type Option func(*RateLimiter)

// WithClock は現在時刻の取得方法を差し替えます（テスト用）。
func WithClock(now func() time.Time) Option {
	return func(rl *RateLimiter) { rl.now = now }
}

// WithSleeper は待機の実装を差し替えます（テスト用）。
func WithSleeper(s Sleeper) Option {
	return func(rl *RateLimiter) { rl.sleeper = s }
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// limit が0以下の場合は制限しません。
func NewRateLimiter(limit int, interval time.Duration, opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		limit:    limit,
		interval: interval,
		now:      time.Now,
		sleeper:  ContextSleeper{},
	}
	for _, opt := range opts {
		opt(rl)
	}
	rl.lastReset = rl.now()
	return rl
}

// WaitIfNeeded はレートリミットの上限に達しているかを確認し、必要であれば次のウィンドウまで待機します。
// 待機中にctxがキャンセルされた場合は ctx.Err() を返します。
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	if rl.limit <= 0 {
		return ctx.Err()
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count <= rl.limit {
		return nil
	}

	wait := rl.interval - now.Sub(rl.lastReset)
	if wait > 0 {
		slog.Info("rate limit reached, waiting", "limit", rl.limit, "wait", wait)
		if err := rl.sleeper.Sleep(ctx, wait); err != nil {
			rl.count--
			return err
		}
	}
	// リセット
	rl.count = 1
	rl.lastReset = rl.now()
	return nil
}
