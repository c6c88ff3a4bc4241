package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	marketadapters "stock_sync/internal/feature/marketsync/adapters"
	"stock_sync/internal/feature/marketsync/domain/entity"
	marketusecase "stock_sync/internal/feature/marketsync/usecase"
	symboladapters "stock_sync/internal/feature/symbollist/adapters"
	symbolusecase "stock_sync/internal/feature/symbollist/usecase"
	"stock_sync/internal/platform/config"
	infradb "stock_sync/internal/platform/db"
	"stock_sync/internal/platform/messaging"
	infraredis "stock_sync/internal/platform/redis"
	"stock_sync/internal/shared/ratelimiter"
)

// StatsReader reports what the entity store holds.
type StatsReader interface {
	Stats(ctx context.Context) (entity.StoreStats, error)
}

// App holds the wired components of one process.
type App struct {
	Sync     *marketusecase.SyncUsecase
	Symbols  *symbolusecase.SymbolUsecase
	Stats    StatsReader
	Location *time.Location

	closers []func() error
}

// Close releases every connection opened by Build, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// Build opens the database and the optional Redis and NATS connections and wires the usecases.
// Redis and NATS failures are logged and the process continues without them.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := infradb.OpenDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	app := &App{Location: loc}
	app.closers = append(app.closers, closeDB(db))

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, cfg.Redis); err != nil {
			logger.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			rdb = tmp
			app.closers = append(app.closers, rdb.Close)
		}
	}

	opts := []marketusecase.Option{
		marketusecase.WithLogger(logger),
		marketusecase.WithClock(func() time.Time { return time.Now().In(loc) }),
	}
	if cfg.NATS.Enabled() {
		if conn, err := messaging.Connect(cfg.NATS, logger); err != nil {
			logger.Warn("NATS unavailable. Summaries will not be published.", "error", err)
		} else {
			app.closers = append(app.closers, func() error { return conn.Drain() })
			opts = append(opts, marketusecase.WithPublisher(messaging.NewSummaryPublisher(conn, cfg.NATS.FlushTimeout)))
		}
	}

	store := NewEntityStore(db, rdb, loc)
	syncUC, err := marketusecase.NewSyncUsecase(store, NewMarket(cfg.TwelveData), ratelimiter.ContextSleeper{}, cfg.Sync, opts...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("build sync usecase: %w", err)
	}

	app.Sync = syncUC
	app.Symbols = symbolusecase.NewSymbolUsecase(symboladapters.NewSymbolRepository(db))
	app.Stats = marketadapters.NewMarketStore(db)
	return app, nil
}

func closeDB(db *gorm.DB) func() error {
	return func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
}
