package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	marketadapters "stock_sync/internal/feature/marketsync/adapters"
	"stock_sync/internal/feature/marketsync/usecase"
	"stock_sync/internal/platform/cache"
)

// NewEntityStore creates the EntityStore implementation.
// If Redis is available, the GORM store is wrapped with the Redis cache.
func NewEntityStore(db *gorm.DB, rdb *redis.Client, loc *time.Location) usecase.EntityStore {
	store := marketadapters.NewMarketStore(db)
	if rdb == nil {
		return store
	}
	return cache.NewCachingStore(rdb, store, "marketsync", loc)
}
