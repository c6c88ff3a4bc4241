// Package config loads the process configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"stock_sync/internal/feature/marketsync/usecase"
	"stock_sync/internal/platform/db"
	"stock_sync/internal/platform/externalapi/twelvedata"
	"stock_sync/internal/platform/logging"
	"stock_sync/internal/platform/messaging"
	"stock_sync/internal/platform/redis"
)

// Config represents the application configuration.
type Config struct {
	DB         db.Config         `env:", prefix=DB_"`
	Redis      redis.Config      `env:", prefix=REDIS_"`
	NATS       messaging.Config  `env:", prefix=NATS_"`
	TwelveData twelvedata.Config `env:", prefix=TWELVE_DATA_"`
	Sync       usecase.Config    `env:", prefix=SYNC_"`
	Log        logging.Config    `env:", prefix=LOG_"`

	// Timezone decides which calendar day "today" is for staleness.
	Timezone string `env:"SYNC_TIMEZONE, default=Asia/Tokyo"`
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load は .env を読み込んでから環境変数を設定構造体に展開します。
// .env が存在しない場合はシステムの環境変数のみを使用します。
func Load(ctx context.Context, files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file: %w", err)
		}
		slog.Debug(".env not found; using system environment variables")
	}
	return Process(ctx, envconfig.OsLookuper())
}

// Process fills a Config from l.
func Process(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Sync.Validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
