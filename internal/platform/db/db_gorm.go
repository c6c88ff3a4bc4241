// Package db opens the relational database behind the entity store.
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	marketadapters "stock_sync/internal/feature/marketsync/adapters"
	symbolentity "stock_sync/internal/feature/symbollist/domain/entity"
)

// Supported drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnknownDriver is returned for a DB_DRIVER value that is not supported.
var ErrUnknownDriver = errors.New("unknown database driver")

const retryInterval = 3 * time.Second

// Config is read under the DB_ prefix.
type Config struct {
	Driver   string `env:"DRIVER, default=mysql"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME"`
	Host     string `env:"HOST, default=localhost"`
	Port     string `env:"PORT"`

	// InstanceName はCloud SQLのインスタンス接続名です。設定時はUnixソケットで接続します (mysql のみ)。
	InstanceName string `env:"INSTANCE_CONNECTION_NAME"`
	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `env:"SQLITE_PATH, default=./stock.db"`

	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT, default=60s"`
	RunMigrations  bool          `env:"RUN_MIGRATIONS, default=false"`
}

// Opener opens a gorm connection for a DSN. Replaced in tests.
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN はドライバごとの接続文字列を生成します。
func BuildDSN(cfg Config) string {
	switch cfg.Driver {
	case DriverPostgres:
		port := cfg.Port
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host, port, cfg.User, cfg.Password, cfg.Name)
	case DriverSQLite:
		return cfg.SQLitePath
	default:
		if cfg.InstanceName != "" {
			return fmt.Sprintf("%s:%s@unix(/cloudsql/%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
				cfg.User, cfg.Password, cfg.InstanceName, cfg.Name)
		}
		port := cfg.Port
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.Host, port, cfg.Name)
	}
}

// OpenerFor returns the gorm opener of cfg.Driver.
func OpenerFor(cfg Config) (Opener, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	switch cfg.Driver {
	case DriverMySQL, "":
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(gmysql.Open(dsn), gcfg) }, nil
	case DriverPostgres:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(postgres.Open(dsn), gcfg) }, nil
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(sqlite.Open(dsn), gcfg) }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// ConnectWithRetry は timeout に達するまで retryInterval ごとに接続を再試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}

// Migrate creates or updates every table the sync engine reads or writes.
func Migrate(db *gorm.DB) error {
	models := append(marketadapters.Models(), &symbolentity.Symbol{})
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// OpenDB connects with retry and runs migrations when cfg.RunMigrations is set.
// The sqlite driver always migrates, since a fresh file has no schema.
func OpenDB(cfg Config) (*gorm.DB, error) {
	open, err := OpenerFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), cfg.ConnectTimeout, open)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations || cfg.Driver == DriverSQLite {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	slog.Info("database ready", "driver", cfg.Driver)
	return db, nil
}
