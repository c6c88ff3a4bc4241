// Package adapters provides the gorm-backed entity store of the marketsync feature.
package adapters

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CandleModel is one stored daily bar.
type CandleModel struct {
	ID       uint      `gorm:"primaryKey"`
	Symbol   string    `gorm:"size:32;not null;uniqueIndex:candle_sym_int_time,priority:1"`
	Interval string    `gorm:"size:16;not null;uniqueIndex:candle_sym_int_time,priority:2"`
	Time     time.Time `gorm:"not null;uniqueIndex:candle_sym_int_time,priority:3"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume int64   `gorm:"not null;default:0"`
}

func (CandleModel) TableName() string {
	return "candles"
}

// SnapshotModel is the latest fundamentals record of a symbol, overwritten in place.
type SnapshotModel struct {
	Symbol string `gorm:"primaryKey;size:32"`

	Industry          *string `gorm:"size:128"`
	Sector            *string `gorm:"size:128"`
	FullTimeEmployees *int64

	MarketCap    *int64
	CurrentPrice decimal.NullDecimal `gorm:"type:decimal(24,8)"`

	DividendYield              decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	DividendRate               decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	TrailingAnnualDividendRate decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	ExDividendDate             *time.Time

	TrailingPE     decimal.NullDecimal `gorm:"column:trailing_pe;type:decimal(24,8)"`
	ForwardPE      decimal.NullDecimal `gorm:"column:forward_pe;type:decimal(24,8)"`
	PriceToBook    decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	DebtToEquity   decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	ReturnOnEquity decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	ReturnOnAssets decimal.NullDecimal `gorm:"type:decimal(24,8)"`

	TotalRevenue   *int64
	EarningsGrowth decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	RevenueGrowth  decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	ProfitMargins  decimal.NullDecimal `gorm:"type:decimal(24,8)"`

	FiftyTwoWeekHigh decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	FiftyTwoWeekLow  decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	AverageVolume    *int64

	LastUpdated time.Time `gorm:"not null"`
}

func (SnapshotModel) TableName() string {
	return "snapshots"
}

// RefreshRecordModel stores when a symbol was last refreshed for a data kind.
type RefreshRecordModel struct {
	Symbol      string    `gorm:"primaryKey;size:32"`
	Kind        string    `gorm:"primaryKey;size:16"`
	RefreshedAt time.Time `gorm:"not null;index"`
}

func (RefreshRecordModel) TableName() string {
	return "refresh_records"
}

// Models lists every table owned by the entity store.
func Models() []any {
	return []any{&CandleModel{}, &SnapshotModel{}, &RefreshRecordModel{}}
}

// AutoMigrate creates or updates the entity store tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
