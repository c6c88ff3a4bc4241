package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinSnapshotFields is the number of populated fields a snapshot needs before it is stored.
// Providers answer unknown or delisted tickers with a near-empty record.
const MinSnapshotFields = 6

// SnapshotPayload is the fundamentals record of one symbol at refresh time.
// Nil pointers and invalid NullDecimals mean the provider did not report the field.
type SnapshotPayload struct {
	Industry          *string
	Sector            *string
	FullTimeEmployees *int64

	MarketCap    *int64
	CurrentPrice decimal.NullDecimal

	DividendYield              decimal.NullDecimal
	DividendRate               decimal.NullDecimal
	TrailingAnnualDividendRate decimal.NullDecimal
	ExDividendDate             *time.Time

	TrailingPE     decimal.NullDecimal
	ForwardPE      decimal.NullDecimal
	PriceToBook    decimal.NullDecimal
	DebtToEquity   decimal.NullDecimal
	ReturnOnEquity decimal.NullDecimal
	ReturnOnAssets decimal.NullDecimal

	TotalRevenue   *int64
	EarningsGrowth decimal.NullDecimal
	RevenueGrowth  decimal.NullDecimal
	ProfitMargins  decimal.NullDecimal

	FiftyTwoWeekHigh decimal.NullDecimal
	FiftyTwoWeekLow  decimal.NullDecimal
	AverageVolume    *int64
}

// PopulatedFields counts the fields the provider actually reported.
func (p SnapshotPayload) PopulatedFields() int {
	n := 0
	for _, present := range []bool{
		p.Industry != nil,
		p.Sector != nil,
		p.FullTimeEmployees != nil,
		p.MarketCap != nil,
		p.CurrentPrice.Valid,
		p.DividendYield.Valid,
		p.DividendRate.Valid,
		p.TrailingAnnualDividendRate.Valid,
		p.ExDividendDate != nil,
		p.TrailingPE.Valid,
		p.ForwardPE.Valid,
		p.PriceToBook.Valid,
		p.DebtToEquity.Valid,
		p.ReturnOnEquity.Valid,
		p.ReturnOnAssets.Valid,
		p.TotalRevenue != nil,
		p.EarningsGrowth.Valid,
		p.RevenueGrowth.Valid,
		p.ProfitMargins.Valid,
		p.FiftyTwoWeekHigh.Valid,
		p.FiftyTwoWeekLow.Valid,
		p.AverageVolume != nil,
	} {
		if present {
			n++
		}
	}
	return n
}

// Usable reports whether the snapshot carries enough data to be persisted.
func (p SnapshotPayload) Usable() bool {
	return p.PopulatedFields() >= MinSnapshotFields
}
