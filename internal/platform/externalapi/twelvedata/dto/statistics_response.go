package dto

import "github.com/shopspring/decimal"

// StatisticsResponse represents the JSON response from the Twelve Data statistics endpoint.
// Missing metrics are JSON null.
type StatisticsResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Meta    struct {
		Symbol   string `json:"symbol"`
		Exchange string `json:"exchange"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Statistics struct {
		ValuationsMetrics struct {
			MarketCapitalization *float64            `json:"market_capitalization"`
			TrailingPE           decimal.NullDecimal `json:"trailing_pe"`
			ForwardPE            decimal.NullDecimal `json:"forward_pe"`
			PriceToBookMRQ       decimal.NullDecimal `json:"price_to_book_mrq"`
		} `json:"valuations_metrics"`
		Financials struct {
			ProfitMargin      decimal.NullDecimal `json:"profit_margin"`
			ReturnOnAssetsTTM decimal.NullDecimal `json:"return_on_assets_ttm"`
			ReturnOnEquityTTM decimal.NullDecimal `json:"return_on_equity_ttm"`
			IncomeStatement   struct {
				RevenueTTM                 *float64            `json:"revenue_ttm"`
				QuarterlyRevenueGrowth     decimal.NullDecimal `json:"quarterly_revenue_growth"`
				QuarterlyEarningsGrowthYOY decimal.NullDecimal `json:"quarterly_earnings_growth_yoy"`
			} `json:"income_statement"`
			BalanceSheet struct {
				TotalDebtToEquityMRQ decimal.NullDecimal `json:"total_debt_to_equity_mrq"`
			} `json:"balance_sheet"`
		} `json:"financials"`
		StockStatistics struct {
			Avg10Volume *float64 `json:"avg_10_volume"`
			Avg90Volume *float64 `json:"avg_90_volume"`
		} `json:"stock_statistics"`
		StockPriceSummary struct {
			FiftyTwoWeekLow  decimal.NullDecimal `json:"fifty_two_week_low"`
			FiftyTwoWeekHigh decimal.NullDecimal `json:"fifty_two_week_high"`
		} `json:"stock_price_summary"`
		DividendsAndSplits struct {
			ForwardAnnualDividendRate  decimal.NullDecimal `json:"forward_annual_dividend_rate"`
			ForwardAnnualDividendYield decimal.NullDecimal `json:"forward_annual_dividend_yield"`
			TrailingAnnualDividendRate decimal.NullDecimal `json:"trailing_annual_dividend_rate"`
			ExDividendDate             string              `json:"ex_dividend_date"`
		} `json:"dividends_and_splits"`
	} `json:"statistics"`
}

// ProfileResponse represents the JSON response from the Twelve Data profile endpoint.
type ProfileResponse struct {
	Status    string `json:"status"`
	Code      int    `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Exchange  string `json:"exchange"`
	Sector    string `json:"sector"`
	Industry  string `json:"industry"`
	Employees *int64 `json:"employees"`
}
