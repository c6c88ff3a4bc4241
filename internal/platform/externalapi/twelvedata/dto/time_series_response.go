// Package dto defines data transfer objects for the Twelve Data API responses.
package dto

// ErrorResponse is the body Twelve Data returns for request-level failures,
// usually with HTTP 200.
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TimeSeriesValue is one row of a time_series response. Every field is a string.
type TimeSeriesValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// TimeSeriesResponse represents the JSON response from the Twelve Data time_series endpoint.
// Multi-symbol requests return one of these per symbol, keyed by the requested symbol.
type TimeSeriesResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Meta    struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
		Exchange string `json:"exchange"`
	} `json:"meta"`
	Values []TimeSeriesValue `json:"values"`
}
