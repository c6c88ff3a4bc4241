// Package twelvedata provides a client for the Twelve Data stock market API.
package twelvedata

import "time"

// Config holds configuration for the Twelve Data API client.
// Field tags are read by the platform config loader under the TWELVE_DATA_ prefix.
type Config struct {
	TwelveDataAPIKey string        `env:"API_KEY"`
	BaseURL          string        `env:"BASE_URL, default=https://api.twelvedata.com"`
	Timeout          time.Duration `env:"TIMEOUT, default=10s"`

	// SymbolSuffix is appended to plain codes before they are sent, e.g. ".T".
	SymbolSuffix string `env:"SYMBOL_SUFFIX"`
	// Exchange optionally narrows every lookup, e.g. "JPX".
	Exchange string `env:"EXCHANGE"`

	// MaxSymbolsPerRequest caps the comma-separated symbol list of one time_series call.
	MaxSymbolsPerRequest int `env:"MAX_SYMBOLS_PER_REQUEST, default=120"`
	// RequestsPerMinute is the plan's credit budget; 0 disables client-side limiting.
	RequestsPerMinute int `env:"REQUESTS_PER_MINUTE, default=8"`
	// IncludeProfile adds a /profile call per symbol to fill sector, industry and headcount.
	IncludeProfile bool `env:"INCLUDE_PROFILE, default=true"`
}
