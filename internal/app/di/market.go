// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"stock_sync/internal/platform/externalapi/twelvedata"
	infrahttp "stock_sync/internal/platform/http"
	"stock_sync/internal/shared/ratelimiter"
)

// NewMarket creates a fully configured TwelveDataMarket with HTTP client and request limiter.
func NewMarket(cfg twelvedata.Config) *twelvedata.TwelveDataMarket {
	httpClient := infrahttp.NewHTTPClient(infrahttp.ClientOptions{Timeout: cfg.Timeout, MaxConnsPerHost: 4})
	limiter := ratelimiter.NewRateLimiter(cfg.RequestsPerMinute, time.Minute)
	return twelvedata.NewTwelveDataMarket(cfg, httpClient, limiter)
}
