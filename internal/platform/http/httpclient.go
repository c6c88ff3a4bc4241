// Package http builds the outbound HTTP client shared by the market data providers.
package http

import (
	"net"
	"net/http"
	"time"
)

// ClientOptions tunes the transport of NewHTTPClient.
type ClientOptions struct {
	// Timeout bounds a whole request including reading the body.
	Timeout time.Duration
	// MaxConnsPerHost caps concurrent connections to the provider; 0 means unlimited.
	MaxConnsPerHost int
}

// NewHTTPClient は外部API呼び出し用のHTTPクライアントを作成します。
//
// http.DefaultClient にはタイムアウトがないため使用しないこと。
// プロバイダは1ホストのみなので、アイドル接続はホスト単位で保持します。
func NewHTTPClient(opts ClientOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
		MaxConnsPerHost:       opts.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Timeout: opts.Timeout, Transport: t}
}
