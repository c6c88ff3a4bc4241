package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"stock_sync/internal/feature/marketsync/domain/entity"
	"stock_sync/internal/feature/marketsync/usecase"
	"stock_sync/internal/platform/externalapi/twelvedata/dto"
	"stock_sync/internal/shared/ratelimiter"
)

// TwelveDataMarket はTwelve Data外部APIから株価データと企業統計を取得するMarketProvider実装です。
type TwelveDataMarket struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

// TwelveDataMarketがMarketProviderを実装していることをコンパイル時に検証します。
var _ usecase.MarketProvider = (*TwelveDataMarket)(nil)

// NewTwelveDataMarket は指定された設定とHTTPクライアントでTwelveDataMarketの新しいインスタンスを生成します。
// limiter が nil の場合はクライアント側での流量制限を行いません。
func NewTwelveDataMarket(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *TwelveDataMarket {
	if cfg.MaxSymbolsPerRequest <= 0 {
		cfg.MaxSymbolsPerRequest = 120
	}
	return &TwelveDataMarket{cfg: cfg, client: client, limiter: limiter}
}

// FetchSeries はsymbolsの日足を[start, end]の範囲で取得します。
// 銘柄数が多い場合は複数リクエストに分割し、一部が失敗しても取得できた分を返します。
// すべてのリクエストが失敗した場合のみエラーを返します。
func (t *TwelveDataMarket) FetchSeries(ctx context.Context, symbols []string, start, end time.Time) (map[string]entity.SeriesPayload, error) {
	out := make(map[string]entity.SeriesPayload, len(symbols))
	var errs []error
	for _, chunk := range usecase.Chunk(symbols, t.cfg.MaxSymbolsPerRequest) {
		got, err := t.timeSeries(ctx, chunk, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("time_series request failed", "symbols", len(chunk), "error", err)
			errs = append(errs, err)
			continue
		}
		maps.Copy(out, got)
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (t *TwelveDataMarket) timeSeries(ctx context.Context, symbols []string, start, end time.Time) (map[string]entity.SeriesPayload, error) {
	// "7203" と "7203.T" のように同じ銘柄に変換される入力は1回だけ問い合わせ、結果を全員に返す
	requested := make(map[string][]string, len(symbols))
	var formatted []string
	for _, s := range symbols {
		key := t.formatSymbol(s)
		if _, seen := requested[key]; !seen {
			formatted = append(formatted, key)
		}
		requested[key] = append(requested[key], s)
	}

	q := url.Values{}
	// クエリパラメータを追加
	q.Set("symbol", strings.Join(formatted, ","))
	q.Set("interval", entity.SeriesInterval)
	q.Set("start_date", start.Format(time.DateOnly))
	q.Set("end_date", end.Format(time.DateOnly))
	q.Set("order", "ASC")

	var raw json.RawMessage
	if err := t.get(ctx, "time_series", q, &raw); err != nil {
		return nil, err
	}

	// 単一銘柄の場合はフラットなレスポンス
	if len(formatted) == 1 {
		var body dto.TimeSeriesResponse
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, err
		}
		if body.Status == "error" {
			return nil, fmt.Errorf("twelvedata: %s", body.Message)
		}
		bars, err := parseBars(body.Values)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", formatted[0], err)
		}
		out := make(map[string]entity.SeriesPayload, len(symbols))
		fanOut(out, requested[formatted[0]], bars)
		return out, nil
	}

	// 複数銘柄の場合は銘柄ごとのオブジェクト。ただしリクエスト全体のエラーはフラット
	var failure dto.ErrorResponse
	if err := json.Unmarshal(raw, &failure); err == nil && failure.Status == "error" {
		return nil, fmt.Errorf("twelvedata: %s", failure.Message)
	}
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, err
	}

	out := make(map[string]entity.SeriesPayload, len(keyed))
	for key, part := range keyed {
		inputs, ok := requested[key]
		if !ok {
			continue
		}
		symbol := inputs[0]
		var body dto.TimeSeriesResponse
		if err := json.Unmarshal(part, &body); err != nil {
			slog.Warn("failed to decode time_series entry", "symbol", symbol, "error", err)
			continue
		}
		if body.Status == "error" {
			slog.Debug("time_series entry rejected", "symbol", symbol, "code", body.Code, "message", body.Message)
			continue
		}
		bars, err := parseBars(body.Values)
		if err != nil {
			slog.Warn("failed to parse time_series entry", "symbol", symbol, "error", err)
			continue
		}
		fanOut(out, inputs, bars)
	}
	return out, nil
}

// fanOut はbarsをすべての入力銘柄に格納します。銘柄ごとに別のスライスを持たせます。
func fanOut(out map[string]entity.SeriesPayload, inputs []string, bars []entity.Bar) {
	for i, s := range inputs {
		if i > 0 {
			bars = slices.Clone(bars)
		}
		out[s] = entity.SeriesPayload{Bars: bars}
	}
}

// get はエンドポイントにGETリクエストを送り、JSONレスポンスをvにデコードします。
func (t *TwelveDataMarket) get(ctx context.Context, endpoint string, q url.Values, v any) error {
	if t.limiter != nil {
		if err := t.limiter.WaitIfNeeded(ctx); err != nil {
			return err
		}
	}

	q.Set("apikey", t.cfg.TwelveDataAPIKey)
	if t.cfg.Exchange != "" {
		q.Set("exchange", t.cfg.Exchange)
	}
	// URLを生成
	u := fmt.Sprintf("%s/%s?%s", strings.TrimRight(t.cfg.BaseURL, "/"), endpoint, q.Encode())

	// リクエストオブジェクトを作成
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	// リクエストを実行
	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return fmt.Errorf("twelvedata http %d", res.StatusCode)
	}

	// JSONレスポンスをデコード
	return json.NewDecoder(res.Body).Decode(v)
}

// parseBars は文字列のOHLCVをパースします。空の値は欠損として nil のまま残します。
func parseBars(values []dto.TimeSeriesValue) ([]entity.Bar, error) {
	bars := make([]entity.Bar, 0, len(values))
	for _, v := range values {
		// タイムスタンプをパース
		tm, err := time.Parse(time.DateTime, v.Datetime)
		if err != nil {
			tm, err = time.Parse(time.DateOnly, v.Datetime)
			if err != nil {
				return nil, fmt.Errorf("parse time %q: %w", v.Datetime, err)
			}
		}
		b := entity.Bar{Time: tm}
		if b.Open, err = parseFloat(v.Open); err != nil {
			return nil, fmt.Errorf("parse open %q: %w", v.Open, err)
		}
		if b.High, err = parseFloat(v.High); err != nil {
			return nil, fmt.Errorf("parse high %q: %w", v.High, err)
		}
		if b.Low, err = parseFloat(v.Low); err != nil {
			return nil, fmt.Errorf("parse low %q: %w", v.Low, err)
		}
		if b.Close, err = parseFloat(v.Close); err != nil {
			return nil, fmt.Errorf("parse close %q: %w", v.Close, err)
		}
		if b.Volume, err = parseVolume(v.Volume); err != nil {
			return nil, fmt.Errorf("parse volume %q: %w", v.Volume, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// parseVolume accepts integral volumes written either as integers or as "123.0".
func parseVolume(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	n := int64(f)
	return &n, nil
}

func (t *TwelveDataMarket) formatSymbol(s string) string {
	if t.cfg.SymbolSuffix == "" || strings.HasSuffix(s, t.cfg.SymbolSuffix) {
		return s
	}
	return s + t.cfg.SymbolSuffix
}
