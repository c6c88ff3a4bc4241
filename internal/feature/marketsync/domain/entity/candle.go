package entity

import "time"

// SeriesInterval is the only interval the sync engine stores.
const SeriesInterval = "1day"

// Candle represents one persisted daily OHLCV bar for a symbol.
type Candle struct {
	Symbol   string    // Stock ticker symbol (e.g., "7203")
	Interval string    // Always SeriesInterval for synced data
	Time     time.Time // Trading day of this bar
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
}

// Bar is one raw row returned by the provider. Any OHLCV value may be missing.
type Bar struct {
	Time   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *int64
}

// Complete reports whether every OHLCV value is present.
func (b Bar) Complete() bool {
	return b.Open != nil && b.High != nil && b.Low != nil && b.Close != nil && b.Volume != nil
}

// SeriesPayload is the provider's price history for one symbol.
type SeriesPayload struct {
	Bars []Bar
}

// Candles drops every incomplete row and converts the rest into candles for symbol.
// The result is empty when no row is usable.
func (p SeriesPayload) Candles(symbol string) []Candle {
	out := make([]Candle, 0, len(p.Bars))
	for _, b := range p.Bars {
		if !b.Complete() {
			continue
		}
		out = append(out, Candle{
			Symbol:   symbol,
			Interval: SeriesInterval,
			Time:     b.Time,
			Open:     *b.Open,
			High:     *b.High,
			Low:      *b.Low,
			Close:    *b.Close,
			Volume:   *b.Volume,
		})
	}
	return out
}
