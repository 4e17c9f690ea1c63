package models

// Candle represents a single OHLCV bar. Upstream kline endpoints return
// candles newest-first; every consumer in this codebase assumes that
// ordering (index 0 is the most recent bar).
type Candle struct {
	OpenTime int64   `json:"open_time"` // milliseconds
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// Candles is a newest-first series of bars.
type Candles []Candle

// Closes extracts close prices, preserving newest-first order.
func (c Candles) Closes() []float64 {
	out := make([]float64, len(c))
	for i, k := range c {
		out[i] = k.Close
	}
	return out
}

// Highs extracts high prices, preserving newest-first order.
func (c Candles) Highs() []float64 {
	out := make([]float64, len(c))
	for i, k := range c {
		out[i] = k.High
	}
	return out
}

// Lows extracts low prices, preserving newest-first order.
func (c Candles) Lows() []float64 {
	out := make([]float64, len(c))
	for i, k := range c {
		out[i] = k.Low
	}
	return out
}

// Volumes extracts volumes, preserving newest-first order.
func (c Candles) Volumes() []float64 {
	out := make([]float64, len(c))
	for i, k := range c {
		out[i] = k.Volume
	}
	return out
}

// LastPrice returns the close of the most recent bar, or 0 when empty.
func (c Candles) LastPrice() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[0].Close
}

// Ticker is a 24h market summary row for one symbol.
type Ticker struct {
	Symbol           string  `json:"symbol"`
	LastPrice        float64 `json:"last_price"`
	Turnover24h      float64 `json:"turnover_24h"`
	PriceChange24hPc float64 `json:"price_change_24h_pc"`
}

// BookLevel is one price level of an order book side.
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook holds both book sides, best price first.
type OrderBook struct {
	Symbol string      `json:"symbol"`
	Bids   []BookLevel `json:"bids"`
	Asks   []BookLevel `json:"asks"`
}

// Trade is a single public trade, newest-first in upstream responses.
type Trade struct {
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Side      string  `json:"side"` // "buy" or "sell" (taker side)
	Timestamp int64   `json:"timestamp"` // milliseconds
}

// OpenInterestPoint is one sample of an open-interest history series,
// oldest-first so the last element is the current reading.
type OpenInterestPoint struct {
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"` // milliseconds
}

// Liquidation is a single forced-liquidation event.
type Liquidation struct {
	Side  string  `json:"side"`
	Size  float64 `json:"size"`
	Price float64 `json:"price"`
}
