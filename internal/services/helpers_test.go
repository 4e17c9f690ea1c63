package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ivstanko/cryptoscan/internal/models"
)

// stubMarketClient satisfies market.Client with overridable behaviour.
// Unset methods fail so tests notice unexpected calls.
type stubMarketClient struct {
	tickers       func(ctx context.Context) ([]models.Ticker, error)
	klines        func(ctx context.Context, symbol, interval string, limit int) (models.Candles, error)
	orderBook     func(ctx context.Context, symbol string, depth int) (*models.OrderBook, error)
	trades        func(ctx context.Context, symbol string, limit int) ([]models.Trade, error)
	openInterest  func(ctx context.Context, symbol string) ([]models.OpenInterestPoint, error)
	fundingRate   func(ctx context.Context, symbol string) (float64, error)
	liquidations  func(ctx context.Context, symbol string) ([]models.Liquidation, error)
	klineRequests atomic.Int64
}

var errStubUnset = errors.New("stub method not set")

func (s *stubMarketClient) FetchTickers(ctx context.Context) ([]models.Ticker, error) {
	if s.tickers == nil {
		return nil, errStubUnset
	}
	return s.tickers(ctx)
}

func (s *stubMarketClient) FetchKlines(ctx context.Context, symbol, interval string, limit int) (models.Candles, error) {
	s.klineRequests.Add(1)
	if s.klines == nil {
		return nil, errStubUnset
	}
	return s.klines(ctx, symbol, interval, limit)
}

func (s *stubMarketClient) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	if s.orderBook == nil {
		return nil, errStubUnset
	}
	return s.orderBook(ctx, symbol, depth)
}

func (s *stubMarketClient) FetchRecentTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	if s.trades == nil {
		return nil, errStubUnset
	}
	return s.trades(ctx, symbol, limit)
}

func (s *stubMarketClient) FetchOpenInterest(ctx context.Context, symbol string) ([]models.OpenInterestPoint, error) {
	if s.openInterest == nil {
		return nil, errStubUnset
	}
	return s.openInterest(ctx, symbol)
}

func (s *stubMarketClient) FetchFundingRate(ctx context.Context, symbol string) (float64, error) {
	if s.fundingRate == nil {
		return 0, errStubUnset
	}
	return s.fundingRate(ctx, symbol)
}

func (s *stubMarketClient) FetchLiquidations(ctx context.Context, symbol string) ([]models.Liquidation, error) {
	if s.liquidations == nil {
		return nil, errStubUnset
	}
	return s.liquidations(ctx, symbol)
}

// flatCandles builds n newest-first bars at a constant close with the
// given high/low spread around it.
func flatCandles(n int, close, spread float64) models.Candles {
	out := make(models.Candles, n)
	for i := range out {
		out[i] = models.Candle{
			OpenTime: int64(1_700_000_000_000 - i*60_000),
			Open:     close,
			High:     close + spread,
			Low:      close - spread,
			Close:    close,
			Volume:   100,
		}
	}
	return out
}

// trendingCandles builds n newest-first bars whose closes rise by step
// per bar toward the front of the slice.
func trendingCandles(n int, start, step float64) models.Candles {
	out := make(models.Candles, n)
	for i := range out {
		close := start + float64(n-1-i)*step
		out[i] = models.Candle{
			OpenTime: int64(1_700_000_000_000 - i*60_000),
			Open:     close - step,
			High:     close + step/2,
			Low:      close - step,
			Close:    close,
			Volume:   100,
		}
	}
	return out
}

func quietTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}
