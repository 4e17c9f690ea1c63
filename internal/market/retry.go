package market

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivstanko/cryptoscan/internal/models"
	"github.com/ivstanko/cryptoscan/internal/utils"
)

// RetryClient wraps a Client with per-call timeouts and bounded retries.
// Each attempt gets its own timeout; after the last attempt fails the
// error is categorized and returned.
type RetryClient struct {
	inner      Client
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *logrus.Logger
}

func NewRetryClient(inner Client, timeout time.Duration, maxRetries int, retryDelay time.Duration, logger *logrus.Logger) *RetryClient {
	return &RetryClient{
		inner:      inner,
		timeout:    timeout,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// do runs op up to maxRetries times with a fixed delay between attempts.
// A context cancellation stops retrying immediately.
func (r *RetryClient) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt < r.maxRetries {
			r.logger.WithFields(logrus.Fields{
				"operation": op,
				"attempt":   attempt,
				"error":     err.Error(),
			}).Warn("Request failed, retrying")

			select {
			case <-time.After(r.retryDelay):
			case <-ctx.Done():
				return utils.NewCategorizedError(utils.CategoryNetwork, op, ctx.Err())
			}
		}
	}
	return utils.NewCategorizedError(utils.Categorize(lastErr), op, lastErr)
}

func (r *RetryClient) FetchTickers(ctx context.Context) ([]models.Ticker, error) {
	var out []models.Ticker
	err := r.do(ctx, "fetch_tickers", func(ctx context.Context) error {
		var err error
		out, err = r.inner.FetchTickers(ctx)
		return err
	})
	return out, err
}

func (r *RetryClient) FetchKlines(ctx context.Context, symbol, interval string, limit int) (models.Candles, error) {
	var out models.Candles
	err := r.do(ctx, "fetch_klines "+symbol, func(ctx context.Context) error {
		var err error
		out, err = r.inner.FetchKlines(ctx, symbol, interval, limit)
		return err
	})
	return out, err
}

func (r *RetryClient) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	var out *models.OrderBook
	err := r.do(ctx, "fetch_order_book "+symbol, func(ctx context.Context) error {
		var err error
		out, err = r.inner.FetchOrderBook(ctx, symbol, depth)
		return err
	})
	return out, err
}

func (r *RetryClient) FetchRecentTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	var out []models.Trade
	err := r.do(ctx, "fetch_recent_trades "+symbol, func(ctx context.Context) error {
		var err error
		out, err = r.inner.FetchRecentTrades(ctx, symbol, limit)
		return err
	})
	return out, err
}

func (r *RetryClient) FetchOpenInterest(ctx context.Context, symbol string) ([]models.OpenInterestPoint, error) {
	var out []models.OpenInterestPoint
	err := r.do(ctx, "fetch_open_interest "+symbol, func(ctx context.Context) error {
		var err error
		out, err = r.inner.FetchOpenInterest(ctx, symbol)
		return err
	})
	return out, err
}

func (r *RetryClient) FetchFundingRate(ctx context.Context, symbol string) (float64, error) {
	var out float64
	err := r.do(ctx, "fetch_funding_rate "+symbol, func(ctx context.Context) error {
		var err error
		out, err = r.inner.FetchFundingRate(ctx, symbol)
		return err
	})
	return out, err
}

func (r *RetryClient) FetchLiquidations(ctx context.Context, symbol string) ([]models.Liquidation, error) {
	var out []models.Liquidation
	err := r.do(ctx, "fetch_liquidations "+symbol, func(ctx context.Context) error {
		var err error
		out, err = r.inner.FetchLiquidations(ctx, symbol)
		return err
	})
	return out, err
}
