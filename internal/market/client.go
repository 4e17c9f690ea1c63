package market

import (
	"context"

	"github.com/ivstanko/cryptoscan/internal/models"
)

// Client is the upstream market-data surface the scanner consumes. Every
// method returns parsed rows and signals transport failure through the
// error; implementations never return malformed data with a nil error.
type Client interface {
	// FetchTickers returns the 24h summary for the whole venue.
	FetchTickers(ctx context.Context) ([]models.Ticker, error)
	// FetchKlines returns up to limit candles for the interval,
	// newest-first.
	FetchKlines(ctx context.Context, symbol, interval string, limit int) (models.Candles, error)
	// FetchOrderBook returns both book sides, best price first.
	FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error)
	// FetchRecentTrades returns the latest public trades.
	FetchRecentTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error)
	// FetchOpenInterest returns an oldest-first open-interest history.
	FetchOpenInterest(ctx context.Context, symbol string) ([]models.OpenInterestPoint, error)
	// FetchFundingRate returns the current funding rate.
	FetchFundingRate(ctx context.Context, symbol string) (float64, error)
	// FetchLiquidations returns recent forced liquidations.
	FetchLiquidations(ctx context.Context, symbol string) ([]models.Liquidation, error)
}
