package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivstanko/cryptoscan/internal/models"
)

type fakeClient struct {
	mu         sync.Mutex
	klineCalls int
	klineErr   error
	candles    models.Candles
}

func (f *fakeClient) FetchTickers(ctx context.Context) ([]models.Ticker, error) {
	return nil, nil
}

func (f *fakeClient) FetchKlines(ctx context.Context, symbol, interval string, limit int) (models.Candles, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.klineCalls++
	if f.klineErr != nil {
		return nil, f.klineErr
	}
	return f.candles, nil
}

func (f *fakeClient) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	return &models.OrderBook{Symbol: symbol}, nil
}

func (f *fakeClient) FetchRecentTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	return nil, nil
}

func (f *fakeClient) FetchOpenInterest(ctx context.Context, symbol string) ([]models.OpenInterestPoint, error) {
	return nil, nil
}

func (f *fakeClient) FetchFundingRate(ctx context.Context, symbol string) (float64, error) {
	return 0, nil
}

func (f *fakeClient) FetchLiquidations(ctx context.Context, symbol string) ([]models.Liquidation, error) {
	return nil, nil
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.klineCalls
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestKlineCacheHitWithinTTL(t *testing.T) {
	client := &fakeClient{candles: models.Candles{{Close: 100}}}
	cache := NewKlineCache(client, 60*time.Second, testLogger())

	now := time.Unix(1_700_000_000, 0)
	cache.now = func() time.Time { return now }

	first, err := cache.Get(context.Background(), "BTCUSDT", "1", 120)
	require.NoError(t, err)
	require.Len(t, first, 1)

	now = now.Add(30 * time.Second)
	second, err := cache.Get(context.Background(), "BTCUSDT", "1", 120)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.calls())
}

func TestKlineCacheExpiry(t *testing.T) {
	client := &fakeClient{candles: models.Candles{{Close: 100}}}
	cache := NewKlineCache(client, 60*time.Second, testLogger())

	now := time.Unix(1_700_000_000, 0)
	cache.now = func() time.Time { return now }

	_, err := cache.Get(context.Background(), "BTCUSDT", "1", 120)
	require.NoError(t, err)

	now = now.Add(61 * time.Second)
	_, err = cache.Get(context.Background(), "BTCUSDT", "1", 120)
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls())
}

func TestKlineCacheKeyIncludesIntervalAndLimit(t *testing.T) {
	client := &fakeClient{candles: models.Candles{{Close: 100}}}
	cache := NewKlineCache(client, 60*time.Second, testLogger())

	ctx := context.Background()
	_, err := cache.Get(ctx, "BTCUSDT", "1", 120)
	require.NoError(t, err)
	_, err = cache.Get(ctx, "BTCUSDT", "15", 96)
	require.NoError(t, err)
	_, err = cache.Get(ctx, "BTCUSDT", "1", 96)
	require.NoError(t, err)

	assert.Equal(t, 3, client.calls())
	assert.Equal(t, 3, cache.Len())
}

func TestKlineCacheErrorLeavesCacheUntouched(t *testing.T) {
	client := &fakeClient{klineErr: errors.New("connection refused")}
	cache := NewKlineCache(client, 60*time.Second, testLogger())

	_, err := cache.Get(context.Background(), "BTCUSDT", "1", 120)
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())

	// A later successful fetch populates the cache normally.
	client.mu.Lock()
	client.klineErr = nil
	client.candles = models.Candles{{Close: 50}}
	client.mu.Unlock()

	out, err := cache.Get(context.Background(), "BTCUSDT", "1", 120)
	require.NoError(t, err)
	assert.Equal(t, 50.0, out[0].Close)
	assert.Equal(t, 1, cache.Len())
}

func TestKlineCacheCleanupDropsStaleEntries(t *testing.T) {
	client := &fakeClient{candles: models.Candles{{Close: 1}}}
	cache := NewKlineCache(client, 60*time.Second, testLogger())

	now := time.Unix(1_700_000_000, 0)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < cacheCleanupThreshold; i++ {
		_, err := cache.Get(ctx, fmt.Sprintf("SYM%dUSDT", i), "1", 120)
		require.NoError(t, err)
	}
	require.Equal(t, cacheCleanupThreshold, cache.Len())

	// Everything above is now older than twice the TTL; the next insert
	// crosses the size threshold and sweeps them out.
	now = now.Add(3 * time.Minute)
	_, err := cache.Get(ctx, "FRESHUSDT", "1", 120)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())
}
