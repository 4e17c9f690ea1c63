package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivstanko/cryptoscan/internal/models"
)

func bookSide(n int, startPrice, size float64) []models.BookLevel {
	levels := make([]models.BookLevel, n)
	for i := range levels {
		levels[i] = models.BookLevel{Price: startPrice + float64(i)*0.01, Size: size}
	}
	return levels
}

func TestDetectWhaleWallsEmptyBook(t *testing.T) {
	result := DetectWhaleWalls(nil, 20, 10.0)
	assert.Equal(t, "neutral", result.Bias)
	assert.Nil(t, result.WhaleBid)
	assert.Nil(t, result.WhaleAsk)
}

func TestDetectWhaleWallsOneSidedBook(t *testing.T) {
	book := &models.OrderBook{
		Symbol: "BTCUSDT",
		Bids:   bookSide(10, 100, 5),
	}
	result := DetectWhaleWalls(book, 20, 10.0)
	assert.Equal(t, "neutral", result.Bias)
	assert.Nil(t, result.WhaleBid)
	assert.Nil(t, result.WhaleAsk)
}

func TestDetectWhaleWallsBullishWall(t *testing.T) {
	bids := bookSide(10, 100, 5)
	bids[3].Size = 100 // 20x the peer average
	book := &models.OrderBook{
		Symbol: "BTCUSDT",
		Bids:   bids,
		Asks:   bookSide(10, 100.2, 5),
	}

	result := DetectWhaleWalls(book, 20, 5.0)
	assert.Equal(t, "bullish", result.Bias)
	require.NotNil(t, result.WhaleBid)
	assert.Equal(t, 100.0, result.WhaleBid.Size)
	assert.Nil(t, result.WhaleAsk)
	assert.Equal(t, 1, result.BidCount)
	assert.Equal(t, 0, result.AskCount)
}

func TestDetectWhaleWallsBalancedWalls(t *testing.T) {
	bids := bookSide(10, 100, 5)
	asks := bookSide(10, 100.2, 5)
	bids[0].Size = 200
	asks[0].Size = 200
	book := &models.OrderBook{Symbol: "ETHUSDT", Bids: bids, Asks: asks}

	result := DetectWhaleWalls(book, 20, 5.0)
	assert.Equal(t, "neutral", result.Bias)
	assert.NotNil(t, result.WhaleBid)
	assert.NotNil(t, result.WhaleAsk)
}

func TestDetectWhaleWallsRespectsDepth(t *testing.T) {
	bids := bookSide(30, 100, 5)
	bids[25].Size = 500 // beyond the inspected depth
	book := &models.OrderBook{
		Symbol: "BTCUSDT",
		Bids:   bids,
		Asks:   bookSide(30, 100.3, 5),
	}

	result := DetectWhaleWalls(book, 20, 5.0)
	assert.Equal(t, "neutral", result.Bias)
	assert.Nil(t, result.WhaleBid)
}
