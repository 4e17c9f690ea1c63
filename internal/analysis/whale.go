package analysis

import (
	"github.com/ivstanko/cryptoscan/internal/models"
)

const whaleBiasRatio = 1.5

// DetectWhaleWalls scans the top book levels on each side for orders
// much larger than the side's average. The bias leans toward whichever
// side carries materially more wall volume. An empty or one-sided book
// is reported as neutral with no walls.
func DetectWhaleWalls(book *models.OrderBook, depth int, thresholdMultiplier float64) models.WhaleActivity {
	neutral := models.WhaleActivity{Bias: "neutral"}
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return neutral
	}

	bids := book.Bids
	if len(bids) > depth {
		bids = bids[:depth]
	}
	asks := book.Asks
	if len(asks) > depth {
		asks = asks[:depth]
	}

	avgSize := func(levels []models.BookLevel) float64 {
		sum := 0.0
		for _, l := range levels {
			sum += l.Size
		}
		return sum / float64(len(levels))
	}
	avgBid := avgSize(bids)
	avgAsk := avgSize(asks)

	walls := func(levels []models.BookLevel, avg float64) ([]models.BookLevel, float64) {
		var found []models.BookLevel
		total := 0.0
		for _, l := range levels {
			if l.Size > avg*thresholdMultiplier {
				found = append(found, l)
				total += l.Size
			}
		}
		return found, total
	}
	whaleBids, bidVolume := walls(bids, avgBid)
	whaleAsks, askVolume := walls(asks, avgAsk)

	bias := "neutral"
	if bidVolume > askVolume*whaleBiasRatio {
		bias = "bullish"
	} else if askVolume > bidVolume*whaleBiasRatio {
		bias = "bearish"
	}

	result := models.WhaleActivity{
		Bias:     bias,
		BidCount: len(whaleBids),
		AskCount: len(whaleAsks),
	}
	if len(whaleBids) > 0 {
		result.WhaleBid = &whaleBids[0]
	}
	if len(whaleAsks) > 0 {
		result.WhaleAsk = &whaleAsks[0]
	}
	return result
}
