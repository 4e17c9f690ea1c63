package services

import (
	"github.com/ivstanko/cryptoscan/internal/models"
)

// LiquidityMap summarises resting book liquidity around the current
// price: which side is heavier, the single densest level, and whether
// either direction is a vacuum with little resistance.
type LiquidityMap struct {
	Bias          string
	StrongestZone *float64
	VacuumUp      bool
	VacuumDown    bool
}

const (
	liquidityBiasRatio   = 1.3
	liquidityVacuumShare = 0.25
)

// BuildLiquidityMap reads near-book notional depth per side. A side
// carrying notably more notional sets the bias; a side holding under a
// quarter of total depth is a vacuum the price can slide into.
func BuildLiquidityMap(book *models.OrderBook, lastPrice float64) LiquidityMap {
	result := LiquidityMap{Bias: "neutral"}
	if book == nil || (len(book.Bids) == 0 && len(book.Asks) == 0) || lastPrice <= 0 {
		return result
	}

	notional := func(levels []models.BookLevel) (total float64, strongest *models.BookLevel) {
		for i := range levels {
			value := levels[i].Price * levels[i].Size
			total += value
			if strongest == nil || value > strongest.Price*strongest.Size {
				strongest = &levels[i]
			}
		}
		return total, strongest
	}

	bidDepth, strongestBid := notional(book.Bids)
	askDepth, strongestAsk := notional(book.Asks)
	total := bidDepth + askDepth
	if total == 0 {
		return result
	}

	if bidDepth > askDepth*liquidityBiasRatio {
		result.Bias = "bullish"
	} else if askDepth > bidDepth*liquidityBiasRatio {
		result.Bias = "bearish"
	}

	strongest := strongestBid
	if strongestAsk != nil && (strongest == nil ||
		strongestAsk.Price*strongestAsk.Size > strongest.Price*strongest.Size) {
		strongest = strongestAsk
	}
	if strongest != nil {
		zone := strongest.Price
		result.StrongestZone = &zone
	}

	result.VacuumUp = askDepth/total < liquidityVacuumShare
	result.VacuumDown = bidDepth/total < liquidityVacuumShare

	return result
}
