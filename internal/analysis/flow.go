package analysis

import (
	"math"

	"github.com/ivstanko/cryptoscan/internal/models"
)

// Auxiliary market-context features. Each returns a neutral default on
// missing data so a failed fetch degrades the analysis instead of
// aborting it.

const (
	flowDominanceRatio  = 1.2
	fundingHotThreshold = 0.0005
	liqSqueezeRatio     = 2.0
)

// OIStatus compares the two most recent open-interest points and
// reports rising, falling or flat.
func OIStatus(points []models.OpenInterestPoint) string {
	if len(points) < 2 {
		return "flat"
	}
	now := points[len(points)-1].Value
	prev := points[len(points)-2].Value
	switch {
	case now > prev:
		return "rising"
	case now < prev:
		return "falling"
	}
	return "flat"
}

// FundingBias labels an extreme funding rate as a crowding signal.
func FundingBias(rate float64) string {
	switch {
	case rate > fundingHotThreshold:
		return "overheated_longs"
	case rate < -fundingHotThreshold:
		return "overheated_shorts"
	}
	return "balanced"
}

// InterpretLiquidations compares forced-close volume per side. A side
// being liquidated twice as hard as the other reads as a squeeze.
func InterpretLiquidations(liqs []models.Liquidation) string {
	if len(liqs) == 0 {
		return "calm"
	}
	var longVolume, shortVolume float64
	for _, l := range liqs {
		// A liquidated long is closed by a forced sell.
		if l.Side == "sell" {
			longVolume += l.Size * l.Price
		} else {
			shortVolume += l.Size * l.Price
		}
	}
	switch {
	case longVolume > shortVolume*liqSqueezeRatio:
		return "long_squeeze"
	case shortVolume > longVolume*liqSqueezeRatio:
		return "short_squeeze"
	}
	return "mixed"
}

// FlowFromTrades weighs taker volume per side over the recent tape.
func FlowFromTrades(trades []models.Trade) string {
	buyVolume, sellVolume := sideVolumes(trades)
	switch {
	case buyVolume > sellVolume*flowDominanceRatio:
		return "aggressive_buying"
	case sellVolume > buyVolume*flowDominanceRatio:
		return "aggressive_selling"
	}
	return "balanced"
}

// DeltaFromTrades reports the sign of the net taker volume delta when
// it is meaningful relative to total traded volume.
func DeltaFromTrades(trades []models.Trade) string {
	buyVolume, sellVolume := sideVolumes(trades)
	total := buyVolume + sellVolume
	if total == 0 {
		return "neutral"
	}
	delta := buyVolume - sellVolume
	if math.Abs(delta)/total < 0.1 {
		return "neutral"
	}
	if delta > 0 {
		return "bullish"
	}
	return "bearish"
}

func sideVolumes(trades []models.Trade) (buyVolume, sellVolume float64) {
	for _, t := range trades {
		notional := t.Size * t.Price
		if t.Side == "buy" {
			buyVolume += notional
		} else {
			sellVolume += notional
		}
	}
	return buyVolume, sellVolume
}
