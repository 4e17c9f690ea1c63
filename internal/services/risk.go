package services

import (
	"github.com/shopspring/decimal"

	"github.com/ivstanko/cryptoscan/internal/config"
	"github.com/ivstanko/cryptoscan/internal/models"
)

// roundTo fixes the displayed precision of monetary and percentage
// outputs. Internal comparisons always use the unrounded values.
func roundTo(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// PositionSize sizes a trade from signal quality and volatility. Risk
// shrinks in hostile conditions and grows slightly in calm ones.
func PositionSize(rating int, confidence, atr float64, riskScore int, cfg config.RiskConfig) models.PositionSizing {
	baseRisk := cfg.AccountSizeUSDT * cfg.RiskPerTrade
	quality := float64(rating) / 100 * confidence
	adjustedRisk := baseRisk * quality

	if riskScore > 7 {
		adjustedRisk *= 0.7
	} else if riskScore < 3 {
		adjustedRisk *= 1.2
	}

	slDistance := atr * cfg.ATRMultSL
	tpConservative := atr * cfg.ATRMultTP1
	tpAggressive := atr * cfg.ATRMultTP2

	positionSize := 0.0
	if slDistance > 0 {
		positionSize = adjustedRisk / (slDistance / 100)
	}

	return models.PositionSizing{
		PositionSizeUSDT:  roundTo(positionSize, 2),
		SLDistancePercent: roundTo(slDistance, 2),
		TPConservativePct: roundTo(tpConservative, 2),
		TPAggressivePct:   roundTo(tpAggressive, 2),
		RiskAmountUSDT:    roundTo(adjustedRisk, 2),
		QualityScore:      roundTo(quality*100, 1),
	}
}

// AttachTradeLevels computes ATR-based stop and take-profit levels and
// the position-sizing block, and fastens them to the signal. Long-type
// signals place the stop below price; short-type signals mirror it.
func AttachTradeLevels(sig *models.Signal, price, atr float64, cfg config.RiskConfig) {
	sl := atr * cfg.ATRMultSL
	tp1 := atr * cfg.ATRMultTP1
	tp2 := atr * cfg.ATRMultTP2

	if sig.Type.IsBullish() {
		sig.Levels = models.TradeLevels{
			StopLoss:    roundTo(price-sl, 4),
			TakeProfit1: roundTo(price+tp1, 4),
			TakeProfit2: roundTo(price+tp2, 4),
		}
	} else {
		sig.Levels = models.TradeLevels{
			StopLoss:    roundTo(price+sl, 4),
			TakeProfit1: roundTo(price-tp1, 4),
			TakeProfit2: roundTo(price-tp2, 4),
		}
	}

	sig.Sizing = PositionSize(sig.Rating, sig.Confidence, atr, sig.RiskScore, cfg)
}
