package detect

import (
	"github.com/ivstanko/cryptoscan/internal/models"
)

// GateChecks are the boolean preconditions handed to the multi-factor
// filter alongside the market snapshot.
type GateChecks struct {
	MinScoreOK       bool
	OINotFalling     bool
	LiqNotContraBull bool
	LiqNotContraBear bool
}

// FilterInput is the full market snapshot the filter judges a candidate
// against.
type FilterInput struct {
	Symbol        string
	BaseRating    int
	DirectionSide string
	Closes        []float64
	Candles       models.Candles
	TrendScore    int
	Trend15m      int
	Trend1h       int
	Trend4h       int
	LiquidityBias string
	RefRegime     string
	RefFactor     float64
	ATR           float64
	Price         float64
	MemoryRegime  string
	Gates         GateChecks
}

// FilterResult is adopted verbatim by the scoring pipeline.
type FilterResult struct {
	FinalRating  int
	Confidence   float64
	SymbolRegime models.RegimeLabel
	MarketCtx    models.MarketContext
	VolCluster   models.VolatilityCluster
	MemoryCtx    models.MemoryContext
	Weights      map[string]float64
}

// MultiFactorFilter is the last scoring stage before the final clamp.
type MultiFactorFilter interface {
	Apply(input FilterInput) FilterResult
}

// DefaultFilter is a deterministic filter: failed gates subtract from
// the rating, higher-timeframe agreement adds, and confidence reflects
// how many checks line up with the candidate's direction.
type DefaultFilter struct{}

func NewDefaultFilter() *DefaultFilter { return &DefaultFilter{} }

func (f *DefaultFilter) Apply(input FilterInput) FilterResult {
	rating := input.BaseRating
	confidence := 0.5
	weights := map[string]float64{
		"gates":     0.0,
		"htf_trend": 0.0,
		"liquidity": 0.0,
	}

	gatesPassed := 0
	for _, ok := range []bool{
		input.Gates.MinScoreOK,
		input.Gates.OINotFalling,
		input.Gates.LiqNotContraBull,
		input.Gates.LiqNotContraBear,
	} {
		if ok {
			gatesPassed++
		} else {
			rating -= 5
		}
	}
	confidence += 0.05 * float64(gatesPassed)
	weights["gates"] = float64(gatesPassed) / 4

	htf := input.Trend15m + input.Trend1h + input.Trend4h
	agreement := 0.0
	if input.DirectionSide == "bullish" {
		agreement = float64(htf)
	} else {
		agreement = float64(-htf)
	}
	switch {
	case agreement >= 6:
		rating += 5
		confidence += 0.15
		weights["htf_trend"] = 1.0
	case agreement >= 3:
		rating += 2
		confidence += 0.05
		weights["htf_trend"] = 0.5
	case agreement <= -6:
		rating -= 8
		confidence -= 0.15
	case agreement <= -3:
		rating -= 3
		confidence -= 0.05
	}

	if (input.DirectionSide == "bullish" && input.LiquidityBias == "bullish") ||
		(input.DirectionSide == "bearish" && input.LiquidityBias == "bearish") {
		rating += 3
		confidence += 0.05
		weights["liquidity"] = 1.0
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	volRatio := 0.0
	if input.Price > 0 {
		volRatio = input.ATR / input.Price * 100
	}

	return FilterResult{
		FinalRating:  rating,
		Confidence:   confidence,
		SymbolRegime: symbolRegime(input.TrendScore),
		MarketCtx:    marketContext(input.RefRegime),
		VolCluster:   volatilityCluster(volRatio),
		MemoryCtx:    memoryContext(input.MemoryRegime),
		Weights:      weights,
	}
}

func symbolRegime(trendScore int) models.RegimeLabel {
	strength := float64(trendScore) / 10
	if strength < 0 {
		strength = -strength
	}
	switch {
	case trendScore >= 5:
		return models.RegimeLabel{Regime: "uptrend", Strength: strength}
	case trendScore <= -5:
		return models.RegimeLabel{Regime: "downtrend", Strength: strength}
	}
	return models.RegimeLabel{Regime: "sideways", Strength: strength}
}

func marketContext(refRegime string) models.MarketContext {
	risk := "normal"
	if refRegime == "high_vol" {
		risk = "elevated"
	}
	return models.MarketContext{MarketRegime: refRegime, Risk: risk}
}

func volatilityCluster(volRatio float64) models.VolatilityCluster {
	cluster := "mid"
	switch {
	case volRatio > 0.5:
		cluster = "high"
	case volRatio < 0.1:
		cluster = "low"
	}
	return models.VolatilityCluster{Cluster: cluster, VolatilityScore: volRatio}
}

func memoryContext(memoryRegime string) models.MemoryContext {
	ctx := models.MemoryContext{Regime: memoryRegime}
	switch memoryRegime {
	case "pumpy":
		ctx.PumpProbability = 0.6
		ctx.DumpProbability = 0.2
	case "dumpy":
		ctx.PumpProbability = 0.2
		ctx.DumpProbability = 0.6
	case "mean_reverting":
		ctx.PumpProbability = 0.4
		ctx.DumpProbability = 0.4
	case "chaotic":
		ctx.PumpProbability = 0.3
		ctx.DumpProbability = 0.3
	default:
		ctx.Regime = "neutral"
		ctx.PumpProbability = 0.25
		ctx.DumpProbability = 0.25
	}
	return ctx
}
