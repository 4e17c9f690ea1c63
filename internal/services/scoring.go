package services

import (
	"math"

	"github.com/ivstanko/cryptoscan/internal/config"
	"github.com/ivstanko/cryptoscan/internal/detect"
	"github.com/ivstanko/cryptoscan/internal/models"
)

// ContextSnapshot bundles the auxiliary features used for the
// context-based rating adjustment.
type ContextSnapshot struct {
	OIStatus   string
	Funding    float64
	LiqStatus  string
	FlowStatus string
	DeltaState string
	TrendScore int
	RiskScore  int
}

// AdjustRatingWithContext nudges a raw detection rating by how well
// the surrounding market agrees with the candidate's direction.
func AdjustRatingWithContext(rating int, sigType models.SignalType, snap ContextSnapshot) int {
	adj := 0
	bullish := sigType.IsBullish()

	switch snap.OIStatus {
	case "rising":
		if bullish {
			adj += 3
		} else {
			adj -= 2
		}
	case "falling":
		if bullish {
			adj -= 3
		} else {
			adj += 2
		}
	}

	// Crowded positioning works against the crowd's direction.
	if snap.Funding > 0.0005 {
		if bullish {
			adj -= 2
		} else {
			adj += 2
		}
	} else if snap.Funding < -0.0005 {
		if bullish {
			adj += 2
		} else {
			adj -= 2
		}
	}

	switch snap.LiqStatus {
	case "short_squeeze":
		if bullish {
			adj += 3
		} else {
			adj -= 3
		}
	case "long_squeeze":
		if bullish {
			adj -= 3
		} else {
			adj += 3
		}
	}

	switch snap.FlowStatus {
	case "aggressive_buying":
		if bullish {
			adj += 3
		} else {
			adj -= 3
		}
	case "aggressive_selling":
		if bullish {
			adj -= 3
		} else {
			adj += 3
		}
	}

	switch snap.DeltaState {
	case "bullish":
		if bullish {
			adj += 2
		} else {
			adj -= 2
		}
	case "bearish":
		if bullish {
			adj -= 2
		} else {
			adj += 2
		}
	}

	if snap.TrendScore > 5 {
		if bullish {
			adj += 2
		} else {
			adj -= 3
		}
	} else if snap.TrendScore < -5 {
		if bullish {
			adj -= 3
		} else {
			adj += 2
		}
	}

	if snap.RiskScore > 7 {
		adj -= 3
	}

	return rating + adj
}

// ReversalAdjustment applies geometry micro-filters to a reversal
// candidate: confirmation bars add, contradiction subtracts, a shallow
// retest on fading volume and a tight double-bottom or double-top add.
// Series are newest-first.
func ReversalAdjustment(sigType models.SignalType, closes, highs, lows, volumes []float64, deltaStatus string) int {
	if len(closes) < 5 || len(highs) < 2 || len(lows) < 2 || len(volumes) < 2 {
		return 0
	}

	c0, c1, c2 := closes[0], closes[1], closes[2]
	h0, h1 := highs[0], highs[1]
	l0, l1 := lows[0], lows[1]
	v0, v1 := volumes[0], volumes[1]

	adj := 0
	bullish := sigType.IsBullish()
	bearish := sigType.IsBearish()

	pct := func(a, b float64) float64 {
		return (a - b) / math.Max(b, 1e-7) * 100
	}

	if bullish {
		if c0 > c1 && pct(c0, c1) > 0.2 {
			adj += 7
		}
		if c0 < c1 && pct(c1, c0) > 0.2 {
			adj -= 5
		}
	}
	if bearish {
		if c0 < c1 && pct(c1, c0) > 0.2 {
			adj += 7
		}
		if c0 > c1 && pct(c0, c1) > 0.2 {
			adj -= 5
		}
	}

	// A shallow probe past the prior extreme on fading volume reads as
	// a failed continuation.
	if bearish && h0 > h1 {
		diff := pct(h0, h1)
		if diff > 0.1 && diff < 0.4 && v0 < v1 {
			adj += 5
		}
	}
	if bullish && l0 < l1 {
		diff := pct(l1, l0)
		if diff > 0.1 && diff < 0.4 && v0 < v1 {
			adj += 5
		}
	}

	if bullish {
		switch deltaStatus {
		case "bullish":
			adj += 3
		case "bearish":
			adj -= 3
		}
	}
	if bearish {
		switch deltaStatus {
		case "bearish":
			adj += 3
		case "bullish":
			adj -= 3
		}
	}

	// Tight double-bottom or double-top around the middle bar.
	if bullish && c2 > c1 && c0 > c1 {
		if math.Abs(c1-c2)/math.Max(c2, 1e-7)*100 < 0.6 {
			adj += 5
		}
	}
	if bearish && c2 < c1 && c0 < c1 {
		if math.Abs(c1-c2)/math.Max(c2, 1e-7)*100 < 0.6 {
			adj += 5
		}
	}

	return adj
}

// ScoringInput carries a surviving candidate plus everything the
// pipeline needs to finish scoring it.
type ScoringInput struct {
	Candidate        *models.Signal
	Impulse          int
	Ref              RefContext
	MemoryRegime     string
	OIStatus         string
	LiquidityBias    string
	AdaptiveMinScore int
	Closes           []float64
	Candles          models.Candles
	ATR              float64
}

// ScoringPipeline turns a context-adjusted raw candidate into a final
// scored signal. The step order is fixed: impulse, reference factor,
// regime multipliers, memory bias, multi-factor filter, clamp, levels.
type ScoringPipeline struct {
	filter detect.MultiFactorFilter
	risk   config.RiskConfig
}

func NewScoringPipeline(filter detect.MultiFactorFilter, risk config.RiskConfig) *ScoringPipeline {
	return &ScoringPipeline{filter: filter, risk: risk}
}

func (p *ScoringPipeline) Score(in ScoringInput) {
	sig := in.Candidate
	base := float64(sig.Rating)

	base += float64(in.Impulse)
	base *= in.Ref.Factor

	switch in.Ref.Regime {
	case "trending":
		if sig.Type.IsBreakout() {
			base *= 1.05
		}
	case "ranging":
		if sig.Type.IsReversal() {
			base *= 1.07
		}
	case "high_vol":
		base *= 0.9
	}

	switch {
	case in.MemoryRegime == "pumpy" && sig.Type.Family() == models.FamilyPump:
		base += 10
	case in.MemoryRegime == "dumpy" && sig.Type.Family() == models.FamilyDump:
		base += 10
	case in.MemoryRegime == "mean_reverting" && sig.Type.IsReversal():
		base += 8
	}
	if in.MemoryRegime == "chaotic" {
		base -= 12
	}

	direction := "bearish"
	if sig.Type.IsBullish() {
		direction = "bullish"
	}

	gates := detect.GateChecks{
		MinScoreOK:       base >= float64(in.AdaptiveMinScore),
		OINotFalling:     in.OIStatus != "falling",
		LiqNotContraBull: !(direction == "bullish" && in.LiquidityBias == "bearish"),
		LiqNotContraBear: !(direction == "bearish" && in.LiquidityBias == "bullish"),
	}

	result := p.filter.Apply(detect.FilterInput{
		Symbol:        sig.Symbol,
		BaseRating:    int(base),
		DirectionSide: direction,
		Closes:        in.Closes,
		Candles:       in.Candles,
		TrendScore:    sig.TrendScore,
		Trend15m:      sig.Trend15m,
		Trend1h:       sig.Trend1h,
		Trend4h:       sig.Trend4h,
		LiquidityBias: in.LiquidityBias,
		RefRegime:     in.Ref.Regime,
		RefFactor:     in.Ref.Factor,
		ATR:           in.ATR,
		Price:         sig.Price,
		MemoryRegime:  in.MemoryRegime,
		Gates:         gates,
	})

	sig.Rating = result.FinalRating
	sig.Confidence = result.Confidence
	sig.SymbolRegime = result.SymbolRegime
	sig.MarketCtx = result.MarketCtx
	sig.VolCluster = result.VolCluster
	sig.MemoryCtx = result.MemoryCtx
	sig.Weights = result.Weights

	if sig.Rating < 0 {
		sig.Rating = 0
	}
	if sig.Rating > 100 {
		sig.Rating = 100
	}

	sig.ATR = in.ATR
	AttachTradeLevels(sig, sig.Price, in.ATR, p.risk)
}
