package models

import "time"

// SignalType classifies a detected market event.
type SignalType string

const (
	SignalBigPump         SignalType = "BIG_PUMP"
	SignalBigDump         SignalType = "BIG_DUMP"
	SignalReversalBullish SignalType = "REVERSAL_BULLISH"
	SignalReversalBearish SignalType = "REVERSAL_BEARISH"
)

// SignalFamily groups signal types for win-rate statistics.
type SignalFamily string

const (
	FamilyPump     SignalFamily = "pump"
	FamilyDump     SignalFamily = "dump"
	FamilyReversal SignalFamily = "reversal"
)

// IsBullish reports whether the signal expects price to rise.
func (t SignalType) IsBullish() bool {
	return t == SignalBigPump || t == SignalReversalBullish
}

// IsBearish reports whether the signal expects price to fall.
func (t SignalType) IsBearish() bool {
	return t == SignalBigDump || t == SignalReversalBearish
}

// IsBreakout reports whether the signal is a pump/dump breakout event.
func (t SignalType) IsBreakout() bool {
	return t == SignalBigPump || t == SignalBigDump
}

// IsReversal reports whether the signal is a reversal event.
func (t SignalType) IsReversal() bool {
	return t == SignalReversalBullish || t == SignalReversalBearish
}

// Family returns the statistics bucket for the signal type.
func (t SignalType) Family() SignalFamily {
	switch t {
	case SignalBigPump:
		return FamilyPump
	case SignalBigDump:
		return FamilyDump
	default:
		return FamilyReversal
	}
}

// Emoji returns the marker used in operator messages.
func (t SignalType) Emoji() string {
	switch t {
	case SignalBigPump:
		return "🚀"
	case SignalBigDump:
		return "💥"
	default:
		return "🔵"
	}
}

// VolumeProfile summarises where traded volume concentrated over a window.
// POC and VPOC are nil when the window is too short or has no price range.
type VolumeProfile struct {
	POC              *float64  `json:"poc"`
	VPOC             *float64  `json:"vpoc"`
	HighVolumeLevels []float64 `json:"high_volume_levels"`
}

// WhaleActivity describes unusually large resting orders in the book.
type WhaleActivity struct {
	WhaleBid *BookLevel `json:"whale_bid"`
	WhaleAsk *BookLevel `json:"whale_ask"`
	Bias     string     `json:"bias"` // bullish / bearish / neutral
	BidCount int        `json:"bid_count"`
	AskCount int        `json:"ask_count"`
}

// PositionSizing is the risk block attached to a scored signal. All fields
// are rounded for display; sizing decisions upstream of rounding use the
// unrounded intermediates.
type PositionSizing struct {
	PositionSizeUSDT  float64 `json:"position_size_usdt"`
	SLDistancePercent float64 `json:"sl_distance_percent"`
	TPConservativePct float64 `json:"tp_conservative_percent"`
	TPAggressivePct   float64 `json:"tp_aggressive_percent"`
	RiskAmountUSDT    float64 `json:"risk_amount_usdt"`
	QualityScore      float64 `json:"quality_score"`
}

// TradeLevels are ATR-derived exit levels for a signal.
type TradeLevels struct {
	StopLoss    float64 `json:"stop_loss"`
	TakeProfit1 float64 `json:"take_profit_1"`
	TakeProfit2 float64 `json:"take_profit_2"`
}

// RegimeLabel classifies a symbol's own behaviour.
type RegimeLabel struct {
	Regime   string  `json:"regime"`
	Strength float64 `json:"strength"`
}

// MarketContext summarises the broad market backdrop.
type MarketContext struct {
	MarketRegime string `json:"market_regime"`
	Risk         string `json:"risk"`
}

// VolatilityCluster buckets a symbol's current volatility.
type VolatilityCluster struct {
	Cluster         string  `json:"cluster"`
	VolatilityScore float64 `json:"volatility_score"`
}

// MemoryContext echoes a symbol's learned behavioural profile.
type MemoryContext struct {
	Regime          string  `json:"regime"`
	PumpProbability float64 `json:"pump_probability"`
	DumpProbability float64 `json:"dump_probability"`
}

// Signal is a fully scored candidate event for one symbol in one scan
// cycle. It is rebuilt from scratch every cycle; only the cycle's best
// candidate per symbol leaves the analyzer, and only as a derived
// SignalPerformance record does any of it persist.
type Signal struct {
	Symbol     string     `json:"symbol"`
	Type       SignalType `json:"type"`
	Price      float64    `json:"price"`
	Rating     int        `json:"rating"`
	Confidence float64    `json:"confidence"`

	TrendScore int `json:"trend_score"`
	RiskScore  int `json:"risk_score"`
	Trend15m   int `json:"trend_15m"`
	Trend1h    int `json:"trend_1h"`
	Trend4h    int `json:"trend_4h"`

	OIStatus    string  `json:"oi_status"` // rising / falling / flat
	FundingRate float64 `json:"funding_rate"`
	LiqStatus   string  `json:"liq_status"`
	FlowStatus  string  `json:"flow_status"`
	DeltaStatus string  `json:"delta_status"`

	LiquidityBias     string        `json:"liquidity_bias"`
	LiquidityStrong   *float64      `json:"liquidity_strongest_zone"`
	LiquidityVacUp    bool          `json:"liquidity_vacuum_up"`
	LiquidityVacDown  bool          `json:"liquidity_vacuum_down"`
	VolumeProfileInfo VolumeProfile `json:"volume_profile"`
	WhaleInfo         WhaleActivity `json:"whale_activity"`

	// Labels adopted verbatim from the multi-factor filter.
	SymbolRegime RegimeLabel        `json:"symbol_regime"`
	MarketCtx    MarketContext      `json:"market_ctx"`
	VolCluster   VolatilityCluster  `json:"vol_cluster"`
	MemoryCtx    MemoryContext      `json:"memory_ctx"`
	Weights      map[string]float64 `json:"weights,omitempty"`

	Levels TradeLevels    `json:"levels"`
	Sizing PositionSizing `json:"position_sizing"`
	ATR    float64        `json:"atr"`

	SignalID  string    `json:"signal_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
