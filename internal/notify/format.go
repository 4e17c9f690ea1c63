package notify

import (
	"fmt"
	"strings"

	"github.com/ivstanko/cryptoscan/internal/models"
)

// FormatSignal renders the full operator alert for one signal.
func FormatSignal(s *models.Signal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s — %s\n", s.Type.Emoji(), s.Type, s.Symbol)
	fmt.Fprintf(&b, "Price: %.4f USDT\n", s.Price)
	fmt.Fprintf(&b, "Signal strength: %d/100\n", s.Rating)
	fmt.Fprintf(&b, "Confidence: %.2f\n", s.Confidence)
	fmt.Fprintf(&b, "Trend Score: %d\n", s.TrendScore)
	fmt.Fprintf(&b, "Risk Score: %d\n", s.RiskScore)
	fmt.Fprintf(&b, "HTF 15m: %d | 1h: %d | 4h: %d\n", s.Trend15m, s.Trend1h, s.Trend4h)
	fmt.Fprintf(&b, "Symbol Regime: %s (strength=%.1f)\n", s.SymbolRegime.Regime, s.SymbolRegime.Strength)
	fmt.Fprintf(&b, "Market Regime: %s | Risk: %s\n", s.MarketCtx.MarketRegime, s.MarketCtx.Risk)
	fmt.Fprintf(&b, "Vol Cluster: %s | VolScore: %.2f\n", s.VolCluster.Cluster, s.VolCluster.VolatilityScore)
	fmt.Fprintf(&b, "Symbol Memory Regime: %s | PumpProb: %.2f | DumpProb: %.2f\n",
		s.MemoryCtx.Regime, s.MemoryCtx.PumpProbability, s.MemoryCtx.DumpProbability)
	fmt.Fprintf(&b, "OI: %s\n", s.OIStatus)
	fmt.Fprintf(&b, "Funding: %.4f%% (%s)\n", s.FundingRate*100, fundingLabel(s.FundingRate))
	fmt.Fprintf(&b, "Liquidations: %s\n", s.LiqStatus)
	fmt.Fprintf(&b, "Flow: %s\n", s.FlowStatus)
	fmt.Fprintf(&b, "Delta: %s\n", s.DeltaStatus)
	fmt.Fprintf(&b, "Liquidity Bias: %s\n", s.LiquidityBias)
	if s.LiquidityStrong != nil {
		fmt.Fprintf(&b, "Strongest Zone: %.4f\n", *s.LiquidityStrong)
	} else {
		b.WriteString("Strongest Zone: n/a\n")
	}
	fmt.Fprintf(&b, "Vacuum Up: %t | Down: %t\n", s.LiquidityVacUp, s.LiquidityVacDown)

	b.WriteString("\n📊 VOLUME PROFILE:\n")
	fmt.Fprintf(&b, "POC: %s | VPOC: %s\n",
		formatOptionalPrice(s.VolumeProfileInfo.POC),
		formatOptionalPrice(s.VolumeProfileInfo.VPOC))

	b.WriteString("\n🐋 WHALE ACTIVITY:\n")
	fmt.Fprintf(&b, "Bias: %s | Walls: Bid=%d Ask=%d\n",
		s.WhaleInfo.Bias, s.WhaleInfo.BidCount, s.WhaleInfo.AskCount)

	b.WriteString("\n💰 POSITION SIZING:\n")
	fmt.Fprintf(&b, "Size: %.2f USDT\n", s.Sizing.PositionSizeUSDT)
	fmt.Fprintf(&b, "Stop Loss: %.4f (%.2f%%)\n", s.Levels.StopLoss, s.Sizing.SLDistancePercent)
	fmt.Fprintf(&b, "Take Profit 1: %.4f (%.2f%%)\n", s.Levels.TakeProfit1, s.Sizing.TPConservativePct)
	fmt.Fprintf(&b, "Take Profit 2: %.4f (%.2f%%)\n", s.Levels.TakeProfit2, s.Sizing.TPAggressivePct)
	fmt.Fprintf(&b, "Risk: %.2f USDT | Quality: %.1f\n", s.Sizing.RiskAmountUSDT, s.Sizing.QualityScore)

	return b.String()
}

// FormatDegradationAlert renders the model-degradation warning.
func FormatDegradationAlert(threshold float64, statsText string) string {
	return fmt.Sprintf(
		"⚠️ WARNING! Model is degrading!\nWin rate dropped below %.0f%%\n%s",
		threshold*100, statsText)
}

// FormatCycleError renders the degraded-cycle operator notice.
func FormatCycleError(err error) string {
	return fmt.Sprintf("⚠️ Scanner cycle failed, restarting...\n%v", err)
}

func fundingLabel(rate float64) string {
	switch {
	case rate > 0.0005:
		return "longs pay"
	case rate < -0.0005:
		return "shorts pay"
	}
	return "balanced"
}

func formatOptionalPrice(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", *v)
}
