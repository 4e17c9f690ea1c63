package analysis

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"

	"github.com/ivstanko/cryptoscan/internal/models"
)

const (
	emaFastPeriod = 9
	emaSlowPeriod = 21
	rsiPeriod     = 14
	atrPeriod     = 14
)

// chronological flips a newest-first series into oldest-first order,
// which is what the streaming indicators expect.
func chronological(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}

func lastEMA(prices []float64, period int) (float64, bool) {
	if len(prices) < period {
		return 0, false
	}
	emaIndicator := trend.NewEmaWithPeriod[float64](period)
	result := helper.ChanToSlice(emaIndicator.Compute(helper.SliceToChan(prices)))
	if len(result) == 0 {
		return 0, false
	}
	return result[len(result)-1], true
}

func lastRSI(prices []float64, period int) (float64, bool) {
	if len(prices) < period+1 {
		return 0, false
	}
	rsiIndicator := momentum.NewRsiWithPeriod[float64](period)
	result := helper.ChanToSlice(rsiIndicator.Compute(helper.SliceToChan(prices)))
	if len(result) == 0 {
		return 0, false
	}
	return result[len(result)-1], true
}

// TrendScore grades short-term directional pressure on a -10..10 scale
// from newest-first 1-minute closes and volumes. Positive values mean
// bullish pressure.
func TrendScore(closes, volumes []float64) int {
	if len(closes) < emaSlowPeriod+1 {
		return 0
	}
	prices := chronological(closes)

	score := 0

	// Percent change over the trailing half hour.
	lookback := 30
	if lookback >= len(prices) {
		lookback = len(prices) - 1
	}
	ref := prices[len(prices)-1-lookback]
	if ref > 0 {
		changePct := (prices[len(prices)-1] - ref) / ref * 100
		switch {
		case changePct > 2:
			score += 4
		case changePct > 0.7:
			score += 2
		case changePct < -2:
			score -= 4
		case changePct < -0.7:
			score -= 2
		}
	}

	fast, okFast := lastEMA(prices, emaFastPeriod)
	slow, okSlow := lastEMA(prices, emaSlowPeriod)
	if okFast && okSlow {
		if fast > slow {
			score += 3
		} else if fast < slow {
			score -= 3
		}
	}

	if rsi, ok := lastRSI(prices, rsiPeriod); ok {
		if rsi > 60 {
			score += 2
		} else if rsi < 40 {
			score -= 2
		}
	}

	// Rising volume confirms the move in either direction.
	if len(volumes) >= 40 {
		recent := mean(volumes[:10])
		prior := mean(volumes[10:40])
		if prior > 0 && recent > prior*1.3 {
			if score > 0 {
				score++
			} else if score < 0 {
				score--
			}
		}
	}

	return clampInt(score, -10, 10)
}

// RiskScore grades how hostile current conditions are to a new position
// on a 0..10 scale from newest-first 1-minute closes and volumes.
func RiskScore(closes, volumes []float64) int {
	if len(closes) < 31 {
		return 5
	}
	prices := chronological(closes)

	score := 0

	// Realized volatility of the last 30 one-minute returns.
	returns := make([]float64, 0, 30)
	for i := len(prices) - 30; i < len(prices); i++ {
		if prices[i-1] > 0 {
			returns = append(returns, (prices[i]-prices[i-1])/prices[i-1]*100)
		}
	}
	vol := stddev(returns)
	switch {
	case vol > 1.5:
		score += 4
	case vol > 0.8:
		score += 2
	}

	if rsi, ok := lastRSI(prices, rsiPeriod); ok {
		if rsi > 70 || rsi < 30 {
			score += 3
		}
	}

	// A violent move in the last five bars is risky to chase.
	ref := prices[len(prices)-6]
	if ref > 0 {
		change5 := math.Abs((prices[len(prices)-1]-ref)/ref) * 100
		if change5 > 3 {
			score += 3
		}
	}

	return clampInt(score, 0, 10)
}

// HTFTrend classifies a higher-timeframe trend into one of
// {-5, -3, 0, 3, 5} from the percent change over the last 30 bars.
func HTFTrend(candles models.Candles) int {
	if len(candles) < 20 {
		return 0
	}
	closes := candles.Closes()
	refIdx := 30
	if refIdx > len(closes)-1 {
		refIdx = len(closes) - 1
	}
	ref := closes[refIdx]
	if ref <= 0 {
		return 0
	}
	changePct := (closes[0] - ref) / ref * 100
	switch {
	case changePct > 2:
		return 5
	case changePct > 0.7:
		return 3
	case changePct < -2:
		return -5
	case changePct < -0.7:
		return -3
	}
	return 0
}

// ATR returns the simple average of the last `atrPeriod` true ranges.
// Returns 0 when there are not enough candles.
func ATR(candles models.Candles) float64 {
	if len(candles) < atrPeriod+1 {
		return 0
	}

	highs := chronological(candles.Highs())
	lows := chronological(candles.Lows())
	closes := chronological(candles.Closes())

	trs := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		tr := math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		trs = append(trs, tr)
	}

	if len(trs) < atrPeriod {
		return mean(trs)
	}
	return mean(trs[len(trs)-atrPeriod:])
}

// ImpulseScore rewards a strictly monotonic run over the last three
// closes: +5 rising, -5 falling, 0 otherwise. Closes are newest-first.
func ImpulseScore(closes []float64) int {
	if len(closes) < 3 {
		return 0
	}
	c0, c1, c2 := closes[0], closes[1], closes[2]
	if c0 > c1 && c1 > c2 {
		return 5
	}
	if c0 < c1 && c1 < c2 {
		return -5
	}
	return 0
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
