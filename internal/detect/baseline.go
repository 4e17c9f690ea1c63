package detect

import (
	"math"

	"github.com/ivstanko/cryptoscan/internal/models"
)

const (
	breakoutLookback   = 5
	breakoutMinMovePct = 1.5
	breakoutMinVolX    = 2.0
	reversalLookback   = 15
	reversalMinMovePct = 2.0
)

// BaselinePump flags a sharp upside move on surging volume over the
// last few 1-minute bars.
type BaselinePump struct{}

func NewBaselinePump() *BaselinePump { return &BaselinePump{} }

func (d *BaselinePump) Detect(candles models.Candles) Detection {
	movePct, volX, ok := breakoutShape(candles)
	if !ok || movePct < breakoutMinMovePct || volX < breakoutMinVolX {
		return Detection{}
	}
	return Detection{Detected: true, Rating: breakoutRating(movePct, volX)}
}

// BaselineDump mirrors BaselinePump for downside breaks.
type BaselineDump struct{}

func NewBaselineDump() *BaselineDump { return &BaselineDump{} }

func (d *BaselineDump) Detect(candles models.Candles) Detection {
	movePct, volX, ok := breakoutShape(candles)
	if !ok || movePct > -breakoutMinMovePct || volX < breakoutMinVolX {
		return Detection{}
	}
	return Detection{Detected: true, Rating: breakoutRating(-movePct, volX)}
}

// breakoutShape measures the percent move over the recent window and
// how the window's volume compares to the preceding baseline.
func breakoutShape(candles models.Candles) (movePct, volX float64, ok bool) {
	if len(candles) < breakoutLookback+20 {
		return 0, 0, false
	}
	closes := candles.Closes()
	volumes := candles.Volumes()

	ref := closes[breakoutLookback]
	if ref <= 0 {
		return 0, 0, false
	}
	movePct = (closes[0] - ref) / ref * 100

	recentVol := 0.0
	for _, v := range volumes[:breakoutLookback] {
		recentVol += v
	}
	recentVol /= breakoutLookback

	baselineVol := 0.0
	for _, v := range volumes[breakoutLookback : breakoutLookback+20] {
		baselineVol += v
	}
	baselineVol /= 20
	if baselineVol <= 0 {
		return 0, 0, false
	}
	return movePct, recentVol / baselineVol, true
}

func breakoutRating(movePct, volX float64) int {
	rating := 55 + int(movePct*8) + int(math.Min(volX*2, 15))
	if rating > 100 {
		rating = 100
	}
	if rating < 0 {
		rating = 0
	}
	return rating
}

// BaselineReversal looks for an extended one-way move followed by a
// three-bar counter impulse. The per-symbol state remembers the last
// impulse so an already-signalled exhaustion is not re-reported on
// every subsequent bar.
type BaselineReversal struct{}

func NewBaselineReversal() *BaselineReversal { return &BaselineReversal{} }

func (d *BaselineReversal) Detect(candles models.Candles, state *ReversalState) ReversalDetection {
	if len(candles) < reversalLookback+3 {
		return ReversalDetection{}
	}
	closes := candles.Closes()

	// The prior move, measured before the counter impulse started.
	ref := closes[reversalLookback+2]
	if ref <= 0 {
		return ReversalDetection{}
	}
	priorMovePct := (closes[3] - ref) / ref * 100

	c0, c1, c2 := closes[0], closes[1], closes[2]

	var direction string
	switch {
	case priorMovePct < -reversalMinMovePct && c0 > c1 && c1 > c2:
		direction = "bullish"
	case priorMovePct > reversalMinMovePct && c0 < c1 && c1 < c2:
		direction = "bearish"
	default:
		return ReversalDetection{}
	}

	if state != nil {
		// Suppress repeats of the same impulse on consecutive bars.
		bar := candles[0].OpenTime
		if state.LastImpulseDirection == direction && state.BarsSinceImpulse < 3 && state.LastImpulseBar != bar {
			state.BarsSinceImpulse++
			state.LastImpulseBar = bar
			return ReversalDetection{}
		}
		state.LastImpulseDirection = direction
		state.LastImpulseBar = bar
		state.BarsSinceImpulse = 0
	}

	counterPct := math.Abs((c0 - c2) / c2 * 100)
	rating := 55 + int(math.Abs(priorMovePct)*4) + int(counterPct*6)
	if rating > 100 {
		rating = 100
	}
	return ReversalDetection{Direction: direction, Rating: rating}
}
