package services

const (
	minScoreFloor   = 40
	minScoreCeiling = 80
)

// CalibrateMinScore adapts the base acceptance threshold to the
// reference regime and the volatility ratio. The result gates raw
// detections before any contextual adjustment.
func CalibrateMinScore(regime string, volRatio float64, base int) int {
	adjusted := base

	switch regime {
	case "high_vol":
		adjusted += 10
	case "ranging":
		adjusted -= 5
	case "trending":
		adjusted += 3
	}

	if volRatio > 1.5 {
		adjusted += 5
	} else if volRatio < 0.7 {
		adjusted -= 3
	}

	if adjusted < minScoreFloor {
		return minScoreFloor
	}
	if adjusted > minScoreCeiling {
		return minScoreCeiling
	}
	return adjusted
}
