package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivstanko/cryptoscan/internal/config"
	"github.com/ivstanko/cryptoscan/internal/models"
)

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		AccountSizeUSDT: 1000,
		RiskPerTrade:    0.02,
		ATRMultSL:       1.5,
		ATRMultTP1:      3.0,
		ATRMultTP2:      4.5,
	}
}

func TestPositionSizeMonotonicInRating(t *testing.T) {
	cfg := testRiskConfig()
	low := PositionSize(50, 0.7, 2.0, 5, cfg)
	high := PositionSize(90, 0.7, 2.0, 5, cfg)
	assert.Greater(t, high.PositionSizeUSDT, low.PositionSizeUSDT)
}

func TestPositionSizeMonotonicInConfidence(t *testing.T) {
	cfg := testRiskConfig()
	low := PositionSize(70, 0.4, 2.0, 5, cfg)
	high := PositionSize(70, 0.9, 2.0, 5, cfg)
	assert.Greater(t, high.PositionSizeUSDT, low.PositionSizeUSDT)
}

func TestPositionSizeRiskScoreAdjustment(t *testing.T) {
	cfg := testRiskConfig()
	safe := PositionSize(70, 0.7, 2.0, 2, cfg)
	mid := PositionSize(70, 0.7, 2.0, 5, cfg)
	risky := PositionSize(70, 0.7, 2.0, 8, cfg)

	assert.Greater(t, safe.RiskAmountUSDT, mid.RiskAmountUSDT)
	assert.Greater(t, mid.RiskAmountUSDT, risky.RiskAmountUSDT)
}

func TestPositionSizeZeroATR(t *testing.T) {
	sizing := PositionSize(70, 0.7, 0, 5, testRiskConfig())
	assert.Equal(t, 0.0, sizing.PositionSizeUSDT)
}

func TestPositionSizeQualityScore(t *testing.T) {
	sizing := PositionSize(80, 0.5, 2.0, 5, testRiskConfig())
	assert.InDelta(t, 40.0, sizing.QualityScore, 1e-9)
}

func TestAttachTradeLevelsLong(t *testing.T) {
	sig := &models.Signal{Type: models.SignalBigPump, Rating: 70, Confidence: 0.7, RiskScore: 5}
	AttachTradeLevels(sig, 100, 2.0, testRiskConfig())

	assert.Equal(t, 97.0, sig.Levels.StopLoss)
	assert.Equal(t, 106.0, sig.Levels.TakeProfit1)
	assert.Equal(t, 109.0, sig.Levels.TakeProfit2)
	assert.Positive(t, sig.Sizing.PositionSizeUSDT)
}

func TestAttachTradeLevelsShort(t *testing.T) {
	sig := &models.Signal{Type: models.SignalBigDump, Rating: 70, Confidence: 0.7, RiskScore: 5}
	AttachTradeLevels(sig, 100, 2.0, testRiskConfig())

	assert.Equal(t, 103.0, sig.Levels.StopLoss)
	assert.Equal(t, 94.0, sig.Levels.TakeProfit1)
	assert.Equal(t, 91.0, sig.Levels.TakeProfit2)
}

func TestAttachTradeLevelsBullishReversalIsLong(t *testing.T) {
	sig := &models.Signal{Type: models.SignalReversalBullish, Rating: 70, Confidence: 0.7, RiskScore: 5}
	AttachTradeLevels(sig, 100, 2.0, testRiskConfig())
	assert.Equal(t, 97.0, sig.Levels.StopLoss)
}
