package services

import (
	"github.com/ivstanko/cryptoscan/internal/models"
)

const strongRefTrend = 5

// PassesCorrelationFilter rejects candidates that fight a strong move
// in the reference instrument. The reference symbol itself always
// passes, and reversal candidates are exempt since they trade against
// the prevailing move on purpose. Both trend checks use strict
// inequality, so a reading of exactly ±5 never rejects.
func PassesCorrelationFilter(symbol, refSymbol string, refTrend int, sigType models.SignalType) bool {
	if symbol == refSymbol {
		return true
	}
	if sigType.IsReversal() {
		return true
	}
	if sigType.IsBullish() && refTrend < -strongRefTrend {
		return false
	}
	if sigType.IsBearish() && refTrend > strongRefTrend {
		return false
	}
	return true
}
