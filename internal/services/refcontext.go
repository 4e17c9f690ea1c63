package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivstanko/cryptoscan/internal/analysis"
	"github.com/ivstanko/cryptoscan/internal/market"
)

// RefContext is the reference instrument's cached market regime.
type RefContext struct {
	Factor     float64
	Regime     string
	TrendScore int
	VolRatio   float64
}

func neutralRefContext() RefContext {
	return RefContext{Factor: 1.0, Regime: "neutral"}
}

// ReferenceService derives the market regime from the reference
// instrument's 15-minute candles and caches it on its own TTL. Readers
// tolerate a value up to TTL old; a fetch failure yields the neutral
// default without touching the cache, so the next call retries.
type ReferenceService struct {
	klines *market.KlineCache
	symbol string
	ttl    time.Duration
	logger *logrus.Logger

	mu       sync.Mutex
	cached   RefContext
	cachedAt time.Time

	now func() time.Time
}

func NewReferenceService(klines *market.KlineCache, symbol string, ttl time.Duration, logger *logrus.Logger) *ReferenceService {
	return &ReferenceService{
		klines: klines,
		symbol: symbol,
		ttl:    ttl,
		logger: logger,
		cached: neutralRefContext(),
		now:    time.Now,
	}
}

// Symbol returns the reference instrument's symbol.
func (s *ReferenceService) Symbol() string {
	return s.symbol
}

// Context returns the cached regime when fresh, otherwise recomputes it.
func (s *ReferenceService) Context(ctx context.Context) RefContext {
	s.mu.Lock()
	if !s.cachedAt.IsZero() && s.now().Sub(s.cachedAt) < s.ttl {
		cached := s.cached
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	candles, err := s.klines.Get(ctx, s.symbol, "15", 50)
	if err != nil || len(candles) == 0 {
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"symbol": s.symbol,
				"error":  err.Error(),
			}).Warn("Reference context fetch failed, using neutral")
		}
		return neutralRefContext()
	}

	trend := analysis.TrendScore(candles.Closes(), candles.Volumes())
	atr := analysis.ATR(candles)
	price := candles.LastPrice()

	volRatio := 0.0
	if price > 0 {
		volRatio = atr / price * 100
	}

	result := RefContext{
		Factor:     1.0,
		Regime:     "neutral",
		TrendScore: trend,
		VolRatio:   volRatio,
	}
	// Volatility takes precedence over the trend checks.
	switch {
	case volRatio > 0.5:
		result.Regime = "high_vol"
		result.Factor = 0.9
	case trend > 5 || trend < -5:
		result.Regime = "trending"
		result.Factor = 1.1
	case trend > -2 && trend < 2:
		result.Regime = "ranging"
		result.Factor = 1.05
	}

	s.mu.Lock()
	s.cached = result
	s.cachedAt = s.now()
	s.mu.Unlock()

	return result
}
