package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ivstanko/cryptoscan/internal/analysis"
	"github.com/ivstanko/cryptoscan/internal/config"
	"github.com/ivstanko/cryptoscan/internal/detect"
	"github.com/ivstanko/cryptoscan/internal/logging"
	"github.com/ivstanko/cryptoscan/internal/market"
	"github.com/ivstanko/cryptoscan/internal/models"
	"github.com/ivstanko/cryptoscan/internal/utils"
)

// Analyzer runs the full per-symbol pipeline: candles in, at most one
// scored signal out. Every failure inside Analyze is caught at the
// symbol boundary so one bad symbol never spoils the cycle.
type Analyzer struct {
	cfg      *config.Config
	klines   *market.KlineCache
	client   market.Client
	ref      *ReferenceService
	state    *SymbolStateService
	tracker  *PerformanceTracker
	pipeline *ScoringPipeline

	pumps     detect.PumpDetector
	dumps     detect.DumpDetector
	reversals detect.ReversalDetector

	logger      *logrus.Logger
	signalSink  *logging.FileSink
	criticalLog *logging.FileSink
}

// AnalyzerDeps wires an Analyzer without a long positional constructor.
type AnalyzerDeps struct {
	Config      *config.Config
	Klines      *market.KlineCache
	Client      market.Client
	Reference   *ReferenceService
	State       *SymbolStateService
	Tracker     *PerformanceTracker
	Pipeline    *ScoringPipeline
	Pump        detect.PumpDetector
	Dump        detect.DumpDetector
	Reversal    detect.ReversalDetector
	Logger      *logrus.Logger
	SignalSink  *logging.FileSink
	CriticalLog *logging.FileSink
}

func NewAnalyzer(deps AnalyzerDeps) *Analyzer {
	return &Analyzer{
		cfg:         deps.Config,
		klines:      deps.Klines,
		client:      deps.Client,
		ref:         deps.Reference,
		state:       deps.State,
		tracker:     deps.Tracker,
		pipeline:    deps.Pipeline,
		pumps:       deps.Pump,
		dumps:       deps.Dump,
		reversals:   deps.Reversal,
		logger:      deps.Logger,
		signalSink:  deps.SignalSink,
		criticalLog: deps.CriticalLog,
	}
}

// Analyze produces the symbol's best signal for this cycle, or nil.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) (result *models.Signal) {
	defer func() {
		if r := recover(); r != nil {
			a.logCategorized(utils.NewAnalysisError("analyze "+symbol, fmt.Errorf("panic: %v", r)), symbol)
			result = nil
		}
	}()

	if a.state.OnCooldown(symbol) {
		return nil
	}

	candles1m, err := a.klines.Get(ctx, symbol, a.cfg.Market.Intervals["1m"], a.cfg.Market.KlineLimits["1m"])
	if err != nil {
		a.logCategorized(err, symbol)
		return nil
	}
	if len(candles1m) == 0 {
		return nil
	}
	candles15m := a.fetchHTFKlines(ctx, symbol, "15m")
	candles1h := a.fetchHTFKlines(ctx, symbol, "1h")
	candles4h := a.fetchHTFKlines(ctx, symbol, "4h")

	ref := a.ref.Context(ctx)
	adaptiveMin := CalibrateMinScore(ref.Regime, ref.VolRatio, a.cfg.Scanner.BaseMinScore)

	lastPrice := candles1m.LastPrice()
	closes1m := candles1m.Closes()
	highs1m := candles1m.Highs()
	lows1m := candles1m.Lows()
	volumes1m := candles1m.Volumes()

	trend15m := analysis.HTFTrend(candles15m)
	trend1h := analysis.HTFTrend(candles1h)
	trend4h := analysis.HTFTrend(candles4h)
	trendScore := analysis.TrendScore(closes1m, volumes1m)
	riskScore := analysis.RiskScore(closes1m, volumes1m)

	aux := a.fetchAuxContext(ctx, symbol)
	volProfile := analysis.VolumeProfile(candles15m, a.cfg.Profile.Levels)
	whaleInfo := analysis.DetectWhaleWalls(aux.book, a.cfg.Whale.Depth, a.cfg.Whale.ThresholdMultiplier)
	liqMap := BuildLiquidityMap(aux.book, lastPrice)

	impulse := analysis.ImpulseScore(closes1m)
	atr1m := analysis.ATR(candles1m)

	ctxSnap := ContextSnapshot{
		OIStatus:   aux.oiStatus,
		Funding:    aux.funding,
		LiqStatus:  aux.liqStatus,
		FlowStatus: aux.flowStatus,
		DeltaState: aux.deltaStatus,
		TrendScore: trendScore,
		RiskScore:  riskScore,
	}

	newCandidate := func(sigType models.SignalType, rating int) *models.Signal {
		return &models.Signal{
			Symbol:            symbol,
			Type:              sigType,
			Price:             lastPrice,
			Rating:            rating,
			TrendScore:        trendScore,
			RiskScore:         riskScore,
			Trend15m:          trend15m,
			Trend1h:           trend1h,
			Trend4h:           trend4h,
			OIStatus:          aux.oiStatus,
			FundingRate:       aux.funding,
			LiqStatus:         aux.liqStatus,
			FlowStatus:        aux.flowStatus,
			DeltaStatus:       aux.deltaStatus,
			LiquidityBias:     liqMap.Bias,
			LiquidityStrong:   liqMap.StrongestZone,
			LiquidityVacUp:    liqMap.VacuumUp,
			LiquidityVacDown:  liqMap.VacuumDown,
			VolumeProfileInfo: volProfile,
			WhaleInfo:         whaleInfo,
		}
	}

	var candidates []*models.Signal

	// Detection order is fixed: pump, dump, reversal. Rating ties at
	// selection time resolve in this order.
	if pump := a.pumps.Detect(candles1m); pump.Detected && pump.Rating >= adaptiveMin {
		adjusted := AdjustRatingWithContext(pump.Rating, models.SignalBigPump, ctxSnap)
		if PassesCorrelationFilter(symbol, a.ref.Symbol(), ref.TrendScore, models.SignalBigPump) {
			candidates = append(candidates, newCandidate(models.SignalBigPump, adjusted))
		}
	}

	if dump := a.dumps.Detect(candles1m); dump.Detected && dump.Rating >= adaptiveMin {
		adjusted := AdjustRatingWithContext(dump.Rating, models.SignalBigDump, ctxSnap)
		if PassesCorrelationFilter(symbol, a.ref.Symbol(), ref.TrendScore, models.SignalBigDump) {
			candidates = append(candidates, newCandidate(models.SignalBigDump, adjusted))
		}
	}

	if rev := a.reversals.Detect(candles1m, a.state.ReversalState(symbol)); rev.Direction != "" && rev.Rating >= adaptiveMin {
		sigType := models.SignalReversalBullish
		if rev.Direction == "bearish" {
			sigType = models.SignalReversalBearish
		}
		adjusted := AdjustRatingWithContext(rev.Rating, sigType, ctxSnap)
		adjusted += ReversalAdjustment(sigType, closes1m, highs1m, lows1m, volumes1m, aux.deltaStatus)
		if PassesCorrelationFilter(symbol, a.ref.Symbol(), ref.TrendScore, sigType) {
			candidates = append(candidates, newCandidate(sigType, adjusted))
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	memoryRegime := a.state.MemoryRegime(symbol)
	for _, c := range candidates {
		a.pipeline.Score(ScoringInput{
			Candidate:        c,
			Impulse:          impulse,
			Ref:              ref,
			MemoryRegime:     memoryRegime,
			OIStatus:         aux.oiStatus,
			LiquidityBias:    liqMap.Bias,
			AdaptiveMinScore: adaptiveMin,
			Closes:           closes1m,
			Candles:          candles1m,
			ATR:              atr1m,
		})
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Rating > best.Rating {
			best = c
		}
	}

	a.state.UpdateMemory(symbol, MemorySnapshot{
		ATR:        atr1m,
		TrendScore: trendScore,
		IsPump:     best.Type.Family() == models.FamilyPump,
		IsDump:     best.Type.Family() == models.FamilyDump,
		IsReversal: best.Type.IsReversal(),
		RefFactor:  ref.Factor,
	})

	a.logSignal(best)
	a.state.MarkSignal(symbol)

	if id, err := a.tracker.Add(ctx, best); err != nil {
		a.logCategorized(err, symbol)
	} else {
		best.SignalID = id
	}

	return best
}

type auxContext struct {
	oiStatus    string
	funding     float64
	liqStatus   string
	flowStatus  string
	deltaStatus string
	book        *models.OrderBook
}

// fetchHTFKlines fetches one higher timeframe. Failures degrade to an
// empty series, which the trend features read as neutral.
func (a *Analyzer) fetchHTFKlines(ctx context.Context, symbol, tf string) models.Candles {
	candles, err := a.klines.Get(ctx, symbol, a.cfg.Market.Intervals[tf], a.cfg.Market.KlineLimits[tf])
	if err != nil {
		a.logCategorized(err, symbol)
		return nil
	}
	return candles
}

// fetchAuxContext gathers the optional context features. Any single
// fetch failure degrades that feature to its neutral default.
func (a *Analyzer) fetchAuxContext(ctx context.Context, symbol string) auxContext {
	aux := auxContext{
		oiStatus:    "flat",
		liqStatus:   "calm",
		flowStatus:  "balanced",
		deltaStatus: "neutral",
	}

	if oi, err := a.client.FetchOpenInterest(ctx, symbol); err != nil {
		a.logCategorized(err, symbol)
	} else {
		aux.oiStatus = analysis.OIStatus(oi)
	}

	if funding, err := a.client.FetchFundingRate(ctx, symbol); err != nil {
		a.logCategorized(err, symbol)
	} else {
		aux.funding = funding
	}

	if liqs, err := a.client.FetchLiquidations(ctx, symbol); err != nil {
		a.logCategorized(err, symbol)
	} else {
		aux.liqStatus = analysis.InterpretLiquidations(liqs)
	}

	if trades, err := a.client.FetchRecentTrades(ctx, symbol, 500); err != nil {
		a.logCategorized(err, symbol)
	} else {
		aux.flowStatus = analysis.FlowFromTrades(trades)
		aux.deltaStatus = analysis.DeltaFromTrades(trades)
	}

	if book, err := a.client.FetchOrderBook(ctx, symbol, a.cfg.Whale.Depth); err != nil {
		a.logCategorized(err, symbol)
	} else {
		aux.book = book
	}

	return aux
}

func (a *Analyzer) logSignal(sig *models.Signal) {
	a.logger.WithFields(logrus.Fields{
		"symbol": sig.Symbol,
		"type":   sig.Type,
		"rating": sig.Rating,
		"price":  sig.Price,
	}).Info("Signal emitted")

	if a.signalSink != nil {
		a.signalSink.WriteLine("%s | %s | price=%.4f | rating=%d | trend=%d | risk=%d",
			sig.Type, sig.Symbol, sig.Price, sig.Rating, sig.TrendScore, sig.RiskScore)
	}
}

// logCategorized logs an error with its category and escalates
// critical categories to the critical-errors sink.
func (a *Analyzer) logCategorized(err error, symbol string) {
	category := utils.Categorize(err)
	a.logger.WithFields(logrus.Fields{
		"symbol":   symbol,
		"category": string(category),
		"error":    err.Error(),
	}).Error("Analysis error")

	if category.IsCritical() && a.criticalLog != nil {
		a.criticalLog.WriteLine("%s | %s | %v", category, symbol, err)
	}
}
