package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ivstanko/cryptoscan/internal/config"
	"github.com/ivstanko/cryptoscan/internal/logging"
	"github.com/ivstanko/cryptoscan/internal/market"
	"github.com/ivstanko/cryptoscan/internal/models"
	"github.com/ivstanko/cryptoscan/internal/notify"
	"github.com/ivstanko/cryptoscan/internal/utils"
)

// Scanner drives the scan cycles: fan out analysis over the symbol
// universe with bounded concurrency, rank the results, notify the top
// signals, and periodically sweep outcomes. The loop never terminates
// on error; a failed cycle logs, notifies the operator, sleeps a short
// backoff and continues.
type Scanner struct {
	cfg         *config.Config
	client      market.Client
	analyzer    *Analyzer
	tracker     *PerformanceTracker
	klines      *market.KlineCache
	notifier    notify.Notifier
	charts      notify.ChartRenderer
	logger      *logrus.Logger
	criticalLog *logging.FileSink

	iteration int
	sleep     func(ctx context.Context, d time.Duration)
}

// ScannerDeps wires a Scanner.
type ScannerDeps struct {
	Config      *config.Config
	Client      market.Client
	Analyzer    *Analyzer
	Tracker     *PerformanceTracker
	Klines      *market.KlineCache
	Notifier    notify.Notifier
	Charts      notify.ChartRenderer
	Logger      *logrus.Logger
	CriticalLog *logging.FileSink
}

func NewScanner(deps ScannerDeps) *Scanner {
	return &Scanner{
		cfg:         deps.Config,
		client:      deps.Client,
		analyzer:    deps.Analyzer,
		tracker:     deps.Tracker,
		klines:      deps.Klines,
		notifier:    deps.Notifier,
		charts:      deps.Charts,
		logger:      deps.Logger,
		criticalLog: deps.CriticalLog,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// Run loops until the context is cancelled. Cycles run strictly
// sequentially; only the per-symbol fan-out inside a cycle is
// concurrent.
func (s *Scanner) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := s.runCycle(ctx); err != nil {
			s.handleCycleError(ctx, err)
			s.sleep(ctx, s.cfg.Scanner.ErrorBackoff)
			continue
		}
		s.sleep(ctx, s.cfg.Scanner.ScanInterval)
	}
}

// runCycle performs one full scan of the symbol universe.
func (s *Scanner) runCycle(ctx context.Context) error {
	s.iteration++
	cycleID := uuid.New().String()[:8]
	started := time.Now()

	tickers, err := s.client.FetchTickers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch tickers: %w", err)
	}

	symbols := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if strings.HasSuffix(t.Symbol, s.cfg.Market.QuoteSuffix) {
			symbols = append(symbols, t.Symbol)
		}
	}

	signals := s.fanOut(ctx, symbols)

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Rating > signals[j].Rating
	})

	topN := s.cfg.Scanner.MaxSignals
	if topN > len(signals) {
		topN = len(signals)
	}
	for _, sig := range signals[:topN] {
		s.notifySignal(ctx, sig)
	}

	if s.cfg.Scanner.StatsFrequency > 0 && s.iteration%s.cfg.Scanner.StatsFrequency == 0 {
		s.runHousekeeping(ctx)
	}

	s.logger.WithFields(logrus.Fields{
		"cycle":    cycleID,
		"symbols":  len(symbols),
		"signals":  len(signals),
		"duration": time.Since(started).String(),
	}).Info("Scan cycle complete")

	return nil
}

// fanOut analyzes the universe with at most the configured number of
// analyses in flight. One symbol's failure never cancels its siblings.
func (s *Scanner) fanOut(ctx context.Context, symbols []string) []*models.Signal {
	semaphore := make(chan struct{}, s.cfg.Scanner.Concurrency)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var signals []*models.Signal

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if sig := s.analyzer.Analyze(ctx, symbol); sig != nil {
				mu.Lock()
				signals = append(signals, sig)
				mu.Unlock()
			}
		}(symbol)
	}
	wg.Wait()

	return signals
}

func (s *Scanner) notifySignal(ctx context.Context, sig *models.Signal) {
	if err := s.notifier.SendText(ctx, notify.FormatSignal(sig)); err != nil {
		s.logger.WithFields(logrus.Fields{
			"symbol": sig.Symbol,
			"error":  err.Error(),
		}).Warn("Signal notification failed")
	}

	if !s.cfg.Scanner.EnableCharts {
		return
	}
	candles, err := s.klines.Get(ctx, sig.Symbol, s.cfg.Market.Intervals["15m"], s.cfg.Market.KlineLimits["15m"])
	if err != nil {
		return
	}
	image, err := s.charts.Render(candles, sig.Symbol, "15m")
	if err != nil || image == nil {
		return
	}
	if err := s.notifier.SendPhoto(ctx, sig.Symbol+".png", image, sig.Symbol); err != nil {
		s.logger.WithFields(logrus.Fields{
			"symbol": sig.Symbol,
			"error":  err.Error(),
		}).Warn("Chart notification failed")
	}
}

// runHousekeeping sweeps signal outcomes and reports statistics. Runs
// sequentially after the fan-out has finished.
func (s *Scanner) runHousekeeping(ctx context.Context) {
	s.tracker.Sweep(ctx)

	statsText := s.tracker.StatsText()
	if err := s.notifier.SendText(ctx, statsText); err != nil {
		s.logger.WithField("error", err.Error()).Warn("Stats notification failed")
	}

	if s.tracker.ShouldAlertDegradation() {
		alert := notify.FormatDegradationAlert(s.cfg.Tracker.DegradationThreshold, statsText)
		if err := s.notifier.SendText(ctx, alert); err != nil {
			s.logger.WithField("error", err.Error()).Warn("Degradation alert failed")
		}
	}
}

func (s *Scanner) handleCycleError(ctx context.Context, err error) {
	category := utils.Categorize(err)
	s.logger.WithFields(logrus.Fields{
		"category": string(category),
		"error":    err.Error(),
	}).Error("Scan cycle failed")

	if category.IsCritical() && s.criticalLog != nil {
		s.criticalLog.WriteLine("%s | scanner | %v", category, err)
	}
	if notifyErr := s.notifier.SendText(ctx, notify.FormatCycleError(err)); notifyErr != nil {
		s.logger.WithField("error", notifyErr.Error()).Warn("Cycle error notification failed")
	}
}
