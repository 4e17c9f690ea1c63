package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ivstanko/cryptoscan/internal/config"
	"github.com/ivstanko/cryptoscan/internal/market"
	"github.com/ivstanko/cryptoscan/internal/models"
	"github.com/ivstanko/cryptoscan/internal/storage"
)

const outcomeMoveThresholdPct = 0.5

// PerformanceTracker persists every emitted signal, re-evaluates each
// one after a wait window, and keeps aggregate win-rate statistics.
// Every mutation writes the whole document through to the store.
type PerformanceTracker struct {
	store  storage.SignalStore
	client market.Client
	cfg    config.TrackerConfig
	logger *logrus.Logger

	mu  sync.Mutex
	doc *models.PerformanceDocument

	now func() time.Time
}

func NewPerformanceTracker(ctx context.Context, store storage.SignalStore, client market.Client, cfg config.TrackerConfig, logger *logrus.Logger) (*PerformanceTracker, error) {
	doc, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load performance document: %w", err)
	}
	return &PerformanceTracker{
		store:  store,
		client: client,
		cfg:    cfg,
		logger: logger,
		doc:    doc,
		now:    time.Now,
	}, nil
}

// Add persists a new open record and returns its id. Ids are
// SYMBOL_unixsecond; a same-second collision overwrites the earlier
// record but still counts a new signal.
func (t *PerformanceTracker) Add(ctx context.Context, sig *models.Signal) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	createdAt := t.now()
	id := fmt.Sprintf("%s_%d", sig.Symbol, createdAt.Unix())

	t.doc.Signals[id] = models.SignalPerformance{
		SignalID:   id,
		Symbol:     sig.Symbol,
		SignalType: sig.Type,
		EntryPrice: sig.Price,
		Rating:     sig.Rating,
		Confidence: sig.Confidence,
		Timestamp:  createdAt,
	}
	t.doc.Stats.TotalSignals++

	if err := t.store.Save(ctx, t.doc); err != nil {
		return id, err
	}
	return id, nil
}

// CheckOutcome resolves one open record. It is a no-op when the record
// is missing, already checked, or younger than the wait window. After
// marking the record checked it refolds the whole statistics block.
func (t *PerformanceTracker) CheckOutcome(ctx context.Context, id string) error {
	t.mu.Lock()
	record, ok := t.doc.Signals[id]
	if !ok || record.OutcomeChecked || t.now().Sub(record.Timestamp) < t.cfg.OutcomeCheckDelay {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	candles, err := t.client.FetchKlines(ctx, record.Symbol, "1", 1)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return nil
	}
	exitPrice := candles.LastPrice()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Recheck under the lock; a concurrent sweep may have won.
	record, ok = t.doc.Signals[id]
	if !ok || record.OutcomeChecked {
		return nil
	}

	pnlPercent := (exitPrice - record.EntryPrice) / record.EntryPrice * 100
	success := classifyOutcome(record.SignalType, pnlPercent)

	record.ExitPrice = &exitPrice
	record.PnLPercent = &pnlPercent
	record.OutcomeSuccess = &success
	record.OutcomeChecked = true
	t.doc.Signals[id] = record

	t.doc.Stats = foldStats(t.doc)

	t.logger.WithFields(logrus.Fields{
		"signal_id": id,
		"pnl":       pnlPercent,
		"success":   success,
	}).Info("Signal outcome checked")

	return t.store.Save(ctx, t.doc)
}

// classifyOutcome grades realized PnL against the signal's direction.
func classifyOutcome(sigType models.SignalType, pnlPercent float64) bool {
	switch {
	case sigType.IsBullish():
		return pnlPercent > outcomeMoveThresholdPct
	case sigType.IsBearish():
		return pnlPercent < -outcomeMoveThresholdPct
	}
	return pnlPercent > outcomeMoveThresholdPct || pnlPercent < -outcomeMoveThresholdPct
}

// Sweep runs CheckOutcome over every stored signal. Individual
// failures are logged and do not stop the sweep.
func (t *PerformanceTracker) Sweep(ctx context.Context) {
	t.mu.Lock()
	ids := make([]string, 0, len(t.doc.Signals))
	for id := range t.doc.Signals {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	sort.Strings(ids)
	for _, id := range ids {
		if err := t.CheckOutcome(ctx, id); err != nil {
			t.logger.WithFields(logrus.Fields{
				"signal_id": id,
				"error":     err.Error(),
			}).Warn("Outcome check failed")
		}
	}
}

// foldStats recomputes the aggregate block as a pure fold over the
// checked records. Never patched incrementally.
func foldStats(doc *models.PerformanceDocument) models.PerformanceStats {
	stats := models.PerformanceStats{
		TotalSignals:    doc.Stats.TotalSignals,
		WinRateByRating: make(map[string]float64),
	}

	familyTotals := make(map[models.SignalFamily]int)
	familyWins := make(map[models.SignalFamily]int)
	ratingTotals := make(map[string]int)
	ratingWins := make(map[string]int)
	pnlSum := 0.0
	pnlCount := 0

	for _, record := range doc.Signals {
		if !record.OutcomeChecked {
			continue
		}
		stats.CheckedSignals++

		success := record.OutcomeSuccess != nil && *record.OutcomeSuccess
		if success {
			stats.SuccessfulSignals++
		} else {
			stats.FailedSignals++
		}

		family := record.SignalType.Family()
		familyTotals[family]++
		if success {
			familyWins[family]++
		}

		bucket := fmt.Sprintf("%d", record.Rating/10*10)
		ratingTotals[bucket]++
		if success {
			ratingWins[bucket]++
		}

		if record.PnLPercent != nil {
			pnlSum += *record.PnLPercent
			pnlCount++
		}
	}

	if n := familyTotals[models.FamilyPump]; n > 0 {
		stats.PumpWinRate = float64(familyWins[models.FamilyPump]) / float64(n)
	}
	if n := familyTotals[models.FamilyDump]; n > 0 {
		stats.DumpWinRate = float64(familyWins[models.FamilyDump]) / float64(n)
	}
	if n := familyTotals[models.FamilyReversal]; n > 0 {
		stats.ReversalWinRate = float64(familyWins[models.FamilyReversal]) / float64(n)
	}
	if pnlCount > 0 {
		stats.AvgPnL = pnlSum / float64(pnlCount)
	}
	for bucket, total := range ratingTotals {
		stats.WinRateByRating[bucket] = float64(ratingWins[bucket]) / float64(total)
	}

	return stats
}

// Stats returns a copy of the current aggregates.
func (t *PerformanceTracker) Stats() models.PerformanceStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.doc.Stats
	byRating := make(map[string]float64, len(stats.WinRateByRating))
	for k, v := range stats.WinRateByRating {
		byRating[k] = v
	}
	stats.WinRateByRating = byRating
	return stats
}

// Signals returns a copy of all stored performance records.
func (t *PerformanceTracker) Signals() []models.SignalPerformance {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.SignalPerformance, 0, len(t.doc.Signals))
	for _, record := range t.doc.Signals {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SignalID < out[j].SignalID })
	return out
}

// ShouldAlertDegradation fires only with a meaningful sample: at least
// the configured minimum of checked records and a win rate under the
// threshold.
func (t *PerformanceTracker) ShouldAlertDegradation() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	checked := t.doc.Stats.CheckedSignals
	if checked < t.cfg.MinSampleSize {
		return false
	}
	winRate := float64(t.doc.Stats.SuccessfulSignals) / float64(checked)
	return winRate < t.cfg.DegradationThreshold
}

// StatsText formats the aggregates for operator messages.
func (t *PerformanceTracker) StatsText() string {
	stats := t.Stats()
	title := cases.Title(language.English)
	return fmt.Sprintf(
		"📊 Signal statistics:\n"+
			"Total: %d | Checked: %d\n"+
			"Successful: %d | Failed: %d\n"+
			"Win Rate: %s=%.1f%% | %s=%.1f%% | %s=%.1f%%\n"+
			"Average PnL: %.2f%%\n",
		stats.TotalSignals, stats.CheckedSignals,
		stats.SuccessfulSignals, stats.FailedSignals,
		title.String(string(models.FamilyPump)), stats.PumpWinRate*100,
		title.String(string(models.FamilyDump)), stats.DumpWinRate*100,
		title.String(string(models.FamilyReversal)), stats.ReversalWinRate*100,
		stats.AvgPnL,
	)
}
