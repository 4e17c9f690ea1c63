package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivstanko/cryptoscan/internal/config"
	"github.com/ivstanko/cryptoscan/internal/models"
)

// memStore keeps the document in memory and counts saves.
type memStore struct {
	doc       *models.PerformanceDocument
	saveCount int
}

func (s *memStore) Load(ctx context.Context) (*models.PerformanceDocument, error) {
	if s.doc == nil {
		return models.NewPerformanceDocument(), nil
	}
	return s.doc, nil
}

func (s *memStore) Save(ctx context.Context, doc *models.PerformanceDocument) error {
	s.doc = doc
	s.saveCount++
	return nil
}

func (s *memStore) Ping(ctx context.Context) error { return nil }

func testTrackerConfig() config.TrackerConfig {
	return config.TrackerConfig{
		OutcomeCheckDelay:    time.Hour,
		DegradationThreshold: 0.45,
		MinSampleSize:        20,
	}
}

func newTestTracker(t *testing.T, client *stubMarketClient) (*PerformanceTracker, *memStore) {
	t.Helper()
	store := &memStore{}
	tracker, err := NewPerformanceTracker(context.Background(), store, client, testTrackerConfig(), quietTestLogger())
	require.NoError(t, err)
	return tracker, store
}

func TestTrackerAddPersistsRecord(t *testing.T) {
	tracker, store := newTestTracker(t, &stubMarketClient{})
	now := time.Unix(1_700_000_000, 0)
	tracker.now = func() time.Time { return now }

	id, err := tracker.Add(context.Background(), &models.Signal{
		Symbol:     "BTCUSDT",
		Type:       models.SignalBigPump,
		Price:      50000,
		Rating:     72,
		Confidence: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT_1700000000", id)
	assert.Equal(t, 1, store.saveCount)

	record, ok := store.doc.Signals[id]
	require.True(t, ok)
	assert.Equal(t, models.SignalBigPump, record.SignalType)
	assert.InDelta(t, 50000.0, record.EntryPrice, 1e-9)
	assert.False(t, record.OutcomeChecked)
	assert.Equal(t, 1, store.doc.Stats.TotalSignals)
}

func TestTrackerAddSameSecondCollisionOverwrites(t *testing.T) {
	tracker, store := newTestTracker(t, &stubMarketClient{})
	now := time.Unix(1_700_000_000, 0)
	tracker.now = func() time.Time { return now }

	sig := &models.Signal{Symbol: "BTCUSDT", Type: models.SignalBigPump, Price: 50000, Rating: 72}
	_, err := tracker.Add(context.Background(), sig)
	require.NoError(t, err)
	_, err = tracker.Add(context.Background(), sig)
	require.NoError(t, err)

	assert.Len(t, store.doc.Signals, 1)
	// The collision still counts a second signal.
	assert.Equal(t, 2, store.doc.Stats.TotalSignals)
}

func TestTrackerAddConcurrentCallersLoseNoCounts(t *testing.T) {
	tracker, store := newTestTracker(t, &stubMarketClient{})

	const callers = 50
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(n int) {
			defer wg.Done()
			_, err := tracker.Add(context.Background(), &models.Signal{
				Symbol: fmt.Sprintf("SYM%02dUSDT", n),
				Type:   models.SignalBigPump,
				Price:  100,
				Rating: 70,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, callers, store.doc.Stats.TotalSignals)
	assert.Len(t, store.doc.Signals, callers)
	assert.Equal(t, callers, tracker.Stats().TotalSignals)
}

func TestTrackerCheckOutcomeWaitsForDelay(t *testing.T) {
	client := &stubMarketClient{
		klines: func(ctx context.Context, symbol, interval string, limit int) (models.Candles, error) {
			return models.Candles{{Close: 50600}}, nil
		},
	}
	tracker, store := newTestTracker(t, client)
	now := time.Unix(1_700_000_000, 0)
	tracker.now = func() time.Time { return now }

	id, err := tracker.Add(context.Background(), &models.Signal{
		Symbol: "BTCUSDT", Type: models.SignalBigPump, Price: 50000, Rating: 72,
	})
	require.NoError(t, err)

	// Too young: nothing happens, no market call.
	require.NoError(t, tracker.CheckOutcome(context.Background(), id))
	assert.Equal(t, int64(0), client.klineRequests.Load())
	assert.False(t, store.doc.Signals[id].OutcomeChecked)

	now = now.Add(61 * time.Minute)
	require.NoError(t, tracker.CheckOutcome(context.Background(), id))

	record := store.doc.Signals[id]
	require.True(t, record.OutcomeChecked)
	require.NotNil(t, record.PnLPercent)
	assert.InDelta(t, 1.2, *record.PnLPercent, 1e-9)
	require.NotNil(t, record.OutcomeSuccess)
	assert.True(t, *record.OutcomeSuccess)
	assert.Equal(t, 1, store.doc.Stats.CheckedSignals)
	assert.InDelta(t, 1.0, store.doc.Stats.PumpWinRate, 1e-9)

	// A second check is a no-op: no refetch, no refold.
	require.NoError(t, tracker.CheckOutcome(context.Background(), id))
	assert.Equal(t, int64(1), client.klineRequests.Load())
}

func TestTrackerCheckOutcomeUnknownIDIsNoop(t *testing.T) {
	tracker, _ := newTestTracker(t, &stubMarketClient{})
	require.NoError(t, tracker.CheckOutcome(context.Background(), "GHOSTUSDT_0"))
}

func TestClassifyOutcome(t *testing.T) {
	tests := []struct {
		name    string
		sigType models.SignalType
		pnl     float64
		want    bool
	}{
		{"pump needs upside", models.SignalBigPump, 0.6, true},
		{"pump below threshold", models.SignalBigPump, 0.4, false},
		{"pump moving down", models.SignalBigPump, -2, false},
		{"dump needs downside", models.SignalBigDump, -0.6, true},
		{"dump moving up", models.SignalBigDump, 2, false},
		{"bullish reversal up", models.SignalReversalBullish, 0.8, true},
		{"bearish reversal down", models.SignalReversalBearish, -0.8, true},
		{"bearish reversal flat", models.SignalReversalBearish, -0.3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyOutcome(tt.sigType, tt.pnl))
		})
	}
}

func TestFoldStatsBucketsByFamilyAndDecile(t *testing.T) {
	win, loss := true, false
	pnlWin, pnlLoss := 1.5, -1.0

	doc := models.NewPerformanceDocument()
	doc.Stats.TotalSignals = 5
	doc.Signals["A_1"] = models.SignalPerformance{
		SignalID: "A_1", SignalType: models.SignalBigPump, Rating: 72,
		OutcomeChecked: true, OutcomeSuccess: &win, PnLPercent: &pnlWin,
	}
	doc.Signals["B_1"] = models.SignalPerformance{
		SignalID: "B_1", SignalType: models.SignalBigPump, Rating: 78,
		OutcomeChecked: true, OutcomeSuccess: &loss, PnLPercent: &pnlLoss,
	}
	doc.Signals["C_1"] = models.SignalPerformance{
		SignalID: "C_1", SignalType: models.SignalBigDump, Rating: 65,
		OutcomeChecked: true, OutcomeSuccess: &win, PnLPercent: &pnlWin,
	}
	doc.Signals["D_1"] = models.SignalPerformance{
		SignalID: "D_1", SignalType: models.SignalReversalBullish, Rating: 60,
		OutcomeChecked: true, OutcomeSuccess: &loss, PnLPercent: &pnlLoss,
	}
	// Unchecked records stay out of every aggregate.
	doc.Signals["E_1"] = models.SignalPerformance{
		SignalID: "E_1", SignalType: models.SignalBigPump, Rating: 90,
	}

	stats := foldStats(doc)
	assert.Equal(t, 5, stats.TotalSignals)
	assert.Equal(t, 4, stats.CheckedSignals)
	assert.Equal(t, 2, stats.SuccessfulSignals)
	assert.Equal(t, 2, stats.FailedSignals)
	assert.InDelta(t, 0.5, stats.PumpWinRate, 1e-9)
	assert.InDelta(t, 1.0, stats.DumpWinRate, 1e-9)
	assert.InDelta(t, 0.0, stats.ReversalWinRate, 1e-9)
	assert.InDelta(t, 0.25, stats.AvgPnL, 1e-9)
	assert.InDelta(t, 0.5, stats.WinRateByRating["70"], 1e-9)
	assert.InDelta(t, 0.5, stats.WinRateByRating["60"], 1e-9)
	_, has90 := stats.WinRateByRating["90"]
	assert.False(t, has90)
}

func TestTrackerSweepResolvesEveryEligibleRecord(t *testing.T) {
	client := &stubMarketClient{
		klines: func(ctx context.Context, symbol, interval string, limit int) (models.Candles, error) {
			return models.Candles{{Close: 101}}, nil
		},
	}
	tracker, store := newTestTracker(t, client)
	now := time.Unix(1_700_000_000, 0)
	tracker.now = func() time.Time { return now }

	for _, symbol := range []string{"AUSDT", "BUSDT", "CUSDT"} {
		_, err := tracker.Add(context.Background(), &models.Signal{
			Symbol: symbol, Type: models.SignalBigPump, Price: 100, Rating: 70,
		})
		require.NoError(t, err)
	}

	now = now.Add(2 * time.Hour)
	tracker.Sweep(context.Background())

	assert.Equal(t, 3, store.doc.Stats.CheckedSignals)
	assert.Equal(t, int64(3), client.klineRequests.Load())
}

func TestShouldAlertDegradation(t *testing.T) {
	build := func(checked, successful int) *PerformanceTracker {
		doc := models.NewPerformanceDocument()
		doc.Stats.CheckedSignals = checked
		doc.Stats.SuccessfulSignals = successful
		store := &memStore{doc: doc}
		tracker, err := NewPerformanceTracker(context.Background(), store, &stubMarketClient{}, testTrackerConfig(), quietTestLogger())
		require.NoError(t, err)
		return tracker
	}

	// Small samples never alert, even at a zero win rate.
	assert.False(t, build(19, 0).ShouldAlertDegradation())

	assert.True(t, build(20, 8).ShouldAlertDegradation())
	assert.False(t, build(20, 10).ShouldAlertDegradation())
	assert.False(t, build(20, 9).ShouldAlertDegradation())
}

func TestStatsTextTitlesFamilies(t *testing.T) {
	tracker, _ := newTestTracker(t, &stubMarketClient{})
	text := tracker.StatsText()
	assert.Contains(t, text, "Pump=")
	assert.Contains(t, text, "Dump=")
	assert.Contains(t, text, "Reversal=")
	assert.Contains(t, text, "Total: 0")
}
