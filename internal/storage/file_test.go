package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivstanko/cryptoscan/internal/models"
)

func sampleDocument() *models.PerformanceDocument {
	doc := models.NewPerformanceDocument()
	success := true
	exit := 101.2
	pnl := 1.2
	doc.Signals["BTCUSDT_1700000000"] = models.SignalPerformance{
		SignalID:       "BTCUSDT_1700000000",
		Symbol:         "BTCUSDT",
		SignalType:     models.SignalBigPump,
		EntryPrice:     100,
		Rating:         78,
		Confidence:     0.8,
		Timestamp:      time.Unix(1_700_000_000, 0).UTC(),
		OutcomeChecked: true,
		OutcomeSuccess: &success,
		ExitPrice:      &exit,
		PnLPercent:     &pnl,
	}
	doc.Stats.TotalSignals = 1
	doc.Stats.CheckedSignals = 1
	doc.Stats.SuccessfulSignals = 1
	return doc
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "perf.json"))
	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Signals)
	assert.Equal(t, 0, doc.Stats.TotalSignals)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "perf.json"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleDocument()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, loaded.Signals, "BTCUSDT_1700000000")

	perf := loaded.Signals["BTCUSDT_1700000000"]
	assert.Equal(t, models.SignalBigPump, perf.SignalType)
	assert.True(t, perf.OutcomeChecked)
	require.NotNil(t, perf.OutcomeSuccess)
	assert.True(t, *perf.OutcomeSuccess)
	require.NotNil(t, perf.PnLPercent)
	assert.InDelta(t, 1.2, *perf.PnLPercent, 1e-9)
	assert.Equal(t, 1, loaded.Stats.TotalSignals)
}

func TestFileStoreSaveOverwritesWholesale(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "perf.json"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleDocument()))

	replacement := models.NewPerformanceDocument()
	replacement.Stats.TotalSignals = 5
	require.NoError(t, store.Save(ctx, replacement))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Signals)
	assert.Equal(t, 5, loaded.Stats.TotalSignals)
}

func TestFileStorePing(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, NewFileStore(filepath.Join(dir, "perf.json")).Ping(context.Background()))
	assert.Error(t, NewFileStore(filepath.Join(dir, "missing", "perf.json")).Ping(context.Background()))
}
