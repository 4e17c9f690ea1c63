package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivstanko/cryptoscan/internal/config"
	"github.com/ivstanko/cryptoscan/internal/models"
	"github.com/ivstanko/cryptoscan/internal/services"
)

type stubStore struct {
	doc     *models.PerformanceDocument
	pingErr error
}

func (s *stubStore) Load(ctx context.Context) (*models.PerformanceDocument, error) {
	if s.doc == nil {
		return models.NewPerformanceDocument(), nil
	}
	return s.doc, nil
}

func (s *stubStore) Save(ctx context.Context, doc *models.PerformanceDocument) error {
	s.doc = doc
	return nil
}

func (s *stubStore) Ping(ctx context.Context) error { return s.pingErr }

func newTestRouter(t *testing.T, store *stubStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	tracker, err := services.NewPerformanceTracker(context.Background(), store, nil, config.TrackerConfig{
		OutcomeCheckDelay:    time.Hour,
		DegradationThreshold: 0.45,
		MinSampleSize:        20,
	}, logger)
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, tracker, store, logger)
	return router
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "healthy", response.Services.Storage)
	assert.Greater(t, response.System.Goroutines, 0)
}

func TestHealthEndpointDegradedStorage(t *testing.T) {
	router := newTestRouter(t, &stubStore{pingErr: errors.New("disk gone")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "degraded", response.Status)
	assert.Contains(t, response.Services.Storage, "disk gone")
}

func TestStatsEndpoint(t *testing.T) {
	doc := models.NewPerformanceDocument()
	doc.Stats.TotalSignals = 7
	doc.Stats.CheckedSignals = 3
	router := newTestRouter(t, &stubStore{doc: doc})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats models.PerformanceStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 7, stats.TotalSignals)
	assert.Equal(t, 3, stats.CheckedSignals)
}

func TestSignalsEndpoint(t *testing.T) {
	doc := models.NewPerformanceDocument()
	doc.Signals["BTCUSDT_1700000000"] = models.SignalPerformance{
		SignalID:   "BTCUSDT_1700000000",
		Symbol:     "BTCUSDT",
		SignalType: models.SignalBigPump,
		EntryPrice: 50000,
		Rating:     72,
	}
	router := newTestRouter(t, &stubStore{doc: doc})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Signals []models.SignalPerformance `json:"signals"`
		Count   int                        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, 1, response.Count)
	assert.Equal(t, "BTCUSDT", response.Signals[0].Symbol)
}
