package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/ivstanko/cryptoscan/internal/services"
	"github.com/ivstanko/cryptoscan/internal/storage"
)

var startTime = time.Now()

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	Services  Services  `json:"services"`
	System    System    `json:"system"`
}

type Services struct {
	Storage string `json:"storage"`
}

type System struct {
	Goroutines    int     `json:"goroutines"`
	MemoryUsedPct float64 `json:"memory_used_pct"`
}

// SetupRoutes registers the operational endpoints: liveness plus
// read-only views over the performance tracker.
func SetupRoutes(router *gin.Engine, tracker *services.PerformanceTracker, store storage.SignalStore, logger *logrus.Logger) {
	router.GET("/health", healthCheck(store, logger))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/stats", getStats(tracker))
		v1.GET("/signals", getSignals(tracker))
	}
}

func healthCheck(store storage.SignalStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Uptime:    time.Since(startTime).String(),
			Services:  Services{Storage: "healthy"},
			System:    System{Goroutines: runtime.NumGoroutine()},
		}

		if err := store.Ping(c.Request.Context()); err != nil {
			logger.WithField("error", err.Error()).Warn("Storage health check failed")
			response.Status = "degraded"
			response.Services.Storage = "unhealthy: " + err.Error()
		}

		if vm, err := mem.VirtualMemory(); err == nil {
			response.System.MemoryUsedPct = vm.UsedPercent
		}

		status := http.StatusOK
		if response.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, response)
	}
}

func getStats(tracker *services.PerformanceTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, tracker.Stats())
	}
}

func getSignals(tracker *services.PerformanceTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		signals := tracker.Signals()
		c.JSON(http.StatusOK, gin.H{
			"signals": signals,
			"count":   len(signals),
		})
	}
}
