package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ivstanko/cryptoscan/internal/api"
	"github.com/ivstanko/cryptoscan/internal/config"
	"github.com/ivstanko/cryptoscan/internal/detect"
	"github.com/ivstanko/cryptoscan/internal/logging"
	"github.com/ivstanko/cryptoscan/internal/market"
	"github.com/ivstanko/cryptoscan/internal/notify"
	"github.com/ivstanko/cryptoscan/internal/services"
	"github.com/ivstanko/cryptoscan/internal/storage"
)

func main() {
	// Local overrides for development; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)
	signalSink := logging.NewFileSink(cfg.Logs.SignalsPath)
	criticalLog := logging.NewFileSink(cfg.Logs.CriticalPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := market.NewRetryClient(
		market.NewBybitClient("", cfg.Market.Timeout, logger),
		cfg.Market.Timeout, cfg.Market.MaxRetries, cfg.Market.RetryDelay, logger)
	klines := market.NewKlineCache(client, cfg.Market.CacheTTL, logger)

	store, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to initialize storage")
	}
	defer cleanup()

	tracker, err := services.NewPerformanceTracker(ctx, store, client, cfg.Tracker, logger)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to initialize performance tracker")
	}

	notifier := buildNotifier(cfg, logger)

	reference := services.NewReferenceService(klines, cfg.Reference.Symbol, cfg.Reference.ContextTTL, logger)
	state := services.NewSymbolStateService(cfg.Cooldown())
	pipeline := services.NewScoringPipeline(detect.NewDefaultFilter(), cfg.Risk)

	analyzer := services.NewAnalyzer(services.AnalyzerDeps{
		Config:      cfg,
		Klines:      klines,
		Client:      client,
		Reference:   reference,
		State:       state,
		Tracker:     tracker,
		Pipeline:    pipeline,
		Pump:        detect.NewBaselinePump(),
		Dump:        detect.NewBaselineDump(),
		Reversal:    detect.NewBaselineReversal(),
		Logger:      logger,
		SignalSink:  signalSink,
		CriticalLog: criticalLog,
	})

	scanner := services.NewScanner(services.ScannerDeps{
		Config:      cfg,
		Client:      client,
		Analyzer:    analyzer,
		Tracker:     tracker,
		Klines:      klines,
		Notifier:    notifier,
		Charts:      notify.NoopRenderer{},
		Logger:      logger,
		CriticalLog: criticalLog,
	})

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, tracker, store, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Ops server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithField("error", err.Error()).Fatal("Ops server failed")
		}
	}()

	logger.WithFields(logrus.Fields{
		"reference": cfg.Reference.Symbol,
		"backend":   cfg.Storage.Backend,
	}).Info("Scanner starting")

	scanner.Run(ctx)

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithField("error", err.Error()).Warn("Ops server shutdown failed")
	}
	logger.Info("Scanner exited")
}

// buildStore picks the durable backend from configuration. The cleanup
// func closes whatever connection the backend holds.
func buildStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (storage.SignalStore, func(), error) {
	switch cfg.Storage.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Storage.RedisAddr,
			DB:   cfg.Storage.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return storage.NewRedisStore(client, cfg.Storage.RedisKey), func() { _ = client.Close() }, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		store := storage.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	default:
		return storage.NewFileStore(cfg.Storage.FilePath), func() {}, nil
	}
}

// buildNotifier returns the telegram notifier when a token is set, the
// log fallback otherwise.
func buildNotifier(cfg *config.Config, logger *logrus.Logger) notify.Notifier {
	if cfg.Telegram.BotToken == "" {
		logger.Warn("No telegram token configured, notifications go to the log")
		return notify.NewLogNotifier(logger)
	}
	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
	if err != nil {
		logger.WithField("error", err.Error()).Warn("Telegram setup failed, notifications go to the log")
		return notify.NewLogNotifier(logger)
	}
	return notifier
}
