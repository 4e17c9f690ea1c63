package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Market      MarketConfig     `mapstructure:"market"`
	Scanner     ScannerConfig    `mapstructure:"scanner"`
	Risk        RiskConfig       `mapstructure:"risk"`
	Tracker     TrackerConfig    `mapstructure:"tracker"`
	Filters     FilterConfig     `mapstructure:"filters"`
	Reference   ReferenceConfig  `mapstructure:"reference"`
	Profile     ProfileConfig    `mapstructure:"profile"`
	Whale       WhaleConfig      `mapstructure:"whale"`
	Storage     StorageConfig    `mapstructure:"storage"`
	Telegram    TelegramConfig   `mapstructure:"telegram"`
	Logs        LogSinkConfig    `mapstructure:"logs"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// MarketConfig covers the upstream API: per-request timeout, bounded
// retries with a fixed delay, and the kline limits per timeframe.
type MarketConfig struct {
	Timeout     time.Duration     `mapstructure:"timeout"`
	MaxRetries  int               `mapstructure:"max_retries"`
	RetryDelay  time.Duration     `mapstructure:"retry_delay"`
	Intervals   map[string]string `mapstructure:"intervals"`
	KlineLimits map[string]int    `mapstructure:"kline_limits"`
	CacheTTL    time.Duration     `mapstructure:"cache_ttl"`
	QuoteSuffix string            `mapstructure:"quote_suffix"`
}

type ScannerConfig struct {
	BaseMinScore    int           `mapstructure:"base_min_score"`
	CooldownSeconds int           `mapstructure:"cooldown_seconds"`
	Concurrency     int           `mapstructure:"concurrency"`
	ScanInterval    time.Duration `mapstructure:"scan_interval"`
	ErrorBackoff    time.Duration `mapstructure:"error_backoff"`
	MaxSignals      int           `mapstructure:"max_signals"`
	StatsFrequency  int           `mapstructure:"stats_frequency"`
	EnableCharts    bool          `mapstructure:"enable_charts"`
}

type RiskConfig struct {
	AccountSizeUSDT float64 `mapstructure:"account_size_usdt"`
	RiskPerTrade    float64 `mapstructure:"risk_per_trade"`
	ATRMultSL       float64 `mapstructure:"atr_mult_sl"`
	ATRMultTP1      float64 `mapstructure:"atr_mult_tp1"`
	ATRMultTP2      float64 `mapstructure:"atr_mult_tp2"`
}

type TrackerConfig struct {
	OutcomeCheckDelay    time.Duration `mapstructure:"outcome_check_delay"`
	DegradationThreshold float64       `mapstructure:"degradation_threshold"`
	MinSampleSize        int           `mapstructure:"min_sample_size"`
}

type FilterConfig struct {
	StrictnessLevel       string `mapstructure:"strictness_level"`
	ReversalRequiresState bool   `mapstructure:"reversal_requires_state"`
	ReversalMinDelayBars  int    `mapstructure:"reversal_min_delay_bars"`
	ReversalMinScoreBonus int    `mapstructure:"reversal_min_score_bonus"`
}

// ReferenceConfig controls the benchmark-instrument regime context.
type ReferenceConfig struct {
	Symbol               string        `mapstructure:"symbol"`
	ContextTTL           time.Duration `mapstructure:"context_ttl"`
	CorrelationThreshold int           `mapstructure:"correlation_threshold"`
}

type ProfileConfig struct {
	Levels int `mapstructure:"levels"`
}

type WhaleConfig struct {
	ThresholdMultiplier float64 `mapstructure:"threshold_multiplier"`
	Depth               int     `mapstructure:"depth"`
	BiasRatio           float64 `mapstructure:"bias_ratio"`
}

// StorageConfig selects the durable backend for signal performance
// records. Backend is one of file, redis, postgres.
type StorageConfig struct {
	Backend     string `mapstructure:"backend"`
	FilePath    string `mapstructure:"file_path"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisDB     int    `mapstructure:"redis_db"`
	RedisKey    string `mapstructure:"redis_key"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type LogSinkConfig struct {
	SignalsPath  string `mapstructure:"signals_path"`
	CriticalPath string `mapstructure:"critical_path"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_BOT_TOKEN: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Environment = strings.ToLower(cfg.Environment)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate applies the same range checks the operator documentation
// promises; a config outside these ranges refuses to start.
func (c *Config) Validate() error {
	if c.Scanner.BaseMinScore < 40 || c.Scanner.BaseMinScore > 90 {
		return fmt.Errorf("scanner.base_min_score must be between 40 and 90, got %d", c.Scanner.BaseMinScore)
	}
	if c.Scanner.Concurrency < 1 {
		return fmt.Errorf("scanner.concurrency must be >= 1, got %d", c.Scanner.Concurrency)
	}
	if c.Risk.RiskPerTrade < 0.01 || c.Risk.RiskPerTrade > 0.1 {
		return fmt.Errorf("risk.risk_per_trade must be between 0.01 and 0.1, got %v", c.Risk.RiskPerTrade)
	}
	if c.Risk.AccountSizeUSDT <= 0 {
		return fmt.Errorf("risk.account_size_usdt must be positive, got %v", c.Risk.AccountSizeUSDT)
	}
	switch c.Filters.StrictnessLevel {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("filters.strictness_level must be low, medium or high, got %q", c.Filters.StrictnessLevel)
	}
	switch c.Storage.Backend {
	case "file", "redis", "postgres":
	default:
		return fmt.Errorf("storage.backend must be file, redis or postgres, got %q", c.Storage.Backend)
	}
	return nil
}

// Cooldown returns the per-symbol signal cooldown as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Scanner.CooldownSeconds) * time.Second
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)

	viper.SetDefault("market.timeout", "10s")
	viper.SetDefault("market.max_retries", 3)
	viper.SetDefault("market.retry_delay", "5s")
	viper.SetDefault("market.cache_ttl", "60s")
	viper.SetDefault("market.quote_suffix", "USDT")
	viper.SetDefault("market.intervals", map[string]string{
		"1m": "1", "15m": "15", "1h": "60", "4h": "240",
	})
	viper.SetDefault("market.kline_limits", map[string]int{
		"1m": 120, "15m": 96, "1h": 96, "4h": 96,
	})

	viper.SetDefault("scanner.base_min_score", 60)
	viper.SetDefault("scanner.cooldown_seconds", 300)
	viper.SetDefault("scanner.concurrency", 10)
	viper.SetDefault("scanner.scan_interval", "30s")
	viper.SetDefault("scanner.error_backoff", "5s")
	viper.SetDefault("scanner.max_signals", 10)
	viper.SetDefault("scanner.stats_frequency", 10)
	viper.SetDefault("scanner.enable_charts", true)

	viper.SetDefault("risk.account_size_usdt", 1000.0)
	viper.SetDefault("risk.risk_per_trade", 0.02)
	viper.SetDefault("risk.atr_mult_sl", 1.5)
	viper.SetDefault("risk.atr_mult_tp1", 3.0)
	viper.SetDefault("risk.atr_mult_tp2", 4.5)

	viper.SetDefault("tracker.outcome_check_delay", "15m")
	viper.SetDefault("tracker.degradation_threshold", 0.45)
	viper.SetDefault("tracker.min_sample_size", 20)

	viper.SetDefault("filters.strictness_level", "medium")
	viper.SetDefault("filters.reversal_requires_state", false)
	viper.SetDefault("filters.reversal_min_delay_bars", 3)
	viper.SetDefault("filters.reversal_min_score_bonus", 0)

	viper.SetDefault("reference.symbol", "BTCUSDT")
	viper.SetDefault("reference.context_ttl", "120s")
	viper.SetDefault("reference.correlation_threshold", 5)

	viper.SetDefault("profile.levels", 20)

	viper.SetDefault("whale.threshold_multiplier", 10.0)
	viper.SetDefault("whale.depth", 20)
	viper.SetDefault("whale.bias_ratio", 1.5)

	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.file_path", "signal_performance.json")
	viper.SetDefault("storage.redis_addr", "localhost:6379")
	viper.SetDefault("storage.redis_db", 0)
	viper.SetDefault("storage.redis_key", "cryptoscan:performance")
	viper.SetDefault("storage.postgres_dsn", "")

	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", 0)

	viper.SetDefault("logs.signals_path", "signals.log")
	viper.SetDefault("logs.critical_path", "critical_errors.log")
}
