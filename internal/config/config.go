// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes bot settings such as
// the Telegram credentials, upstream API endpoints, cooldown and timeout
// tuning, storage paths, logging, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "tikbot")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Telegram
	BotToken    string        // BOT_TOKEN (required)
	TelegramAPI string        // Bot API base URL
	PollTimeout time.Duration // long-poll timeout

	// Downloader
	TikwmAPI     string        // video resolver base URL
	Cooldown     time.Duration // per-chat minimum gap between handled messages
	FetchTimeout time.Duration // upstream metadata request deadline
	ChannelURL   string        // optional channel link shown on the main menu

	// Storage
	StatsPath string // usage counter JSON file
	DBPath    string // SQLite download history; empty disables history

	// Ops server
	OpsPort string // empty disables the ops HTTP listener
	GinMode string // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Telegram
		BotToken:    getenv("BOT_TOKEN", ""),
		TelegramAPI: strings.TrimRight(getenv("TELEGRAM_API_BASE", "https://api.telegram.org"), "/"),
		PollTimeout: getdur("POLL_TIMEOUT", 30*time.Second),

		// Downloader
		TikwmAPI:     strings.TrimRight(getenv("TIKWM_API_BASE", "https://www.tikwm.com"), "/"),
		Cooldown:     getdur("COOLDOWN", 3*time.Second),
		FetchTimeout: getdur("FETCH_TIMEOUT", 20*time.Second),
		ChannelURL:   getenv("CHANNEL_URL", ""),

		// Storage
		StatsPath: getenv("STATS_PATH", "stats.json"),
		DBPath:    getenv("DB_PATH", ""),

		// Ops server
		OpsPort: getenv("OPS_PORT", ""),
		GinMode: strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "tikbot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	if strings.TrimSpace(cfg.BotToken) == "" {
		return cfg, errors.New("BOT_TOKEN must not be empty")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if cfg.PollTimeout <= 0 {
		return cfg, errors.New("POLL_TIMEOUT must be a positive duration")
	}
	if cfg.Cooldown <= 0 {
		return cfg, errors.New("COOLDOWN must be a positive duration")
	}
	if cfg.FetchTimeout <= 0 {
		return cfg, errors.New("FETCH_TIMEOUT must be a positive duration")
	}
	if strings.TrimSpace(cfg.StatsPath) == "" {
		return cfg, errors.New("STATS_PATH must not be empty")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
