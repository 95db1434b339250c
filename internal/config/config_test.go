package config

import (
	"testing"
	"time"
)

// setBase sets the minimum valid environment for Load.
func setBase(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:ABC")
}

func TestLoadDefaults(t *testing.T) {
	setBase(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BotToken != "123:ABC" {
		t.Errorf("BotToken = %q", cfg.BotToken)
	}
	if cfg.TelegramAPI != "https://api.telegram.org" {
		t.Errorf("TelegramAPI = %q", cfg.TelegramAPI)
	}
	if cfg.TikwmAPI != "https://www.tikwm.com" {
		t.Errorf("TikwmAPI = %q", cfg.TikwmAPI)
	}
	if cfg.Cooldown != 3*time.Second {
		t.Errorf("Cooldown = %v, want 3s", cfg.Cooldown)
	}
	if cfg.FetchTimeout != 20*time.Second {
		t.Errorf("FetchTimeout = %v, want 20s", cfg.FetchTimeout)
	}
	if cfg.PollTimeout != 30*time.Second {
		t.Errorf("PollTimeout = %v, want 30s", cfg.PollTimeout)
	}
	if cfg.StatsPath != "stats.json" {
		t.Errorf("StatsPath = %q", cfg.StatsPath)
	}
	if cfg.DBPath != "" {
		t.Errorf("DBPath = %q, want empty (history disabled)", cfg.DBPath)
	}
	if cfg.OpsPort != "" {
		t.Errorf("OpsPort = %q, want empty (ops disabled)", cfg.OpsPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.OTEL.Enabled {
		t.Error("OTEL should default to disabled")
	}
	if cfg.OTEL.ServiceName != "tikbot" {
		t.Errorf("OTEL.ServiceName = %q", cfg.OTEL.ServiceName)
	}
}

func TestLoadOverrides(t *testing.T) {
	setBase(t)
	t.Setenv("TELEGRAM_API_BASE", "http://localhost:8081/")
	t.Setenv("TIKWM_API_BASE", "http://localhost:8082/")
	t.Setenv("COOLDOWN", "5s")
	t.Setenv("FETCH_TIMEOUT", "10s")
	t.Setenv("STATS_PATH", "/var/lib/tikbot/stats.json")
	t.Setenv("DB_PATH", "/var/lib/tikbot/history.db")
	t.Setenv("OPS_PORT", "9090")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("CHANNEL_URL", "https://t.me/example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramAPI != "http://localhost:8081" {
		t.Errorf("TelegramAPI = %q, trailing slash should be trimmed", cfg.TelegramAPI)
	}
	if cfg.TikwmAPI != "http://localhost:8082" {
		t.Errorf("TikwmAPI = %q", cfg.TikwmAPI)
	}
	if cfg.Cooldown != 5*time.Second || cfg.FetchTimeout != 10*time.Second {
		t.Errorf("durations = %v/%v", cfg.Cooldown, cfg.FetchTimeout)
	}
	if cfg.DBPath != "/var/lib/tikbot/history.db" || cfg.OpsPort != "9090" {
		t.Errorf("paths = %q/%q", cfg.DBPath, cfg.OpsPort)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want normalized warn", cfg.LogLevel)
	}
	if !cfg.LogPretty {
		t.Error("LogPretty = false, want true")
	}
	if cfg.ChannelURL != "https://t.me/example" {
		t.Errorf("ChannelURL = %q", cfg.ChannelURL)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]struct {
		key   string
		value string
	}{
		"missing token":   {"BOT_TOKEN", ""},
		"bad log level":   {"LOG_LEVEL", "verbose"},
		"bad cooldown":    {"COOLDOWN", "-1s"},
		"bad fetch":       {"FETCH_TIMEOUT", "-1s"},
		"bad poll":        {"POLL_TIMEOUT", "-1s"},
		"bad otel sample": {"OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			setBase(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load should fail with %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestLoadIgnoresUnparsableOptionals(t *testing.T) {
	setBase(t)
	t.Setenv("COOLDOWN", "not-a-duration")
	t.Setenv("LOG_PRETTY", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cooldown != 3*time.Second {
		t.Errorf("Cooldown = %v, want default on parse failure", cfg.Cooldown)
	}
	if cfg.LogPretty {
		t.Error("LogPretty should keep its default on parse failure")
	}
}

func TestMustLoadPanicsOnInvalid(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	defer func() {
		if recover() == nil {
			t.Fatal("MustLoad should panic without BOT_TOKEN")
		}
	}()
	MustLoad()
}
