package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Quota.DailyLimit != 50 {
		t.Fatalf("expected daily limit 50, got %d", cfg.Quota.DailyLimit)
	}
	if cfg.Quota.KeyPrefix != "pdfcraft_usage" {
		t.Fatalf("expected default key prefix, got %q", cfg.Quota.KeyPrefix)
	}
	if cfg.Storage.Type != "bolt" {
		t.Fatalf("expected bolt storage by default, got %q", cfg.Storage.Type)
	}
	if cfg.Burst.RetryAfter != time.Second {
		t.Fatalf("expected retry_after=1s, got %s", cfg.Burst.RetryAfter)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
quota:
  daily_limit: 3
storage:
  type: redis
  redis:
    addr: localhost:6379
concurrency:
  timeout: 250ms
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PDFCRAFT_QUOTA_KEY_HEADER", "X-Api-Key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Quota.DailyLimit != 3 {
		t.Fatalf("expected daily limit from file, got %d", cfg.Quota.DailyLimit)
	}
	if cfg.Quota.KeyHeader != "X-Api-Key" {
		t.Fatalf("expected key header from env, got %q", cfg.Quota.KeyHeader)
	}
	if cfg.Storage.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.Storage.Redis.Addr)
	}
	if cfg.Concurrency.Timeout != 250*time.Millisecond {
		t.Fatalf("expected 250ms timeout, got %s", cfg.Concurrency.Timeout)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoad_StatsWithoutMetricsEndpoint(t *testing.T) {
	t.Setenv("PDFCRAFT_SERVER_METRICS", "false")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "server.metrics") {
		t.Fatalf("expected prometheus stats without /metrics to be rejected, got %v", err)
	}

	t.Setenv("PDFCRAFT_STATS_TYPE", "memory")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Metrics || cfg.Stats.Type != "memory" {
		t.Fatalf("expected metrics off with memory stats, got metrics=%v stats=%q", cfg.Server.Metrics, cfg.Stats.Type)
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"limit", func(c *Config) { c.Quota.DailyLimit = 0 }, "daily_limit"},
		{"storage", func(c *Config) { c.Storage.Type = "floppy" }, "storage.type"},
		{"redis addr", func(c *Config) { c.Storage.Type = "redis"; c.Storage.Redis.Addr = "" }, "storage.redis.addr"},
		{"valkey addrs", func(c *Config) { c.Storage.Type = "valkey" }, "storage.valkey.addrs"},
		{"stats", func(c *Config) { c.Stats.Type = "statsd" }, "stats.type"},
		{"prometheus without metrics", func(c *Config) { c.Stats.Type = "prometheus"; c.Server.Metrics = false }, "server.metrics"},
		{"burst", func(c *Config) { c.Burst.RPS = 0 }, "burst.rps"},
		{"timezone", func(c *Config) { c.Quota.Timezone = "Mars/Olympus" }, "quota.timezone"},
	}
	for _, tc := range cases {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("%s: load: %v", tc.name, err)
		}
		tc.mutate(cfg)
		err = cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected error mentioning %q, got %v", tc.name, tc.want, err)
		}
	}
}
