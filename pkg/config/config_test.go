package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Listen)
	}
	if cfg.RateLimit.Limit != 5 || cfg.RateLimit.Window != time.Minute {
		t.Errorf("expected 5 per minute, got %d per %v", cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}
	if cfg.RateLimit.FailureMode != "open" {
		t.Errorf("expected fail-open default, got %s", cfg.RateLimit.FailureMode)
	}
	if cfg.Chat.MaxMessageChars != 1500 {
		t.Errorf("expected 1500 chars, got %d", cfg.Chat.MaxMessageChars)
	}
	if cfg.Cache.Enabled {
		t.Error("cache must be opt-in")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "askme.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "gk-test-123")

	path := writeConfig(t, `
listen: ":9090"
locale: id
gemini:
  api_key: ${TEST_GEMINI_KEY}
  timeout: 30s
rate_limit:
  limit: 10
  window: 2m
  failure_mode: closed
  backend: redis
  redis:
    addr: redis:6379
cache:
  enabled: true
  ttl: 30m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Listen)
	}
	if cfg.Gemini.APIKey != "gk-test-123" {
		t.Errorf("env var not expanded: got %s", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Gemini.Timeout)
	}
	if cfg.RateLimit.Limit != 10 || cfg.RateLimit.Window != 2*time.Minute {
		t.Errorf("expected 10 per 2m, got %d per %v", cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}
	if cfg.RateLimit.Redis.Addr != "redis:6379" {
		t.Errorf("expected redis:6379, got %s", cfg.RateLimit.Redis.Addr)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("expected 30m TTL, got %v", cfg.Cache.TTL)
	}
	// Unset keys keep their defaults.
	if cfg.Chat.MaxMessageChars != 1500 {
		t.Errorf("expected default 1500 chars, got %d", cfg.Chat.MaxMessageChars)
	}
	if cfg.Cache.DBPath != "askme.db" {
		t.Errorf("expected default db path, got %s", cfg.Cache.DBPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv(APIKeyEnv, "from-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gemini.APIKey != "from-env" {
		t.Errorf("expected key from %s, got %q", APIKeyEnv, cfg.Gemini.APIKey)
	}

	cfg, err = Load(writeConfig(t, "gemini:\n  api_key: explicit\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gemini.APIKey != "explicit" {
		t.Errorf("file value should win, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, "rate_limit: [1, 2"))
	if err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen", func(c *Config) { c.Listen = "" }},
		{"unknown locale", func(c *Config) { c.Locale = "fr" }},
		{"zero message limit", func(c *Config) { c.Chat.MaxMessageChars = 0 }},
		{"negative history", func(c *Config) { c.Chat.MaxHistory = -1 }},
		{"unknown persona", func(c *Config) { c.Chat.DefaultMode = "pirate" }},
		{"zero quota", func(c *Config) { c.RateLimit.Limit = 0 }},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }},
		{"sub-millisecond window", func(c *Config) { c.RateLimit.Window = 500 * time.Microsecond }},
		{"zero sweep interval", func(c *Config) { c.RateLimit.SweepInterval = 0 }},
		{"negative sweep interval", func(c *Config) { c.RateLimit.SweepInterval = -time.Second }},
		{"bad failure mode", func(c *Config) { c.RateLimit.FailureMode = "sometimes" }},
		{"bad backend", func(c *Config) { c.RateLimit.Backend = "memcached" }},
		{"redis without addr", func(c *Config) {
			c.RateLimit.Backend = "redis"
			c.RateLimit.Redis.Addr = ""
		}},
		{"scraper without rate", func(c *Config) { c.Scraper.RPS = 0 }},
		{"cache without path", func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.DBPath = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestRedisBackendIgnoresSweepInterval(t *testing.T) {
	cfg := Default()
	cfg.RateLimit.Backend = "redis"
	cfg.RateLimit.SweepInterval = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("redis keys expire on their own, got %v", err)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("ASKME_TEST_DOTENV=loaded\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ASKME_TEST_DOTENV", "")
	os.Unsetenv("ASKME_TEST_DOTENV")

	if err := LoadEnvFiles(filepath.Join(dir, ".env.local"), envFile); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("ASKME_TEST_DOTENV"); got != "loaded" {
		t.Errorf("expected loaded, got %q", got)
	}
}

func TestExampleConfigLoads(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "example-key")

	cfg, err := Load(filepath.Join("..", "..", "askme.example.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("example config invalid: %v", err)
	}
	if cfg.Gemini.APIKey != "example-key" {
		t.Errorf("expected expanded key, got %q", cfg.Gemini.APIKey)
	}
	if len(cfg.RateLimit.KeyHeaders) != 1 || cfg.RateLimit.KeyHeaders[0] != "X-Forwarded-For" {
		t.Errorf("unexpected key headers: %v", cfg.RateLimit.KeyHeaders)
	}
}
