package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
server:
  listen_addr: ":8080"
  timeout: 5s
storage:
  path: /var/lib/isstracker
  compression_level: 2
geocoder:
  cache_size: 10
  cache_ttl: 1h
logging:
  levels:
    storage: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("Expected listen addr :8080, got %s", cfg.Server.ListenAddr)
	}
	if cfg.Server.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %s", cfg.Server.Timeout)
	}
	if cfg.Storage.Path != "/var/lib/isstracker" || cfg.Storage.CompressionLevel != 2 {
		t.Errorf("Unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Geocoder.CacheSize != 10 || cfg.Geocoder.CacheTTL != time.Hour {
		t.Errorf("Unexpected geocoder config: %+v", cfg.Geocoder)
	}

	// untouched sections keep their defaults
	if cfg.Feed.URL == "" {
		t.Error("Expected default feed URL")
	}
	if cfg.Logging.Levels["storage"] != "debug" || cfg.Logging.Levels[logger.DefaultTag] != "info" {
		t.Errorf("Unexpected levels: %v", cfg.Logging.Levels)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":7000")
	t.Setenv("STORAGE_IN_MEMORY", "true")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.ListenAddr != ":7000" {
		t.Errorf("Expected :7000, got %s", cfg.Server.ListenAddr)
	}
	if !cfg.Storage.InMemory {
		t.Error("Expected in-memory storage")
	}
	if cfg.Logging.Levels[logger.DefaultTag] != "warn" {
		t.Errorf("Expected warn level, got %v", cfg.Logging.Levels)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen address", func(c *Config) { c.Server.ListenAddr = "" }},
		{"compression too high", func(c *Config) { c.Storage.CompressionLevel = 5 }},
		{"no storage path", func(c *Config) { c.Storage.Path = "" }},
		{"bad geocoder url", func(c *Config) { c.Geocoder.BaseURL = "not a url" }},
		{"no user agent", func(c *Config) { c.Geocoder.UserAgent = "" }},
		{"bad log level", func(c *Config) { c.Logging.Levels["api"] = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadBadFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := writeFile(t, "server: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()

	sc := cfg.ToStorageConfig()
	if sc.Path != cfg.Storage.Path || sc.CompressionLevel != cfg.Storage.CompressionLevel {
		t.Errorf("Unexpected storage config: %+v", sc)
	}
	if fc := cfg.ToFeedConfig(); fc.URL != cfg.Feed.URL {
		t.Errorf("Unexpected feed config: %+v", fc)
	}
	if nc := cfg.ToNominatimConfig(); nc.RequestsPerSecond != 1 {
		t.Errorf("Unexpected nominatim config: %+v", nc)
	}
	if lc := cfg.ToLoggerConfig(); lc.File != "isstracker.log" {
		t.Errorf("Unexpected logger config: %+v", lc)
	}
}
