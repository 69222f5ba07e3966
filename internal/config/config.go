package config

import (
	"fmt"
	"os"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vjranagit/isstracker/pkg/feed"
	"github.com/vjranagit/isstracker/pkg/geo"
	"github.com/vjranagit/isstracker/pkg/storage"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Feed     FeedConfig     `yaml:"feed"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	ListenAddr string        `yaml:"listen_addr" validate:"required"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Path             string `yaml:"path" validate:"required_without=InMemory"`
	CompressionLevel int    `yaml:"compression_level" validate:"min=1,max=4"`
	InMemory         bool   `yaml:"in_memory"`
	SyncWrites       bool   `yaml:"sync_writes"`
}

// FeedConfig holds upstream trajectory feed configuration
type FeedConfig struct {
	URL           string        `yaml:"url" validate:"required"`
	Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
	UserAgent     string        `yaml:"user_agent"`
	IngestOnStart bool          `yaml:"ingest_on_start"`
}

// GeocoderConfig holds reverse geocoder configuration
type GeocoderConfig struct {
	BaseURL           string        `yaml:"base_url" validate:"required,url"`
	UserAgent         string        `yaml:"user_agent" validate:"required"`
	Language          string        `yaml:"language"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gte=0"`
	CacheSize         int           `yaml:"cache_size" validate:"gte=0"`
	CacheTTL          time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

// LoggingConfig holds log file configuration
type LoggingConfig struct {
	Directory string            `yaml:"directory" validate:"required"`
	File      string            `yaml:"file" validate:"required"`
	Size      int               `yaml:"size" validate:"gte=20000"`
	Count     int               `yaml:"count" validate:"min=2,max=100"`
	Console   bool              `yaml:"console"`
	Levels    map[string]string `yaml:"levels" validate:"dive,oneof=trace debug info warn error critical off"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":5000",
			Timeout:    30 * time.Second,
		},
		Storage: StorageConfig{
			Path:             "./data",
			CompressionLevel: 3,
		},
		Feed: FeedConfig{
			URL:           feed.DefaultURL,
			Timeout:       30 * time.Second,
			UserAgent:     "isstracker",
			IngestOnStart: true,
		},
		Geocoder: GeocoderConfig{
			BaseURL:           geo.DefaultBaseURL,
			UserAgent:         "isstracker",
			Language:          "en",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 1,
			CacheSize:         1024,
			CacheTTL:          24 * time.Hour,
		},
		Logging: LoggingConfig{
			Directory: "./log",
			File:      "isstracker.log",
			Size:      1048576,
			Count:     10,
			Levels: map[string]string{
				logger.DefaultTag: "info",
			},
		},
	}
}

// Load returns the defaults, overlaid with the YAML file at path (if
// non-empty) and then with environment variables, and validates the result
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from the environment
func (c *Config) applyEnv() {
	c.Server.ListenAddr = getEnv("LISTEN_ADDR", c.Server.ListenAddr)
	c.Storage.Path = getEnv("STORAGE_PATH", c.Storage.Path)
	c.Storage.CompressionLevel = getEnvInt("COMPRESSION_LEVEL", c.Storage.CompressionLevel)
	c.Storage.InMemory = getEnvBool("STORAGE_IN_MEMORY", c.Storage.InMemory)
	c.Feed.URL = getEnv("FEED_URL", c.Feed.URL)
	c.Feed.IngestOnStart = getEnvBool("INGEST_ON_START", c.Feed.IngestOnStart)
	c.Geocoder.BaseURL = getEnv("GEOCODER_URL", c.Geocoder.BaseURL)
	c.Geocoder.UserAgent = getEnv("GEOCODER_USER_AGENT", c.Geocoder.UserAgent)
	c.Geocoder.CacheSize = getEnvInt("GEOCODER_CACHE_SIZE", c.Geocoder.CacheSize)
	c.Logging.Directory = getEnv("LOG_DIRECTORY", c.Logging.Directory)
	c.Logging.Console = getEnvBool("LOG_CONSOLE", c.Logging.Console)
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		levels := make(map[string]string, len(c.Logging.Levels)+1)
		for k, v := range c.Logging.Levels {
			levels[k] = v
		}
		levels[logger.DefaultTag] = level
		c.Logging.Levels = levels
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ToStorageConfig converts to storage.Config
func (c *Config) ToStorageConfig() *storage.Config {
	return &storage.Config{
		Path:             c.Storage.Path,
		CompressionLevel: c.Storage.CompressionLevel,
		InMemory:         c.Storage.InMemory,
		SyncWrites:       c.Storage.SyncWrites,
	}
}

// ToFeedConfig converts to feed.Config
func (c *Config) ToFeedConfig() feed.Config {
	return feed.Config{
		URL:       c.Feed.URL,
		Timeout:   c.Feed.Timeout,
		UserAgent: c.Feed.UserAgent,
	}
}

// ToNominatimConfig converts to geo.NominatimConfig
func (c *Config) ToNominatimConfig() geo.NominatimConfig {
	return geo.NominatimConfig{
		BaseURL:           c.Geocoder.BaseURL,
		UserAgent:         c.Geocoder.UserAgent,
		Language:          c.Geocoder.Language,
		Timeout:           c.Geocoder.Timeout,
		RequestsPerSecond: c.Geocoder.RequestsPerSecond,
	}
}

// ToLoggerConfig converts to logger.Configuration
func (c *Config) ToLoggerConfig() logger.Configuration {
	return logger.Configuration{
		Directory: c.Logging.Directory,
		File:      c.Logging.File,
		Size:      c.Logging.Size,
		Count:     c.Logging.Count,
		Console:   c.Logging.Console,
		Levels:    c.Logging.Levels,
	}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
