// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	// Content provider (OpenAI-compatible chat completions).
	ContentAPIBase string
	ContentAPIKey  string
	ContentModel   string

	// Publication provider base URL; credentials are per-bot, from the store.
	PublishAPIBase string

	// Live-data providers. Keyless sources are always available; news and
	// weather are disabled globally when their key is absent.
	CoinAPIBase    string
	NewsAPIBase    string
	NewsAPIKey     string
	WeatherAPIBase string
	WeatherAPIKey  string
	RatesAPIBase   string

	// Run pipeline bounds.
	RunTimeout    time.Duration
	HistoryLimit  int
	MaxPostLength int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/botcast.db"),

		ContentAPIBase: getEnv("CONTENT_API_BASE", ""),
		ContentAPIKey:  getEnv("CONTENT_API_KEY", ""),
		ContentModel:   getEnv("CONTENT_MODEL", ""),

		PublishAPIBase: getEnv("PUBLISH_API_BASE", ""),

		CoinAPIBase:    getEnv("COIN_API_BASE", ""),
		NewsAPIBase:    getEnv("NEWS_API_BASE", ""),
		NewsAPIKey:     getEnv("NEWS_API_KEY", ""),
		WeatherAPIBase: getEnv("WEATHER_API_BASE", ""),
		WeatherAPIKey:  getEnv("WEATHER_API_KEY", ""),
		RatesAPIBase:   getEnv("RATES_API_BASE", ""),

		RunTimeout:    getEnvDuration("RUN_TIMEOUT", 2*time.Minute),
		HistoryLimit:  getEnvInt("HISTORY_LIMIT", 25),
		MaxPostLength: getEnvInt("MAX_POST_LENGTH", 280),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.ContentAPIKey == "" {
		return fmt.Errorf("CONTENT_API_KEY is required")
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("RUN_TIMEOUT must be > 0")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be > 0")
	}
	// The ellipsis appended on truncation needs room.
	if c.MaxPostLength < 4 {
		return fmt.Errorf("MAX_POST_LENGTH must be >= 4")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
