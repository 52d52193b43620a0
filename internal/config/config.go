// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// matching thresholds, data sources, and server behavior.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Sources
	EntriesSource   string        // CSV/HTML source for the Q&A entries (file path, http(s):// or s3:// URL)
	ChangesSource   string        // optional CSV source for the year-over-year change table
	SourceTimeout   time.Duration // per-fetch timeout
	RefreshInterval time.Duration // background reload period (0 = disabled)
	DBPath          string        // SQLite snapshot path

	// S3 Source Credentials (optional, for s3:// sources)
	S3Endpoint    string
	S3AccessKeyID string
	S3SecretKey   string

	// Matching Configuration
	ConfidentThreshold int
	SuggestThreshold   int
	SuggestCount       int
	MinQueryLen        int
	MaxYearSpan        int
	MaxListYearSpan    int

	// Reply Configuration
	PortalURL string // data portal linked in success footers

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Error Tracking
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		LineChannelToken:  getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineChannelSecret: getEnv("LINE_CHANNEL_SECRET", ""),

		Port:            getEnv("PORT", "10000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		EntriesSource:   getEnv("ENTRIES_SOURCE", ""),
		ChangesSource:   getEnv("CHANGES_SOURCE", ""),
		SourceTimeout:   getDurationEnv("SOURCE_TIMEOUT", 60*time.Second),
		RefreshInterval: getDurationEnv("REFRESH_INTERVAL", 24*time.Hour),
		DBPath:          getEnv("DB_PATH", "./data/snapshot.db"),

		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID: getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("S3_SECRET_ACCESS_KEY", ""),

		ConfidentThreshold: getIntEnv("CONFIDENT_THRESHOLD", 80),
		SuggestThreshold:   getIntEnv("SUGGEST_THRESHOLD", 60),
		SuggestCount:       getIntEnv("SUGGEST_COUNT", 5),
		MinQueryLen:        getIntEnv("MIN_QUERY_LEN", 3),
		MaxYearSpan:        getIntEnv("MAX_YEAR_SPAN", 5),
		MaxListYearSpan:    getIntEnv("MAX_LIST_YEAR_SPAN", 10),

		PortalURL: getEnv("PORTAL_URL", ""),

		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "production"),
		SentryRelease:     getEnv("SENTRY_RELEASE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.LineChannelToken == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_ACCESS_TOKEN is required"))
	}
	if c.LineChannelSecret == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_SECRET is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.EntriesSource == "" {
		errs = append(errs, errors.New("ENTRIES_SOURCE is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH is required"))
	}
	if c.SourceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SOURCE_TIMEOUT must be positive, got %v", c.SourceTimeout))
	}
	if c.ConfidentThreshold < c.SuggestThreshold {
		errs = append(errs, fmt.Errorf("CONFIDENT_THRESHOLD (%d) must not be below SUGGEST_THRESHOLD (%d)",
			c.ConfidentThreshold, c.SuggestThreshold))
	}
	if c.SuggestCount <= 0 {
		errs = append(errs, fmt.Errorf("SUGGEST_COUNT must be positive, got %d", c.SuggestCount))
	}
	if c.MinQueryLen <= 0 {
		errs = append(errs, fmt.Errorf("MIN_QUERY_LEN must be positive, got %d", c.MinQueryLen))
	}
	if c.MaxYearSpan <= 0 || c.MaxListYearSpan <= 0 {
		errs = append(errs, errors.New("year span limits must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
