// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for the database file (always absolute)
	DatabasePath string // Full path to the SQLite database file
	LogLevel     string
	Port         int
	DevMode      bool
	PriceFeed    PriceFeedConfig
	SyncSchedule string // Cron spec for the daily price refresh job
}

// PriceFeedConfig holds the retry policy for the external price feed.
// Retries belong to the feed collaborator only; core operations never retry.
type PriceFeedConfig struct {
	BaseURL    string
	Retries    int
	RetryDelay time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// PORTFOLIO_DATA_DIR env var, defaulting to ./data, always resolved
	// to an absolute path and created if missing.
	dataDir := getEnv("PORTFOLIO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		DatabasePath: filepath.Join(absDataDir, "portfolio.db"),
		Port:         getEnvAsInt("PORT", 8090),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		PriceFeed: PriceFeedConfig{
			BaseURL:    getEnv("YAHOO_BASE_URL", "https://query2.finance.yahoo.com"),
			Retries:    getEnvAsInt("PRICE_FETCH_RETRIES", 3),
			RetryDelay: time.Duration(getEnvAsInt("PRICE_FETCH_RETRY_DELAY_MS", 1000)) * time.Millisecond,
		},
		// Weekdays at 18:00 local time, after US market close for European hosts
		SyncSchedule: getEnv("PRICE_SYNC_SCHEDULE", "0 18 * * 1-5"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.PriceFeed.Retries < 1 {
		return fmt.Errorf("PRICE_FETCH_RETRIES must be at least 1")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
