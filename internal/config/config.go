// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	defaultDataDir          = "./data"
	defaultQuoteSchedule    = "0 30 16 * * MON-FRI"
	defaultCacheSchedule    = "0 0 3 * * *"
	defaultQuoteProviderURL = "https://query1.finance.yahoo.com/v8/finance/chart"

	// SQLiteFileName is the mirror database file inside SQLiteDir.
	SQLiteFileName = "kabumemo.db"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory (KABUCOUNT_DATA_DIR, always absolute)
	JSONDir   string // JSON collection files, defaults to DataDir
	SQLiteDir string // SQLite mirror, defaults to DataDir
	DistDir   string // Built frontend assets; empty disables static serving

	Port     int
	LogLevel string
	DevMode  bool

	QuoteRefreshSchedule string // Six-field cron spec; empty disables the job
	CacheCleanupSchedule string // Six-field cron spec; empty disables the job
	QuoteProviderURL     string
}

// SQLitePath returns the full path of the mirror database.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.SQLiteDir, SQLiteFileName)
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := resolveDir(getEnv("KABUCOUNT_DATA_DIR", defaultDataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	jsonDir, err := resolveDir(getEnv("KABUCOUNT_JSON_DIR", dataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare json directory: %w", err)
	}

	sqliteDir, err := resolveDir(getEnv("KABUCOUNT_SQLITE_DIR", dataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare sqlite directory: %w", err)
	}

	distDir := getEnv("KABUMEMO_DIST_DIR", "")
	if distDir != "" {
		if distDir, err = filepath.Abs(distDir); err != nil {
			return nil, fmt.Errorf("failed to resolve dist directory path: %w", err)
		}
	}

	cfg := &Config{
		DataDir:              dataDir,
		JSONDir:              jsonDir,
		SQLiteDir:            sqliteDir,
		DistDir:              distDir,
		Port:                 getEnvAsInt("PORT", 8000),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DevMode:              getEnvAsBool("DEV_MODE", false),
		QuoteRefreshSchedule: getEnvAllowEmpty("QUOTE_REFRESH_SCHEDULE", defaultQuoteSchedule),
		CacheCleanupSchedule: getEnvAllowEmpty("CACHE_CLEANUP_SCHEDULE", defaultCacheSchedule),
		QuoteProviderURL:     strings.TrimRight(getEnv("QUOTE_PROVIDER_URL", defaultQuoteProviderURL), "/"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if c.QuoteRefreshSchedule != "" {
		if _, err := parser.Parse(c.QuoteRefreshSchedule); err != nil {
			return fmt.Errorf("invalid QUOTE_REFRESH_SCHEDULE %q: %w", c.QuoteRefreshSchedule, err)
		}
	}
	if c.CacheCleanupSchedule != "" {
		if _, err := parser.Parse(c.CacheCleanupSchedule); err != nil {
			return fmt.Errorf("invalid CACHE_CLEANUP_SCHEDULE %q: %w", c.CacheCleanupSchedule, err)
		}
	}
	if c.QuoteProviderURL == "" {
		return fmt.Errorf("QUOTE_PROVIDER_URL must not be empty")
	}
	return nil
}

// resolveDir makes path absolute and ensures it exists.
func resolveDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", path, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("failed to create %q: %w", abs, err)
	}
	return abs, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty distinguishes an unset variable from one explicitly set to "".
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
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
