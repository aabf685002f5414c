package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration, sourced from environment variables.
type Config struct {
	// Relational store
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Local cache database
	CacheDBPath string

	// Market data provider
	AlphaVantageAPIKey string

	// Background loops
	RefreshInterval    time.Duration
	AlertCheckInterval time.Duration
	DefaultSymbols     []string

	// Alert email delivery
	EmailHost     string
	EmailPort     int
	EmailUser     string
	EmailPassword string

	// Environment ("production" enables real email delivery and prod logging)
	Env string
}

// Load builds a Config from the environment, applying defaults for anything unset.
func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "portfolio_user"),
		DBPassword: getEnv("DB_PASSWORD", "portfolio_password"),
		DBName:     getEnv("DB_NAME", "stock_portfolio_db"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		CacheDBPath: getEnv("CACHE_DB_PATH", "cache.db"),

		AlphaVantageAPIKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),

		RefreshInterval:    getEnvMillis("STOCK_UPDATE_INTERVAL", 30000),
		AlertCheckInterval: getEnvMillis("ALERT_CHECK_INTERVAL", 60000),
		DefaultSymbols:     getEnvList("DEFAULT_SYMBOLS", []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA"}),

		EmailHost:     getEnv("EMAIL_SERVICE", "smtp.gmail.com"),
		EmailPort:     getEnvInt("EMAIL_PORT", 587),
		EmailUser:     getEnv("EMAIL_USER", ""),
		EmailPassword: getEnv("EMAIL_PASSWORD", ""),

		Env: getEnv("APP_ENV", "development"),
	}
}

// Production reports whether the process runs with production settings.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvMillis reads an interval expressed in milliseconds.
func getEnvMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMillis)) * time.Millisecond
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
