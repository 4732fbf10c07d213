package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the credmarket ledger
type Config struct {
	// Quote currency used by every pool
	BaseCurrencySymbol string

	// Fee applied to pools created without an explicit fee, in basis points
	DefaultTradeFeeBps int

	// Bounded retry count for conflicted ledger transactions
	TxMaxRetries int

	// Logging configuration
	LogLevel string

	// Metrics configuration
	MetricsPort string
}

// Load reads configuration from environment variables and validates it
func Load() (Config, error) {
	cfg := Config{
		BaseCurrencySymbol: getEnv("BASE_CURRENCY_SYMBOL", "CRED"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MetricsPort:        getEnv("METRICS_PORT", "9100"),
	}

	var err error
	cfg.DefaultTradeFeeBps, err = parseIntEnv("DEFAULT_TRADE_FEE_BPS", 30)
	if err != nil {
		return cfg, fmt.Errorf("invalid DEFAULT_TRADE_FEE_BPS: %w", err)
	}

	cfg.TxMaxRetries, err = parseIntEnv("LEDGER_TX_MAX_RETRIES", 3)
	if err != nil {
		return cfg, fmt.Errorf("invalid LEDGER_TX_MAX_RETRIES: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that the configuration is valid
func (c Config) validate() error {
	if c.BaseCurrencySymbol == "" {
		return fmt.Errorf("BASE_CURRENCY_SYMBOL is required")
	}

	if c.DefaultTradeFeeBps < 1 || c.DefaultTradeFeeBps > 1000 {
		return fmt.Errorf("DEFAULT_TRADE_FEE_BPS must be between 1 and 1000")
	}

	if c.TxMaxRetries < 0 {
		return fmt.Errorf("LEDGER_TX_MAX_RETRIES cannot be negative")
	}

	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be one of: trace, debug, info, warn, error, fatal, panic)", c.LogLevel)
	}

	return nil
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an integer environment variable with a default value
func parseIntEnv(key string, defaultValue int) (int, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(str)
}
