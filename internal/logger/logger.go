package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New creates and configures a new zerolog logger
func New(logLevel string) zerolog.Logger {
	// Set global log level
	level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure console writer for human-readable output in development
	if os.Getenv("API_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Create structured logger with common fields
	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", "credmarket").
		Logger()

	return logger
}

// WithOp adds the ledger operation name to logger context
func WithOp(logger zerolog.Logger, op string) zerolog.Logger {
	return logger.With().Str("op", op).Logger()
}

// WithWallet adds a wallet id to logger context
func WithWallet(logger zerolog.Logger, walletID uint) zerolog.Logger {
	return logger.With().Uint("wallet_id", walletID).Logger()
}

// WithPool adds a pool id to logger context
func WithPool(logger zerolog.Logger, poolID uint) zerolog.Logger {
	return logger.With().Uint("pool_id", poolID).Logger()
}
