// Package cli provides common initialization for the expensetrack binary:
// env file loading, logging and configuration.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"expensetrack/internal/config"
	"expensetrack/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging on stderr, level from
// LOG_LEVEL, and installs it as the process default.
func SetupLogger() *log.Logger {
	logger := log.New(log.Config{Level: log.LevelFromEnv()})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}
