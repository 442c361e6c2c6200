// Package config loads process configuration from the environment.
//
// Engine settings (grace period, late fee rate) are not process
// configuration; they live in the settings table and are edited through
// the API.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBPath   string
	LogLevel logrus.Level

	// SweepSchedule is the cron spec of the maintenance sweep. Empty
	// disables it.
	SweepSchedule string

	// StrictGeneration makes schedule generation part of the contract save.
	StrictGeneration bool
}

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...) // optional

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	strict, err := strconv.ParseBool(getEnv("STRICT_GENERATION", "false"))
	if err != nil {
		return nil, fmt.Errorf("STRICT_GENERATION: %w", err)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBPath:           getEnv("DB_PATH", "./data/leases.db"),
		LogLevel:         level,
		SweepSchedule:    getEnv("SWEEP_SCHEDULE", "@daily"),
		StrictGeneration: strict,
	}

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("DB_PATH is required")
	}
	if cfg.SweepSchedule != "" {
		if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
			return nil, fmt.Errorf("SWEEP_SCHEDULE %q: %w", cfg.SweepSchedule, err)
		}
	}

	return cfg, nil
}

// NewLogger returns a JSON logger at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(c.LogLevel)
	return logger
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
