// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the board service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// StoreTimeout bounds every persistence call. Calls that exceed it fail
	// with a StoreUnavailable error instead of blocking the request.
	StoreTimeout time.Duration

	// RecentLimit is the default number of entries in the employer
	// recent-applications feed when the request does not specify one.
	RecentLimit int

	// ReminderIntervalHours controls how often the pending-review digest
	// is published. Zero disables the digest.
	ReminderIntervalHours int
}

// Load reads environment variables and returns a validated Config.
// A .env file in the working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("BOARD_PORT")
	if port == "" {
		port = "8083"
	}

	storeTimeout := 5 * time.Second
	if s := os.Getenv("STORE_TIMEOUT_SECONDS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("STORE_TIMEOUT_SECONDS must be a positive integer, got %q", s)
		}
		storeTimeout = time.Duration(v) * time.Second
	}

	recentLimit := 5
	if s := os.Getenv("RECENT_APPLICATIONS_LIMIT"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 50 {
			return nil, fmt.Errorf("RECENT_APPLICATIONS_LIMIT must be between 1 and 50, got %q", s)
		}
		recentLimit = v
	}

	reminderInterval := 0
	if s := os.Getenv("REMINDER_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("REMINDER_INTERVAL_HOURS must be a non-negative integer, got %q", s)
		}
		reminderInterval = v
	}

	return &Config{
		Port:                  port,
		DatabaseURL:           dbURL,
		RedisURL:              redisURL,
		StoreTimeout:          storeTimeout,
		RecentLimit:           recentLimit,
		ReminderIntervalHours: reminderInterval,
	}, nil
}
