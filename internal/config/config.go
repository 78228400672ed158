package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is required")

// Config holds server-wide settings.
type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string
	LogFormat   string // "text" or "json"
	Timezone    string

	// Chat endpoint rate limit, per client IP.
	ChatRatePerMinute float64
	ChatRateBurst     int

	// Public emergency-request endpoint rate limit, per client IP.
	EmergencyRatePerMinute float64
	EmergencyRateBurst     int
}

// LoadFromEnv loads server configuration from environment variables.
//
// Environment variables:
//   - PORT (default: 5050)
//   - DATABASE_URL (required)
//   - LOG_LEVEL: debug|info|warn|error (default: info)
//   - LOG_FORMAT: text|json (default: text)
//   - BARANGAY_TIMEZONE (default: Asia/Manila)
//   - CHAT_RATE_PER_MINUTE (default: 30), CHAT_RATE_BURST (default: 10)
//   - EMERGENCY_RATE_PER_MINUTE (default: 6), EMERGENCY_RATE_BURST (default: 3)
func LoadFromEnv() Config {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5050"
	}

	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format != "json" {
		format = "text"
	}

	level := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if level == "" {
		level = "info"
	}

	tz := strings.TrimSpace(os.Getenv("BARANGAY_TIMEZONE"))
	if tz == "" {
		tz = "Asia/Manila"
	}

	return Config{
		Port:                   port,
		Timezone:               tz,
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		LogLevel:               level,
		LogFormat:              format,
		ChatRatePerMinute:      envFloat("CHAT_RATE_PER_MINUTE", 30),
		ChatRateBurst:          envInt("CHAT_RATE_BURST", 10),
		EmergencyRatePerMinute: envFloat("EMERGENCY_RATE_PER_MINUTE", 6),
		EmergencyRateBurst:     envInt("EMERGENCY_RATE_BURST", 3),
	}
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && v > 0 {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil && v > 0 {
		return v
	}
	return def
}
