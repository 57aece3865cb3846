package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseFile string // Optional: path to SQLite database file (default: ./chirp.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	ResetTokenTTL      time.Duration // Password reset link lifetime (default: 1h)
	SessionTTL         time.Duration // Server-side session lifetime (default: 30m)
	RefreshTTL         time.Duration // Refresh token lifetime (default: 24h)
	RememberRefreshTTL time.Duration // Refresh token lifetime with remember set (default: 30 days)

	TrendingCeiling int           // Requests per window allowed through the trending gate (default: 30)
	TrendingWindow  time.Duration // Trending gate window (default: 5m)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// LoadConfig reads configuration from the environment, layering a local
// .env file underneath real environment variables when one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		DatabaseFile: getEnvOrDefault("CHIRP_DATABASE_FILE", "chirp.db"),
		PepperFile:   getEnvOrDefault("CHIRP_PEPPER_FILE", "pepper"),

		ResetTokenTTL:      getEnvDurationOrDefault("CHIRP_RESET_TOKEN_TTL", time.Hour),
		SessionTTL:         getEnvDurationOrDefault("CHIRP_SESSION_TTL", 30*time.Minute),
		RefreshTTL:         getEnvDurationOrDefault("CHIRP_REFRESH_TTL", 24*time.Hour),
		RememberRefreshTTL: getEnvDurationOrDefault("CHIRP_REMEMBER_REFRESH_TTL", 30*24*time.Hour),

		TrendingCeiling: getEnvIntOrDefault("CHIRP_TRENDING_CEILING", 30),
		TrendingWindow:  getEnvDurationOrDefault("CHIRP_TRENDING_WINDOW", 5*time.Minute),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
