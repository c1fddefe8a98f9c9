package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the web frontend
type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig

	// Backend API client configuration
	API APIConfig

	// Logging Configuration
	Logging LoggingConfig
}

// HTTPConfig holds the frontend listener configuration
type HTTPConfig struct {
	ListenAddr   string
	CookieSecure bool
	CORSOrigins  []string
}

// APIConfig holds settings for calls to the backend API.
// The base URL itself is fixed at build time (see api.DefaultBaseURL).
type APIConfig struct {
	Timeout          time.Duration
	AIStatusSchedule string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	timeout, err := time.ParseDuration(getEnv("HTTP_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: must be positive")
	}

	cookieSecure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}

	return &Config{
		HTTP: HTTPConfig{
			ListenAddr:   normalizeAddr(getEnv("LISTEN_ADDR", ":3000")),
			CookieSecure: cookieSecure,
			CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		},
		API: APIConfig{
			Timeout:          timeout,
			AIStatusSchedule: getEnv("AI_STATUS_SCHEDULE", "@every 1m"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// normalizeAddr accepts "3000" as shorthand for ":3000"
func normalizeAddr(addr string) string {
	if !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
