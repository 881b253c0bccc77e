package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Provider holds the settings for the upstream rate provider.
type Provider struct {
	Name      string
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Config holds all configuration for the application.
type Config struct {
	Port     string
	LogLevel string

	Provider Provider
	CacheTTL time.Duration

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitBurst    int
}

// Load loads configuration from environment variables, honoring a local
// .env file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Provider: Provider{
			Name:      getEnv("FX_PROVIDER_NAME", "frankfurter.dev"),
			BaseURL:   getEnv("FX_API_BASE", "https://api.frankfurter.dev/v1"),
			UserAgent: getEnv("FX_USER_AGENT", "fx-rate-api/1.0"),
			Timeout:   secondsEnv("PROVIDER_TIMEOUT_SECONDS", 6),
		},
		CacheTTL: secondsEnv("CACHE_TTL_SECONDS", 30),

		RateLimitEnabled:  getEnv("RATE_LIMIT_ENABLED", "true") == "true",
		RateLimitRequests: intEnv("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   secondsEnv("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitBurst:    intEnv("RATE_LIMIT_BURST", 10),
	}, nil
}

// getEnv gets an environment variable with a fallback value.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func secondsEnv(key string, fallback int) time.Duration {
	return time.Duration(intEnv(key, fallback)) * time.Second
}
