package testutils

import (
	"context"
	"sync/atomic"
	"time"

	"fx-rate-api/internal/config"
	"fx-rate-api/internal/logger"
	"fx-rate-api/internal/models"
)

// MockLogger creates a logger for testing
func MockLogger() *logger.Logger {
	return logger.New("debug")
}

// MockConfig creates a configuration for testing
func MockConfig() *config.Config {
	return &config.Config{
		Port:     "8080",
		LogLevel: "debug",

		Provider: config.Provider{
			Name:      "test-provider",
			BaseURL:   "https://api.test.invalid/v1",
			UserAgent: "fx-rate-api/test",
			Timeout:   5 * time.Second,
		},
		CacheTTL: 30 * time.Second,

		RateLimitEnabled:  false,
		RateLimitRequests: 100,
		RateLimitWindow:   60 * time.Second,
		RateLimitBurst:    10,
	}
}

// StaticProvider is an in-memory RateProvider serving fixed rates. It
// counts invocations so tests can assert fetch behavior, and fails with
// Err when set.
type StaticProvider struct {
	ProviderName string
	Rates        map[models.CurrencyCode]float64
	FetchedAt    string
	Err          error

	calls atomic.Int64
}

func (provider *StaticProvider) Name() string {
	if provider.ProviderName == "" {
		return "static"
	}
	return provider.ProviderName
}

func (provider *StaticProvider) FetchRates(ctx context.Context, base models.CurrencyCode) (models.RateSnapshot, error) {
	provider.calls.Add(1)

	if provider.Err != nil {
		return models.RateSnapshot{}, provider.Err
	}

	return models.RateSnapshot{
		Base:      base,
		Rates:     provider.Rates,
		FetchedAt: provider.FetchedAt,
		Provider:  provider.Name(),
	}, nil
}

// Calls reports how many times FetchRates was invoked.
func (provider *StaticProvider) Calls() int {
	return int(provider.calls.Load())
}
