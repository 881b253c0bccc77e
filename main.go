package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"fx-rate-api/internal/api"
	"fx-rate-api/internal/cache"
	"fx-rate-api/internal/config"
	"fx-rate-api/internal/logger"
	"fx-rate-api/internal/metrics"
	"fx-rate-api/internal/models"
	"fx-rate-api/internal/platform"
	"fx-rate-api/internal/ratelimit"
	"fx-rate-api/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize services
	serviceMetrics := metrics.New()
	rateProvider := service.NewHTTPRateProvider(cfg.Provider, logger)
	snapshotCache := cache.New[models.CurrencyCode, models.RateSnapshot](cfg.CacheTTL)
	ratesService := service.NewRatesService(cfg, logger, rateProvider, snapshotCache, serviceMetrics)
	rateLimiter := ratelimit.NewLimiter(cfg, logger)

	// Initialize HTTP handlers
	handlers := api.NewHandlers(api.HandlerConfig{
		Logger:       logger,
		RatesService: ratesService,
		RateLimiter:  rateLimiter,
	})

	router := handlers.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting fx rate service on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Create a shutdown context that works across platforms
	shutdownCtx, stop := platform.NewShutdownContext(context.Background())
	defer stop()
	<-shutdownCtx.Done()

	logger.Info("Shutting down server...")

	// Stop rate limiter cleanup
	rateLimiter.Stop()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
