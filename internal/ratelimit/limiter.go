package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"fx-rate-api/internal/config"
	"fx-rate-api/internal/logger"
)

// Limiter implements a token bucket rate limiter per client IP.
type Limiter struct {
	enabled  bool
	requests int
	window   time.Duration
	burst    int

	logger *logger.Logger

	clientBuckets map[string]*tokenBucket
	bucketsMutex  sync.Mutex

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

// tokenBucket tracks the remaining allowance for one client.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     int
	lastRefill time.Time
}

// NewLimiter creates a rate limiter from the service configuration and
// starts its background bucket cleanup.
func NewLimiter(configuration *config.Config, log *logger.Logger) *Limiter {
	rateLimiter := &Limiter{
		enabled:       configuration.RateLimitEnabled,
		requests:      configuration.RateLimitRequests,
		window:        configuration.RateLimitWindow,
		burst:         configuration.RateLimitBurst,
		logger:        log,
		clientBuckets: make(map[string]*tokenBucket),
		cleanupTicker: time.NewTicker(5 * time.Minute),
		stopCleanup:   make(chan struct{}),
	}

	go rateLimiter.cleanup()

	return rateLimiter
}

// Limit reports the configured request allowance per window.
func (rateLimiter *Limiter) Limit() int {
	return rateLimiter.requests
}

// Window reports the configured refill window.
func (rateLimiter *Limiter) Window() time.Duration {
	return rateLimiter.window
}

// Allow checks if a request from the given IP is allowed.
func (rateLimiter *Limiter) Allow(clientIP string) bool {
	if !rateLimiter.enabled {
		return true
	}

	rateLimiter.bucketsMutex.Lock()
	bucket, bucketExists := rateLimiter.clientBuckets[clientIP]
	if !bucketExists {
		bucket = &tokenBucket{
			tokens:     rateLimiter.burst,
			lastRefill: time.Now(),
		}
		rateLimiter.clientBuckets[clientIP] = bucket
	}
	rateLimiter.bucketsMutex.Unlock()

	return rateLimiter.take(bucket)
}

// take refills the bucket for elapsed time and consumes one token.
func (rateLimiter *Limiter) take(bucket *tokenBucket) bool {
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	currentTime := time.Now()
	elapsed := currentTime.Sub(bucket.lastRefill)

	tokensToAdd := int(elapsed.Seconds() / rateLimiter.window.Seconds() * float64(rateLimiter.requests))
	if tokensToAdd > 0 {
		bucket.tokens = minimum(rateLimiter.burst, bucket.tokens+tokensToAdd)
		bucket.lastRefill = currentTime
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}

	return false
}

// GetClientIP extracts the real client IP from the request.
func (rateLimiter *Limiter) GetClientIP(request *http.Request) string {
	if xForwardedFor := request.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		if clientIP := net.ParseIP(xForwardedFor); clientIP != nil {
			return clientIP.String()
		}
		if host, _, err := net.SplitHostPort(xForwardedFor); err == nil {
			if clientIP := net.ParseIP(host); clientIP != nil {
				return clientIP.String()
			}
		}
	}

	if xRealIP := request.Header.Get("X-Real-IP"); xRealIP != "" {
		if clientIP := net.ParseIP(xRealIP); clientIP != nil {
			return clientIP.String()
		}
	}

	clientIP, _, parseError := net.SplitHostPort(request.RemoteAddr)
	if parseError != nil {
		return request.RemoteAddr
	}
	return clientIP
}

// cleanup drops buckets idle for a day to bound memory.
func (rateLimiter *Limiter) cleanup() {
	for {
		select {
		case <-rateLimiter.cleanupTicker.C:
			rateLimiter.bucketsMutex.Lock()
			currentTime := time.Now()
			for clientIP, bucket := range rateLimiter.clientBuckets {
				bucket.mu.Lock()
				idle := currentTime.Sub(bucket.lastRefill) > 24*time.Hour
				bucket.mu.Unlock()
				if idle {
					delete(rateLimiter.clientBuckets, clientIP)
				}
			}
			rateLimiter.bucketsMutex.Unlock()
		case <-rateLimiter.stopCleanup:
			rateLimiter.cleanupTicker.Stop()
			return
		}
	}
}

// Stop stops the cleanup goroutine.
func (rateLimiter *Limiter) Stop() {
	close(rateLimiter.stopCleanup)
}

func minimum(firstValue, secondValue int) int {
	if firstValue < secondValue {
		return firstValue
	}
	return secondValue
}
