package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx-rate-api/internal/cache"
	"fx-rate-api/internal/models"
	"fx-rate-api/internal/ratelimit"
	"fx-rate-api/internal/service"
	"fx-rate-api/internal/testutils"
)

func newTestRouter(t *testing.T, provider service.RateProvider, rateLimiter *ratelimit.Limiter) *gin.Engine {
	t.Helper()

	cfg := testutils.MockConfig()
	log := testutils.MockLogger()

	snapshots := cache.New[models.CurrencyCode, models.RateSnapshot](cfg.CacheTTL)
	ratesService := service.NewRatesService(cfg, log, provider, snapshots, nil)

	handlers := NewHandlers(HandlerConfig{
		Logger:       log,
		RatesService: ratesService,
		RateLimiter:  rateLimiter,
	})

	return handlers.SetupRoutes()
}

func defaultProvider() *testutils.StaticProvider {
	return &testutils.StaticProvider{
		ProviderName: "frankfurter.dev",
		Rates: map[models.CurrencyCode]float64{
			"EUR": 0.9,
			"GBP": 0.8,
		},
		FetchedAt: "2026-08-25",
	}
}

func performRequest(router *gin.Engine, path string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, path, nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestGetRate_OK(t *testing.T) {
	router := newTestRouter(t, defaultProvider(), nil)

	recorder := performRequest(router, "/api/v1/rate?base=USD&target=EUR")
	require.Equal(t, http.StatusOK, recorder.Code)

	var rateResponse models.RateResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &rateResponse))

	assert.Equal(t, "USD", rateResponse.Base)
	assert.Equal(t, "EUR", rateResponse.Target)
	assert.Equal(t, 0.9, rateResponse.Rate)
	assert.Equal(t, "frankfurter.dev", rateResponse.Provider)
}

func TestGetRate_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name string
		path string
	}{
		{"base too short", "/api/v1/rate?base=US&target=EUR"},
		{"base with digit", "/api/v1/rate?base=U5D&target=EUR"},
		{"missing target", "/api/v1/rate?base=USD"},
		{"missing both", "/api/v1/rate"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			router := newTestRouter(t, defaultProvider(), nil)

			recorder := performRequest(router, testCase.path)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestGetRate_UnknownTargetIsNotFound(t *testing.T) {
	router := newTestRouter(t, defaultProvider(), nil)

	recorder := performRequest(router, "/api/v1/rate?base=USD&target=JPY")
	require.Equal(t, http.StatusNotFound, recorder.Code)

	var errorResponse models.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &errorResponse))

	assert.Equal(t, "unknown_currency_code", errorResponse.Error)
	assert.Equal(t, http.StatusNotFound, errorResponse.Code)
}

func TestGetRate_ProviderErrorStatusMapping(t *testing.T) {
	testCases := []struct {
		name           string
		kind           service.ErrorKind
		expectedStatus int
	}{
		{"timeout", service.ErrorKindProviderTimeout, http.StatusGatewayTimeout},
		{"unavailable", service.ErrorKindProviderUnavailable, http.StatusBadGateway},
		{"bad response", service.ErrorKindProviderBadResponse, http.StatusBadGateway},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			provider := defaultProvider()
			provider.Err = &service.ServiceError{
				Kind:    testCase.kind,
				Message: "upstream failed",
			}
			router := newTestRouter(t, provider, nil)

			recorder := performRequest(router, "/api/v1/rate?base=USD&target=EUR")
			assert.Equal(t, testCase.expectedStatus, recorder.Code)
		})
	}
}

func TestConvert_OK(t *testing.T) {
	router := newTestRouter(t, defaultProvider(), nil)

	recorder := performRequest(router, "/api/v1/convert?amount=100&from=USD&to=GBP")
	require.Equal(t, http.StatusOK, recorder.Code)

	var convertResponse models.ConvertResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &convertResponse))

	assert.Equal(t, 80.0, convertResponse.Converted)
	assert.Equal(t, 0.8, convertResponse.Rate)
	assert.Equal(t, 100.0, convertResponse.Amount)
}

func TestConvert_SelfConversion(t *testing.T) {
	provider := defaultProvider()
	router := newTestRouter(t, provider, nil)

	recorder := performRequest(router, "/api/v1/convert?amount=42.5&from=JPY&to=JPY")
	require.Equal(t, http.StatusOK, recorder.Code)

	var convertResponse models.ConvertResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &convertResponse))

	assert.Equal(t, 42.5, convertResponse.Converted)
	assert.Zero(t, provider.Calls())
}

func TestConvert_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name string
		path string
	}{
		{"negative amount", "/api/v1/convert?amount=-5&from=USD&to=EUR"},
		{"missing amount", "/api/v1/convert?from=USD&to=EUR"},
		{"amount not a number", "/api/v1/convert?amount=abc&from=USD&to=EUR"},
		{"bad from code", "/api/v1/convert?amount=5&from=US&to=EUR"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			router := newTestRouter(t, defaultProvider(), nil)

			recorder := performRequest(router, testCase.path)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t, defaultProvider(), nil)

	recorder := performRequest(router, "/health")
	require.Equal(t, http.StatusOK, recorder.Code)

	var healthCheck models.HealthCheck
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &healthCheck))

	assert.Equal(t, "healthy", healthCheck.Status)
	assert.NotEmpty(t, healthCheck.Version)
	assert.NotEmpty(t, healthCheck.Uptime)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, defaultProvider(), nil)

	recorder := performRequest(router, "/metrics")
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testutils.MockConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimitBurst = 2
	cfg.RateLimitRequests = 1
	cfg.RateLimitWindow = time.Hour

	rateLimiter := ratelimit.NewLimiter(cfg, testutils.MockLogger())
	defer rateLimiter.Stop()

	router := newTestRouter(t, defaultProvider(), rateLimiter)

	for i := 0; i < cfg.RateLimitBurst; i++ {
		recorder := performRequest(router, "/health")
		require.Equal(t, http.StatusOK, recorder.Code)
	}

	recorder := performRequest(router, "/health")
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "0", recorder.Header().Get("X-RateLimit-Remaining"))
}

func TestSecurityAndRequestIDHeaders(t *testing.T) {
	router := newTestRouter(t, defaultProvider(), nil)

	recorder := performRequest(router, "/health")

	assert.Equal(t, "nosniff", recorder.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))
}
