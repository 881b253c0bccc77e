package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx-rate-api/internal/cache"
	"fx-rate-api/internal/models"
	"fx-rate-api/internal/service"
	"fx-rate-api/internal/testutils"
)

// newIntegrationRouter runs the full stack against a mock upstream:
// gin router -> rates service -> TTL cache -> HTTP provider -> httptest server.
func newIntegrationRouter(t *testing.T, upstream *testutils.MockProviderServer) *gin.Engine {
	t.Helper()

	cfg := testutils.MockConfig()
	cfg.Provider.BaseURL = upstream.URL()
	log := testutils.MockLogger()

	provider := service.NewHTTPRateProvider(cfg.Provider, log)
	snapshots := cache.New[models.CurrencyCode, models.RateSnapshot](cfg.CacheTTL)
	ratesService := service.NewRatesService(cfg, log, provider, snapshots, nil)

	handlers := NewHandlers(HandlerConfig{
		Logger:       log,
		RatesService: ratesService,
	})

	return handlers.SetupRoutes()
}

func TestIntegration_RateAndConvertThroughHTTPProvider(t *testing.T) {
	upstream := testutils.NewMockProviderServer()
	defer upstream.Close()

	router := newIntegrationRouter(t, upstream)

	recorder := performRequest(router, "/api/v1/rate?base=USD&target=EUR")
	require.Equal(t, http.StatusOK, recorder.Code)

	var rateResponse models.RateResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &rateResponse))
	assert.Equal(t, 0.9, rateResponse.Rate)
	assert.Equal(t, "2026-08-25", rateResponse.FetchedAt)

	recorder = performRequest(router, "/api/v1/convert?amount=100&from=USD&to=GBP")
	require.Equal(t, http.StatusOK, recorder.Code)

	var convertResponse models.ConvertResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &convertResponse))
	assert.Equal(t, 80.0, convertResponse.Converted)

	// Both calls quote against the same base; the snapshot is fetched once.
	assert.Equal(t, 1, upstream.Requests())
}

func TestIntegration_UpstreamFailureSurfacesAsBadGateway(t *testing.T) {
	upstream := testutils.NewMockProviderServer()
	defer upstream.Close()

	router := newIntegrationRouter(t, upstream)

	// CHF has no payload installed; the upstream responds 404.
	recorder := performRequest(router, "/api/v1/rate?base=CHF&target=EUR")
	assert.Equal(t, http.StatusBadGateway, recorder.Code)
}
