package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"

	"fx-rate-api/internal/config"
	"fx-rate-api/internal/logger"
	"fx-rate-api/internal/models"
)

// HTTPRateProvider implements RateProvider against a Frankfurter-style
// JSON API: GET {base_url}/latest?base=USD returns a document mapping the
// base currency to target-currency rates.
type HTTPRateProvider struct {
	configuration config.Provider
	logger        *logger.Logger
	httpClient    *http.Client
}

// NewHTTPRateProvider creates a provider bound to the configured upstream.
func NewHTTPRateProvider(configuration config.Provider, log *logger.Logger) *HTTPRateProvider {
	return &HTTPRateProvider{
		configuration: configuration,
		logger:        log,
		httpClient: &http.Client{
			Timeout: configuration.Timeout,
		},
	}
}

// Name returns the provider name used in response payloads and metrics.
func (provider *HTTPRateProvider) Name() string {
	return provider.configuration.Name
}

// FetchRates performs one outbound GET for the latest rates quoted against
// base, bounded by the configured timeout.
func (provider *HTTPRateProvider) FetchRates(ctx context.Context, base models.CurrencyCode) (models.RateSnapshot, error) {
	requestContext, cancel := context.WithTimeout(ctx, provider.configuration.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/latest?base=%s", provider.configuration.BaseURL, base)

	request, requestError := http.NewRequestWithContext(requestContext, http.MethodGet, url, nil)
	if requestError != nil {
		return models.RateSnapshot{}, wrapServiceError(ErrorKindProviderUnavailable, requestError,
			"building provider request for %s", base)
	}
	request.Header.Set("User-Agent", provider.configuration.UserAgent)

	provider.logger.Debugf("Fetching rates for %s from %s", base, url)

	response, fetchError := provider.httpClient.Do(request)
	if fetchError != nil {
		if isTimeout(fetchError) {
			return models.RateSnapshot{}, wrapServiceError(ErrorKindProviderTimeout, fetchError,
				"provider request for %s timed out", base)
		}
		return models.RateSnapshot{}, wrapServiceError(ErrorKindProviderUnavailable, fetchError,
			"provider request for %s failed", base)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return models.RateSnapshot{}, newServiceError(ErrorKindProviderUnavailable,
			"provider returned status %d for %s", response.StatusCode, base)
	}

	body, readError := io.ReadAll(response.Body)
	if readError != nil {
		if isTimeout(readError) {
			return models.RateSnapshot{}, wrapServiceError(ErrorKindProviderTimeout, readError,
				"provider response for %s timed out", base)
		}
		return models.RateSnapshot{}, wrapServiceError(ErrorKindProviderUnavailable, readError,
			"reading provider response for %s", base)
	}

	return provider.parseRates(body, base)
}

// parseRates decodes the provider payload into an immutable snapshot.
func (provider *HTTPRateProvider) parseRates(body []byte, base models.CurrencyCode) (models.RateSnapshot, error) {
	var payload struct {
		Base  string             `json:"base"`
		Date  string             `json:"date"`
		Rates map[string]float64 `json:"rates"`
	}

	if decodeError := json.Unmarshal(body, &payload); decodeError != nil {
		return models.RateSnapshot{}, wrapServiceError(ErrorKindProviderBadResponse, decodeError,
			"decoding provider response for %s", base)
	}

	if len(payload.Rates) == 0 {
		return models.RateSnapshot{}, newServiceError(ErrorKindProviderBadResponse,
			"provider response for %s has no rates", base)
	}

	if payload.Base != "" {
		echoedBase, valid := models.ParseCurrencyCode(payload.Base)
		if !valid || echoedBase != base {
			return models.RateSnapshot{}, newServiceError(ErrorKindProviderBadResponse,
				"provider quoted base %q, requested %s", payload.Base, base)
		}
	}

	rates := make(map[models.CurrencyCode]float64, len(payload.Rates))
	for rawCode, rate := range payload.Rates {
		targetCode, valid := models.ParseCurrencyCode(rawCode)
		if !valid {
			return models.RateSnapshot{}, newServiceError(ErrorKindProviderBadResponse,
				"provider quoted malformed currency code %q", rawCode)
		}
		if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			return models.RateSnapshot{}, newServiceError(ErrorKindProviderBadResponse,
				"provider quoted non-positive rate %v for %s", rate, targetCode)
		}
		rates[targetCode] = rate
	}

	return models.RateSnapshot{
		Base:      base,
		Rates:     rates,
		FetchedAt: payload.Date,
		Provider:  provider.configuration.Name,
	}, nil
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netError net.Error
	return errors.As(err, &netError) && netError.Timeout()
}
