package service

import (
	"context"
	"math"
	"time"

	"fx-rate-api/internal/cache"
	"fx-rate-api/internal/config"
	"fx-rate-api/internal/logger"
	"fx-rate-api/internal/metrics"
	"fx-rate-api/internal/models"
)

// RatesService answers the two public operations, GetRate and Convert,
// on top of the snapshot cache and the upstream provider.
type RatesService struct {
	configuration *config.Config
	logger        *logger.Logger
	metrics       *metrics.Metrics
	provider      RateProvider
	snapshots     *cache.Cache[models.CurrencyCode, models.RateSnapshot]
}

// NewRatesService wires the service to its provider and snapshot cache.
// Both are injected so tests can construct isolated instances with fake
// providers and fake clocks.
func NewRatesService(
	configuration *config.Config,
	log *logger.Logger,
	provider RateProvider,
	snapshots *cache.Cache[models.CurrencyCode, models.RateSnapshot],
	serviceMetrics *metrics.Metrics,
) *RatesService {
	return &RatesService{
		configuration: configuration,
		logger:        log,
		metrics:       serviceMetrics,
		provider:      provider,
		snapshots:     snapshots,
	}
}

// GetRate returns the current exchange rate from base to target.
func (ratesService *RatesService) GetRate(ctx context.Context, base, target string) (models.RateResponse, error) {
	baseCode, valid := models.ParseCurrencyCode(base)
	if !valid {
		ratesService.metrics.ObserveRequest("get_rate", ErrorKindInvalidCurrencyCode.String())
		return models.RateResponse{}, newServiceError(ErrorKindInvalidCurrencyCode,
			"invalid base currency code %q", base)
	}

	targetCode, valid := models.ParseCurrencyCode(target)
	if !valid {
		ratesService.metrics.ObserveRequest("get_rate", ErrorKindInvalidCurrencyCode.String())
		return models.RateResponse{}, newServiceError(ErrorKindInvalidCurrencyCode,
			"invalid target currency code %q", target)
	}

	// A currency always converts to itself at rate 1, no fetch needed.
	if baseCode == targetCode {
		ratesService.logger.Debugf("get_rate short-circuit: %s == %s", baseCode, targetCode)
		ratesService.metrics.ObserveRequest("get_rate", "success")
		return models.RateResponse{
			Base:     string(baseCode),
			Target:   string(targetCode),
			Rate:     1.0,
			Provider: ratesService.provider.Name(),
		}, nil
	}

	snapshot, lookupError := ratesService.lookupSnapshot(ctx, baseCode)
	if lookupError != nil {
		ratesService.metrics.ObserveRequest("get_rate", KindOf(lookupError).String())
		return models.RateResponse{}, lookupError
	}

	rate, quoted := snapshot.Rate(targetCode)
	if !quoted {
		ratesService.metrics.ObserveRequest("get_rate", ErrorKindUnknownCurrencyCode.String())
		return models.RateResponse{}, newServiceError(ErrorKindUnknownCurrencyCode,
			"no rate quoted for %s against %s", targetCode, baseCode)
	}

	ratesService.metrics.ObserveRequest("get_rate", "success")
	return models.RateResponse{
		Base:      string(baseCode),
		Target:    string(targetCode),
		Rate:      rate,
		FetchedAt: snapshot.FetchedAt,
		Provider:  snapshot.Provider,
	}, nil
}

// Convert converts amount from one currency to another using the current
// rate. No currency-specific rounding is applied; formatting is a
// transport concern.
func (ratesService *RatesService) Convert(ctx context.Context, amount float64, from, to string) (models.ConvertResponse, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		ratesService.metrics.ObserveRequest("convert", ErrorKindInvalidAmount.String())
		return models.ConvertResponse{}, newServiceError(ErrorKindInvalidAmount,
			"amount must be non-negative and finite, got %v", amount)
	}

	fromCode, valid := models.ParseCurrencyCode(from)
	if !valid {
		ratesService.metrics.ObserveRequest("convert", ErrorKindInvalidCurrencyCode.String())
		return models.ConvertResponse{}, newServiceError(ErrorKindInvalidCurrencyCode,
			"invalid source currency code %q", from)
	}

	toCode, valid := models.ParseCurrencyCode(to)
	if !valid {
		ratesService.metrics.ObserveRequest("convert", ErrorKindInvalidCurrencyCode.String())
		return models.ConvertResponse{}, newServiceError(ErrorKindInvalidCurrencyCode,
			"invalid destination currency code %q", to)
	}

	if fromCode == toCode {
		ratesService.logger.Debugf("convert short-circuit: %s == %s", fromCode, toCode)
		ratesService.metrics.ObserveRequest("convert", "success")
		return models.ConvertResponse{
			From:      string(fromCode),
			To:        string(toCode),
			Amount:    amount,
			Converted: amount,
			Rate:      1.0,
			Provider:  ratesService.provider.Name(),
		}, nil
	}

	snapshot, lookupError := ratesService.lookupSnapshot(ctx, fromCode)
	if lookupError != nil {
		ratesService.metrics.ObserveRequest("convert", KindOf(lookupError).String())
		return models.ConvertResponse{}, lookupError
	}

	rate, quoted := snapshot.Rate(toCode)
	if !quoted {
		ratesService.metrics.ObserveRequest("convert", ErrorKindUnknownCurrencyCode.String())
		return models.ConvertResponse{}, newServiceError(ErrorKindUnknownCurrencyCode,
			"no rate quoted for %s against %s", toCode, fromCode)
	}

	ratesService.metrics.ObserveRequest("convert", "success")
	return models.ConvertResponse{
		From:      string(fromCode),
		To:        string(toCode),
		Amount:    amount,
		Converted: amount * rate,
		Rate:      rate,
		FetchedAt: snapshot.FetchedAt,
		Provider:  snapshot.Provider,
	}, nil
}

// Invalidate drops the cached snapshot for base, forcing the next lookup
// to refetch.
func (ratesService *RatesService) Invalidate(base models.CurrencyCode) {
	ratesService.snapshots.Invalidate(base)
}

// lookupSnapshot serves the snapshot for base from the cache, fetching
// from the provider on a miss. Provider failures are not cached; the next
// lookup retries cleanly.
func (ratesService *RatesService) lookupSnapshot(ctx context.Context, base models.CurrencyCode) (models.RateSnapshot, error) {
	fetched := false

	snapshot, lookupError := ratesService.snapshots.GetOrFetch(ctx, base,
		func(fetchContext context.Context, key models.CurrencyCode) (models.RateSnapshot, error) {
			fetched = true
			started := time.Now()

			fresh, fetchError := ratesService.provider.FetchRates(fetchContext, key)

			outcome := "success"
			if fetchError != nil {
				outcome = KindOf(fetchError).String()
				ratesService.logger.Warnf("Provider fetch for %s failed: %v", key, fetchError)
			}
			ratesService.metrics.ObserveProviderRequest(ratesService.provider.Name(), outcome, time.Since(started))

			return fresh, fetchError
		})

	switch {
	case fetched:
		ratesService.metrics.CacheMiss()
	case lookupError == nil:
		ratesService.metrics.CacheHit()
		ratesService.logger.Debugf("Cache hit for %s", base)
	}

	return snapshot, lookupError
}
