package service

import (
	"context"

	"fx-rate-api/internal/models"
)

// RateProvider fetches the current rate snapshot for a base currency from
// an upstream source. Implementations make one outbound call per
// invocation and never retry internally; retry policy belongs to the
// caller. Tests substitute an in-memory implementation.
type RateProvider interface {
	Name() string
	FetchRates(ctx context.Context, base models.CurrencyCode) (models.RateSnapshot, error)
}
