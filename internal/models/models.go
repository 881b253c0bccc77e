package models

import "time"

// CurrencyCode is a 3-letter ISO-4217 style currency identifier,
// always stored uppercase.
type CurrencyCode string

// ParseCurrencyCode normalizes a raw currency string to a CurrencyCode.
// The second return value reports whether the input is exactly three
// ASCII letters.
func ParseCurrencyCode(raw string) (CurrencyCode, bool) {
	if len(raw) != 3 {
		return "", false
	}

	code := [3]byte{}
	for i := 0; i < 3; i++ {
		character := raw[i]
		switch {
		case character >= 'A' && character <= 'Z':
			code[i] = character
		case character >= 'a' && character <= 'z':
			code[i] = character - ('a' - 'A')
		default:
			return "", false
		}
	}

	return CurrencyCode(code[:]), true
}

// RateSnapshot is an immutable set of exchange rates quoted against one
// base currency at one point in time. Once published into the cache it is
// shared read-only; a refresh produces a wholly new snapshot.
type RateSnapshot struct {
	Base      CurrencyCode             `json:"base"`
	Rates     map[CurrencyCode]float64 `json:"rates"`
	FetchedAt string                   `json:"fetched_at"`
	Provider  string                   `json:"provider"`
}

// Rate returns the quoted rate for the target currency, if present.
func (snapshot RateSnapshot) Rate(target CurrencyCode) (float64, bool) {
	rate, found := snapshot.Rates[target]
	return rate, found
}

// RateQuery is the inbound query for a single exchange rate.
type RateQuery struct {
	Base   string `form:"base" binding:"required,currency"`
	Target string `form:"target" binding:"required,currency"`
}

// ConvertQuery is the inbound query for an amount conversion. Amount is a
// pointer so an explicit zero survives the required check.
type ConvertQuery struct {
	Amount *float64 `form:"amount" binding:"required,gte=0"`
	From   string   `form:"from" binding:"required,currency"`
	To     string   `form:"to" binding:"required,currency"`
}

type RateResponse struct {
	Base      string  `json:"base"`
	Target    string  `json:"target"`
	Rate      float64 `json:"rate"`
	FetchedAt string  `json:"fetched_at,omitempty"`
	Provider  string  `json:"provider"`
}

type ConvertResponse struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Converted float64 `json:"converted"`
	Rate      float64 `json:"rate"`
	FetchedAt string  `json:"fetched_at,omitempty"`
	Provider  string  `json:"provider"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type HealthCheck struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}
