package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	timeoutError := newServiceError(ErrorKindProviderTimeout, "deadline exceeded")

	assert.Equal(t, ErrorKindProviderTimeout, KindOf(timeoutError))
	assert.Equal(t, ErrorKindProviderTimeout, KindOf(fmt.Errorf("lookup: %w", timeoutError)))
	assert.Equal(t, ErrorKindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKindUnknown, KindOf(nil))
}

func TestServiceError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := wrapServiceError(ErrorKindProviderUnavailable, cause, "provider request failed")

	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestErrorKind_String(t *testing.T) {
	kinds := map[ErrorKind]string{
		ErrorKindInvalidCurrencyCode: "invalid_currency_code",
		ErrorKindInvalidAmount:       "invalid_amount",
		ErrorKindUnknownCurrencyCode: "unknown_currency_code",
		ErrorKindProviderUnavailable: "provider_unavailable",
		ErrorKindProviderTimeout:     "provider_timeout",
		ErrorKindProviderBadResponse: "provider_bad_response",
		ErrorKindUnknown:             "unknown",
	}

	for kind, expected := range kinds {
		assert.Equal(t, expected, kind.String())
	}
}
