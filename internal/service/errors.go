package service

import (
	"errors"
	"fmt"
)

// ErrorKind distinguishes the failure classes callers can act on.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindInvalidCurrencyCode
	ErrorKindInvalidAmount
	ErrorKindUnknownCurrencyCode
	ErrorKindProviderUnavailable
	ErrorKindProviderTimeout
	ErrorKindProviderBadResponse
)

// String returns a stable identifier for the kind, used in logs and
// error payloads.
func (kind ErrorKind) String() string {
	switch kind {
	case ErrorKindInvalidCurrencyCode:
		return "invalid_currency_code"
	case ErrorKindInvalidAmount:
		return "invalid_amount"
	case ErrorKindUnknownCurrencyCode:
		return "unknown_currency_code"
	case ErrorKindProviderUnavailable:
		return "provider_unavailable"
	case ErrorKindProviderTimeout:
		return "provider_timeout"
	case ErrorKindProviderBadResponse:
		return "provider_bad_response"
	default:
		return "unknown"
	}
}

// ServiceError is a typed service failure. Validation and provider
// failures all surface through this type so callers can switch on Kind.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (serviceError *ServiceError) Error() string {
	if serviceError.Cause != nil {
		return fmt.Sprintf("%s: %v", serviceError.Message, serviceError.Cause)
	}
	return serviceError.Message
}

func (serviceError *ServiceError) Unwrap() error {
	return serviceError.Cause
}

func newServiceError(kind ErrorKind, format string, arguments ...interface{}) *ServiceError {
	return &ServiceError{
		Kind:    kind,
		Message: fmt.Sprintf(format, arguments...),
	}
}

func wrapServiceError(kind ErrorKind, cause error, format string, arguments ...interface{}) *ServiceError {
	return &ServiceError{
		Kind:    kind,
		Message: fmt.Sprintf(format, arguments...),
		Cause:   cause,
	}
}

// KindOf extracts the ErrorKind from an error chain, returning
// ErrorKindUnknown when no ServiceError is present.
func KindOf(err error) ErrorKind {
	var serviceError *ServiceError
	if errors.As(err, &serviceError) {
		return serviceError.Kind
	}
	return ErrorKindUnknown
}
