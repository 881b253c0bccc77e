package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
)

// RatesPayload mirrors the upstream provider's JSON document.
type RatesPayload struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// MockProviderServer is an httptest server speaking the Frankfurter-style
// rates API.
type MockProviderServer struct {
	server *httptest.Server

	payloads map[string]RatesPayload
	requests atomic.Int64
}

// NewMockProviderServer creates a provider server with a default USD
// payload; override per base with SetPayload.
func NewMockProviderServer() *MockProviderServer {
	mock := &MockProviderServer{
		payloads: map[string]RatesPayload{
			"USD": {
				Base: "USD",
				Date: "2026-08-25",
				Rates: map[string]float64{
					"EUR": 0.9,
					"GBP": 0.8,
					"CAD": 1.25,
				},
			},
		},
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handler))
	return mock
}

// URL returns the server base URL, suitable as a provider BaseURL.
func (mock *MockProviderServer) URL() string {
	return mock.server.URL
}

// SetPayload installs the document served for a base currency.
func (mock *MockProviderServer) SetPayload(base string, payload RatesPayload) {
	mock.payloads[base] = payload
}

// Requests reports how many rate requests the server received.
func (mock *MockProviderServer) Requests() int {
	return int(mock.requests.Load())
}

// Close shuts down the server.
func (mock *MockProviderServer) Close() {
	mock.server.Close()
}

func (mock *MockProviderServer) handler(responseWriter http.ResponseWriter, request *http.Request) {
	mock.requests.Add(1)

	if request.URL.Path != "/latest" {
		http.NotFound(responseWriter, request)
		return
	}

	base := request.URL.Query().Get("base")
	payload, found := mock.payloads[base]
	if !found {
		http.Error(responseWriter, `{"message":"not found"}`, http.StatusNotFound)
		return
	}

	responseWriter.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(responseWriter).Encode(payload)
}
