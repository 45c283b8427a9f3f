package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-payout-simulator/domain"
	"go-payout-simulator/rates"
	"go-payout-simulator/simulation"
)

var testTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type provider struct{}

func (provider) Latest(_ context.Context) (domain.Quote, error) {
	return domain.Quote{Base: "USD", Rates: domain.Rates{"USD": 1, "EUR": 0.9, "GBP": 0.8}}, nil
}

func (provider) Symbols(_ context.Context) (domain.SymbolTable, error) {
	return domain.SymbolTable{"USD": "United States Dollar", "EUR": "Euro", "GBP": "British Pound Sterling"}, nil
}

func TestServer_EndToEnd(t *testing.T) {
	store := rates.NewStore(provider{}, log.NewNopLogger(), rates.WithMaxAge(time.Hour))
	controller := simulation.NewController(store, simulation.Config{SourceCurrency: "USD"}, log.NewNopLogger())
	reg := prometheus.NewRegistry()
	service := simulation.NewInstrumentingService(reg, controller)

	server := NewServer(service, controller, store, log.NewNopLogger())
	server.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	simulate := func(msg string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, httptest.NewRequest("POST", "/api/simulate", strings.NewReader(msg)))
		return w
	}

	w := simulate(`{"amount":1000,"targetCurrency":"EUR","method":"bank_transfer"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "no rates loaded yet")

	_, err := store.RefreshRates(context.Background())
	require.NoError(t, err)

	w = simulate(`{"amount":1000,"targetCurrency":"EUR","method":"bank_transfer"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"originalAmount":1000,"fee":5,"convertedAmount":900,"estimatedTime":"1-2 hours","currency":"EUR",
		"sourceCurrency":"USD","method":"Bank Transfer","summary":"Sending EUR 900.00 via Bank Transfer"}`, w.Body.String())

	w = simulate(`{"amount":200,"targetCurrency":"GBP","method":"instant_payment"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"originalAmount":200,"fee":3,"convertedAmount":160,"estimatedTime":"< 1 minute","currency":"GBP",
		"sourceCurrency":"USD","method":"Instant Payment","summary":"Sending GBP 160.00 via Instant Payment"}`, w.Body.String())

	w = simulate(`{"amount":200,"targetCurrency":"GBP","method":"unknown"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	last := httptest.NewRecorder()
	server.ServeHTTP(last, httptest.NewRequest("GET", "/api/simulation", nil))
	assert.Equal(t, http.StatusOK, last.Code)
	assert.Contains(t, last.Body.String(), `"currency":"GBP"`, "failed run keeps the previous result")

	metrics := httptest.NewRecorder()
	server.ServeHTTP(metrics, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `payout_simulations_total{method="bank_transfer",outcome="completed"} 1`)
	assert.Contains(t, metrics.Body.String(), `payout_simulations_total{method="unknown",outcome="rejected"} 1`)
}
