package health

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/pharos-hq/pharosbot/pkg/circuitbreaker"
	"github.com/pharos-hq/pharosbot/pkg/logger"
)

func newTestServer(apiKey string) *Server {
	breaker := circuitbreaker.NewCircuitBreaker(true, 1, time.Minute, time.Hour, &logger.EmptyLogger{})
	wallets := []common.Address{
		common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"),
	}
	s := NewServer("0", nil, breaker, wallets, &logger.EmptyLogger{})
	s.metricsAPIKey = apiKey
	return s
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer("").Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReadyWithoutChain(t *testing.T) {
	handler := newTestServer("").Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusReportsCircuit(t *testing.T) {
	s := newTestServer("")
	s.breaker.RecordFailure() // trips at threshold 1
	handler := s.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"circuit":"open"`)
	assert.Contains(t, rec.Body.String(), `"wallets":2`)
	assert.Contains(t, rec.Body.String(), `"network":"pharos"`)
}

func TestCircuitReset(t *testing.T) {
	s := newTestServer("")
	s.breaker.RecordFailure()
	handler := s.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/circuit/reset", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.breaker.IsOpen())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/circuit/reset", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsAuth(t *testing.T) {
	handler := newTestServer("secret").Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
