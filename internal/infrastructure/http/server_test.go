package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	handlers "github.com/Likith-Yadav/PayCoreX/internal/adapter/handler/http"
	"github.com/Likith-Yadav/PayCoreX/internal/config"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/provider/chain"
	"github.com/Likith-Yadav/PayCoreX/internal/usecase"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg, err := config.Parse([]byte("jwt:\n  secret: route-secret\nmetrics:\n  enabled: true\n"))
	require.NoError(t, err)

	logger := zap.NewNop()
	verification := usecase.NewVerificationService(nil, nil, nil, nil, logger)
	h := Handlers{
		Payments:    handlers.NewPaymentHandler(nil, verification, logger),
		Refunds:     handlers.NewRefundHandler(nil, logger),
		Wallets:     handlers.NewWalletHandler(nil, nil, logger),
		Webhooks:    handlers.NewWebhookHandler(nil, logger),
		Instruments: handlers.NewInstrumentHandler(nil, nil, nil, logger),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "paycorex_test_total", Help: "test"}))
	return NewServer(cfg, logger, h, reg)
}

func do(s *Server, method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func merchantToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"merchant_id": "m_routes",
		"exp":         time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("route-secret"))
	require.NoError(t, err)
	return token
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = do(s, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "paycorex_test_total")
}

func TestServer_V1RequiresToken(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/v1/payments", "/v1/ledger/balance", "/v1/webhooks/deliveries", "/v1/configs", "/v1/crypto/status/0xabc"} {
		rec := do(s, http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestServer_ValidationReachesErrorHandler(t *testing.T) {
	s := newTestServer(t)
	token := merchantToken(t)

	rec := do(s, http.MethodGet, "/v1/payments/not-a-uuid", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"id must be a valid id","code":"VALIDATION"}`, rec.Body.String())

	rec = do(s, http.MethodPost, "/v1/webhooks/endpoints", `{"url":""}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"VALIDATION"`)
}

func TestServer_GatewayCallbackSkipsAuth(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, http.MethodPost, "/gateway/callback", `{"event":"payment.captured"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "payment_id")
}

func TestServer_UnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestServer_WalletPayRoute(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, http.MethodPost, "/v1/wallets/u_1/pay", `{"amount":"5"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(s, http.MethodPost, "/v1/wallets/u_1/pay", `{"amount":"5","reference_id":"`+strings.Repeat("r", 101)+`"}`, merchantToken(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"VALIDATION"`)
}

func TestServer_CryptoStatusRoute(t *testing.T) {
	cfg, err := config.Parse([]byte("jwt:\n  secret: route-secret\n"))
	require.NoError(t, err)
	logger := zap.NewNop()

	networks, err := chain.NewRegistry(context.Background(), []config.NetworkConfig{{Name: "ethereum"}}, logger)
	require.NoError(t, err)
	addresses := usecase.NewCryptoAddressService(nil, networks, logger)
	s := NewServer(cfg, logger, Handlers{
		Payments:    handlers.NewPaymentHandler(nil, usecase.NewVerificationService(nil, nil, nil, nil, logger), logger),
		Refunds:     handlers.NewRefundHandler(nil, logger),
		Wallets:     handlers.NewWalletHandler(nil, nil, logger),
		Webhooks:    handlers.NewWebhookHandler(nil, logger),
		Instruments: handlers.NewInstrumentHandler(nil, addresses, nil, logger),
	}, prometheus.NewRegistry())
	token := merchantToken(t)
	tx := "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b"

	// ethereum is the default network but has no rpc url configured
	rec := do(s, http.MethodGet, "/v1/crypto/status/"+tx, "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no rpc client configured for network: ethereum")

	rec = do(s, http.MethodGet, "/v1/crypto/status/"+tx+"?network=solana", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported network: solana")
}
