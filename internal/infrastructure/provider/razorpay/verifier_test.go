package razorpay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticVault map[string]string

func (v staticVault) Store(ctx context.Context, secret string) (string, error) {
	return "", errors.New("read only")
}

func (v staticVault) Retrieve(ctx context.Context, handle string) (string, error) {
	s, ok := v[handle]
	if !ok {
		return "", errors.New("unknown handle")
	}
	return s, nil
}

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
			return
		}
		assert.Equal(t, "/v1/payments/pay_29QQoUBi66xm2f", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig() *model.MerchantPaymentConfig {
	return &model.MerchantPaymentConfig{
		MerchantID:           "m_1",
		ConfigType:           model.ConfigTypeRazorpay,
		ProviderKey:          "rzp_test_key",
		ProviderSecretHandle: "h1",
	}
}

func TestVerifier_Fetch(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		captured bool
		raw      string
	}{
		{name: "captured", body: `{"id":"pay_29QQoUBi66xm2f","status":"captured","amount":50000}`, captured: true, raw: "captured"},
		{name: "authorized only", body: `{"id":"pay_29QQoUBi66xm2f","status":"authorized"}`, raw: "authorized"},
		{name: "failed", body: `{"id":"pay_29QQoUBi66xm2f","status":"failed"}`, raw: "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, http.StatusOK, tt.body)
			v := NewVerifier(srv.URL, 0, staticVault{"h1": "s3cret"}, zap.NewNop())

			status, err := v.Fetch(context.Background(), testConfig(), "pay_29QQoUBi66xm2f")
			require.NoError(t, err)
			assert.Equal(t, tt.captured, status.Captured)
			assert.Equal(t, tt.raw, status.RawStatus)
			assert.Equal(t, "pay_29QQoUBi66xm2f", status.ProviderReference)
		})
	}
}

func TestVerifier_Errors(t *testing.T) {
	ctx := context.Background()

	srv := newServer(t, http.StatusBadRequest, `{"error":{"code":"BAD_REQUEST_ERROR","description":"The id provided does not exist"}}`)
	v := NewVerifier(srv.URL, 0, staticVault{"h1": "s3cret", "h2": "wrong"}, zap.NewNop())

	_, err := v.Fetch(ctx, testConfig(), "pay_29QQoUBi66xm2f")
	var perr *provider.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "BAD_REQUEST_ERROR", perr.Code)
	assert.Equal(t, "The id provided does not exist", perr.Message)

	cfg := testConfig()
	cfg.ProviderSecretHandle = "h2"
	_, err = v.Fetch(ctx, cfg, "pay_29QQoUBi66xm2f")
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Authentication failed", perr.Message)

	cfg.ProviderKey = ""
	_, err = v.Fetch(ctx, cfg, "pay_29QQoUBi66xm2f")
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "MISSING_CREDENTIALS", perr.Code)

	cfg = testConfig()
	cfg.ProviderSecretHandle = "gone"
	_, err = v.Fetch(ctx, cfg, "pay_29QQoUBi66xm2f")
	assert.ErrorContains(t, err, "failed to open razorpay secret")
}
