package stripe

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

func newServer(t *testing.T, wantKey string, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_3MtwBwLkdIwHu7ix28a3tqPa", r.URL.Path)
		assert.Equal(t, "Bearer "+wantKey, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifier_Fetch(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		captured bool
	}{
		{name: "succeeded", status: "succeeded", captured: true},
		{name: "processing", status: "processing"},
		{name: "requires payment method", status: "requires_payment_method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"id":"pi_3MtwBwLkdIwHu7ix28a3tqPa","object":"payment_intent","status":"` + tt.status + `"}`
			srv := newServer(t, "sk_test_merchant", http.StatusOK, body)
			v := NewVerifier("sk_test_platform", staticVault{"h1": "sk_test_merchant"}, zap.NewNop(), WithAPIURL(srv.URL))

			cfg := &model.MerchantPaymentConfig{MerchantID: "m_1", ConfigType: model.ConfigTypeStripe, ProviderSecretHandle: "h1"}
			got, err := v.Fetch(context.Background(), cfg, "pi_3MtwBwLkdIwHu7ix28a3tqPa")
			require.NoError(t, err)
			assert.Equal(t, tt.captured, got.Captured)
			assert.Equal(t, tt.status, got.RawStatus)
			assert.Equal(t, "pi_3MtwBwLkdIwHu7ix28a3tqPa", got.ProviderReference)
		})
	}
}

func TestVerifier_PlatformKeyFallback(t *testing.T) {
	srv := newServer(t, "sk_test_platform", http.StatusOK, `{"id":"pi_3MtwBwLkdIwHu7ix28a3tqPa","object":"payment_intent","status":"succeeded"}`)
	v := NewVerifier("sk_test_platform", staticVault{}, zap.NewNop(), WithAPIURL(srv.URL))

	got, err := v.Fetch(context.Background(), &model.MerchantPaymentConfig{ConfigType: model.ConfigTypeStripe}, "pi_3MtwBwLkdIwHu7ix28a3tqPa")
	require.NoError(t, err)
	assert.True(t, got.Captured)
}

func TestVerifier_Errors(t *testing.T) {
	srv := newServer(t, "sk_test_platform", http.StatusNotFound,
		`{"error":{"code":"resource_missing","message":"No such payment_intent","type":"invalid_request_error"}}`)
	v := NewVerifier("sk_test_platform", staticVault{}, zap.NewNop(), WithAPIURL(srv.URL))

	_, err := v.Fetch(context.Background(), &model.MerchantPaymentConfig{ConfigType: model.ConfigTypeStripe}, "pi_3MtwBwLkdIwHu7ix28a3tqPa")
	var perr *provider.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "resource_missing", perr.Code)

	noKey := NewVerifier("", staticVault{}, zap.NewNop())
	_, err = noKey.Fetch(context.Background(), &model.MerchantPaymentConfig{ConfigType: model.ConfigTypeStripe}, "pi_x")
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "MISSING_CREDENTIALS", perr.Code)
}
