package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"
)

const providerName = "stripe"

// Verifier looks a PaymentIntent up with the merchant's secret key, falling back to
// the platform key.
type Verifier struct {
	platformKey string
	backends    *stripe.Backends
	vault       provider.Vault
	logger      *zap.Logger
}

// Option configures the verifier.
type Option func(*Verifier)

// WithAPIURL points the verifier at another API host.
func WithAPIURL(url string) Option {
	return func(v *Verifier) {
		v.backends = &stripe.Backends{
			API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
				URL:               stripe.String(url),
				MaxNetworkRetries: stripe.Int64(0),
			}),
		}
	}
}

// NewVerifier creates a Stripe verifier
func NewVerifier(platformKey string, vault provider.Vault, logger *zap.Logger, opts ...Option) *Verifier {
	v := &Verifier{
		platformKey: platformKey,
		vault:       vault,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Verifier) secretKey(ctx context.Context, cfg *model.MerchantPaymentConfig) (string, error) {
	if cfg.ProviderSecretHandle != "" {
		key, err := v.vault.Retrieve(ctx, cfg.ProviderSecretHandle)
		if err != nil {
			return "", fmt.Errorf("failed to open stripe secret: %w", err)
		}
		return key, nil
	}
	if v.platformKey == "" {
		return "", &provider.ProviderError{
			Provider: providerName,
			Code:     "MISSING_CREDENTIALS",
			Message:  "Stripe secret key not configured",
		}
	}
	return v.platformKey, nil
}

// Fetch retrieves a PaymentIntent; only "succeeded" counts as captured.
func (v *Verifier) Fetch(ctx context.Context, cfg *model.MerchantPaymentConfig, reference string) (*provider.GatewayStatus, error) {
	key, err := v.secretKey(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sc := client.New(key, v.backends)
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := sc.PaymentIntents.Get(reference, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			v.logger.Warn("StripeVerifier: PaymentIntent lookup rejected",
				zap.String("merchant_id", cfg.MerchantID),
				zap.String("reference", reference),
				zap.Int("status_code", stripeErr.HTTPStatusCode),
				zap.String("code", string(stripeErr.Code)))
			return nil, &provider.ProviderError{
				Provider: providerName,
				Code:     string(stripeErr.Code),
				Message:  stripeErr.Msg,
			}
		}
		v.logger.Error("StripeVerifier: Request failed", zap.Error(err))
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "API_ERROR",
			Message:  "Stripe API request failed",
			Details:  err.Error(),
		}
	}

	return &provider.GatewayStatus{
		Captured:          pi.Status == stripe.PaymentIntentStatusSucceeded,
		RawStatus:         string(pi.Status),
		ProviderReference: pi.ID,
	}, nil
}
