package razorpay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
	"go.uber.org/zap"
)

const (
	providerName   = "razorpay"
	defaultBaseURL = "https://api.razorpay.com"
	apiVersion     = "v1"
	maxBody        = 1 << 20
)

// Verifier looks a payment up on Razorpay with the merchant's own key pair.
type Verifier struct {
	baseURL string
	client  *http.Client
	vault   provider.Vault
	logger  *zap.Logger
}

// NewVerifier creates a Razorpay verifier
func NewVerifier(baseURL string, timeout time.Duration, vault provider.Vault, logger *zap.Logger) *Verifier {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Verifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		vault:   vault,
		logger:  logger,
	}
}

type paymentResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Fetch retrieves a payment
// GET /v1/payments/{id}
func (v *Verifier) Fetch(ctx context.Context, cfg *model.MerchantPaymentConfig, reference string) (*provider.GatewayStatus, error) {
	if cfg.ProviderKey == "" || cfg.ProviderSecretHandle == "" {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "MISSING_CREDENTIALS",
			Message:  "Razorpay key id and secret are required",
		}
	}

	secret, err := v.vault.Retrieve(ctx, cfg.ProviderSecretHandle)
	if err != nil {
		return nil, fmt.Errorf("failed to open razorpay secret: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/payments/%s", v.baseURL, apiVersion, url.PathEscape(reference))
	v.logger.Debug("RazorpayVerifier: Fetching payment",
		zap.String("merchant_id", cfg.MerchantID),
		zap.String("reference", reference))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "REQUEST_ERROR",
			Message:  "Failed to create request",
			Details:  err.Error(),
		}
	}
	req.SetBasicAuth(cfg.ProviderKey, secret)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Error("RazorpayVerifier: Request failed", zap.Error(err))
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "API_ERROR",
			Message:  "Razorpay API request failed",
			Details:  err.Error(),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "RESPONSE_ERROR",
			Message:  "Failed to read response",
			Details:  err.Error(),
		}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		_ = json.Unmarshal(body, &errResp)

		v.logger.Warn("RazorpayVerifier: Payment lookup rejected",
			zap.Int("status_code", resp.StatusCode),
			zap.String("code", errResp.Error.Code))

		code := errResp.Error.Code
		if code == "" {
			code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		}
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     code,
			Message:  errResp.Error.Description,
			Details:  string(body),
		}
	}

	var payment paymentResponse
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "PARSE_ERROR",
			Message:  "Failed to parse response",
			Details:  err.Error(),
		}
	}

	return &provider.GatewayStatus{
		Captured:          payment.Status == "captured",
		RawStatus:         payment.Status,
		ProviderReference: payment.ID,
	}, nil
}
