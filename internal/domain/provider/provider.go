package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
)

// ExecutionResult is the outcome of one settlement attempt.
type ExecutionResult struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(reference string) ExecutionResult {
	return ExecutionResult{Success: true, Reference: reference}
}

// Declined builds a failed result with a reason.
func Declined(reason string) ExecutionResult {
	return ExecutionResult{Success: false, Error: reason}
}

// MethodExecutor attempts to move funds for one payment method. Implementations must
// be safe to call more than once for the same payment. A returned error means the
// attempt itself broke, as opposed to a declined result.
type MethodExecutor interface {
	Execute(ctx context.Context, payment *model.Payment) (ExecutionResult, error)
	Method() model.PaymentMethod
}

// GatewayStatus is what a provider reports for a payment lookup.
type GatewayStatus struct {
	Captured          bool
	RawStatus         string
	ProviderReference string
}

// GatewayVerifier fetches a payment's state from an external provider.
type GatewayVerifier interface {
	Fetch(ctx context.Context, cfg *model.MerchantPaymentConfig, reference string) (*GatewayStatus, error)
}

// Vault stores secrets at rest and hands back opaque handles.
type Vault interface {
	Store(ctx context.Context, secret string) (string, error)
	Retrieve(ctx context.Context, handle string) (string, error)
}

// ProviderError is a provider-side failure with the provider's code.
type ProviderError struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Details  string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	msg := e.Provider + ": " + e.Message
	if e.Details != "" {
		return msg + ": " + e.Details
	}
	return msg
}

// Executors is the closed dispatch table from payment method to executor.
type Executors struct {
	Wallet    MethodExecutor
	Tokenized MethodExecutor
	UPIIntent MethodExecutor
	Crypto    MethodExecutor
}

// ErrNoExecutor is returned for a method with no executor configured.
var ErrNoExecutor = errors.New("no executor for payment method")

// For returns the executor for method.
func (e *Executors) For(method model.PaymentMethod) (MethodExecutor, error) {
	var ex MethodExecutor
	switch method {
	case model.PaymentMethodWallet:
		ex = e.Wallet
	case model.PaymentMethodTokenized:
		ex = e.Tokenized
	case model.PaymentMethodUPIIntent:
		ex = e.UPIIntent
	case model.PaymentMethodCrypto:
		ex = e.Crypto
	}
	if ex == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoExecutor, method)
	}
	return ex, nil
}

// GatewayRegistry maps a merchant config type to the verifier that can query it.
type GatewayRegistry map[model.ConfigType]GatewayVerifier
