package executor

import (
	"context"
	"strings"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
)

// AddressValidator checks an address against a network's format.
type AddressValidator interface {
	ValidateAddress(network, address string) error
}

// CryptoExecutor accepts a payment to a valid receiving address.
type CryptoExecutor struct {
	addresses AddressValidator
}

func NewCryptoExecutor(addresses AddressValidator) *CryptoExecutor {
	return &CryptoExecutor{addresses: addresses}
}

func (e *CryptoExecutor) Method() model.PaymentMethod {
	return model.PaymentMethodCrypto
}

func (e *CryptoExecutor) Execute(ctx context.Context, payment *model.Payment) (provider.ExecutionResult, error) {
	addr := strings.TrimSpace(payment.MetadataString(model.MetadataCryptoAddress))
	if addr == "" {
		return provider.Declined("crypto_address is required"), nil
	}
	if err := e.addresses.ValidateAddress(payment.MetadataString(model.MetadataNetwork), addr); err != nil {
		return provider.Declined(err.Error()), nil
	}
	return provider.Succeeded("CRYPTO_" + addr), nil
}
