package provider

import (
	"github.com/Likith-Yadav/PayCoreX/internal/config"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/provider/chain"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/provider/executor"
	razorpayProvider "github.com/Likith-Yadav/PayCoreX/internal/infrastructure/provider/razorpay"
	stripeProvider "github.com/Likith-Yadav/PayCoreX/internal/infrastructure/provider/stripe"
	"go.uber.org/zap"
)

// Factory builds the method executors and gateway verifiers from config
type Factory struct {
	config   *config.Config
	networks *chain.Registry
	vault    provider.Vault
	logger   *zap.Logger
}

// NewFactory creates a new provider factory
func NewFactory(config *config.Config, networks *chain.Registry, vault provider.Vault, logger *zap.Logger) *Factory {
	return &Factory{
		config:   config,
		networks: networks,
		vault:    vault,
		logger:   logger,
	}
}

// Executors returns the dispatch table with one executor per payment method
func (f *Factory) Executors(wallets executor.WalletPayer, tokens domainRepo.TokenRepository) *provider.Executors {
	return &provider.Executors{
		Wallet:    executor.NewWalletExecutor(wallets, f.logger.Named("executor.wallet")),
		Tokenized: executor.NewTokenizedExecutor(tokens, f.vault, f.logger.Named("executor.tokenized")),
		UPIIntent: executor.NewUPIIntentExecutor(),
		Crypto:    executor.NewCryptoExecutor(f.networks),
	}
}

// Gateways returns the verifiers for config types that support automatic lookup.
// phonepe, paytm and upi have none.
func (f *Factory) Gateways() provider.GatewayRegistry {
	gw := f.config.Gateways
	return provider.GatewayRegistry{
		model.ConfigTypeRazorpay: razorpayProvider.NewVerifier(
			gw.Razorpay.BaseURL,
			gw.Razorpay.Timeout,
			f.vault,
			f.logger.Named("gateway.razorpay"),
		),
		model.ConfigTypeStripe: stripeProvider.NewVerifier(
			gw.Stripe.SecretKey,
			f.vault,
			f.logger.Named("gateway.stripe"),
		),
		model.ConfigTypeCrypto: chain.NewReceiptVerifier(f.networks, f.logger.Named("gateway.crypto")),
	}
}
