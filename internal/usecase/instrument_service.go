package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	customErr "github.com/Likith-Yadav/PayCoreX/internal/domain/errors"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenService stores payment instruments. The raw token goes to the vault; only a
// handle and a dedupe hash are persisted.
type TokenService struct {
	tokenRepo domainRepo.TokenRepository
	vault     provider.Vault
	logger    *zap.Logger
	now       func() time.Time
}

func NewTokenService(tokenRepo domainRepo.TokenRepository, vault provider.Vault, logger *zap.Logger) *TokenService {
	return &TokenService{tokenRepo: tokenRepo, vault: vault, logger: logger, now: time.Now}
}

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *TokenService) Store(ctx context.Context, merchantID string, req dto.StoreTokenRequest) (*model.PaymentToken, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Token) == "" {
		return nil, customErr.NewValidationError("user_id and token are required")
	}
	now := s.now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, customErr.NewValidationError("token is already expired")
	}

	handle, err := s.vault.Store(ctx, req.Token)
	if err != nil {
		return nil, customErr.NewInternalError("failed to store token secret", err)
	}

	token := &model.PaymentToken{
		ID:          uuid.New(),
		MerchantID:  merchantID,
		UserID:      req.UserID,
		VaultHandle: handle,
		TokenHash:   tokenHash(req.Token),
		Brand:       req.Brand,
		Last4:       req.Last4,
		ExpiresAt:   req.ExpiresAt,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		if errors.Is(err, domainRepo.ErrDuplicate) {
			return nil, customErr.ErrDuplicateReference
		}
		return nil, customErr.NewInternalError("failed to store token", err)
	}

	s.logger.Info("Payment token stored",
		zap.String("token_id", token.ID.String()),
		zap.String("merchant_id", merchantID),
		zap.String("user_id", token.UserID))
	return token, nil
}

func (s *TokenService) Get(ctx context.Context, merchantID string, id uuid.UUID) (*model.PaymentToken, error) {
	token, err := s.tokenRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainRepo.ErrNotFound) {
			return nil, customErr.NewNotFoundError("token")
		}
		return nil, customErr.NewInternalError("failed to load token", err)
	}
	if token.MerchantID != merchantID {
		return nil, customErr.NewNotFoundError("token")
	}
	return token, nil
}

// List returns the active tokens, optionally for one user.
func (s *TokenService) List(ctx context.Context, merchantID, userID string) ([]*model.PaymentToken, error) {
	tokens, err := s.tokenRepo.ListActive(ctx, merchantID, userID)
	if err != nil {
		return nil, customErr.NewInternalError("failed to list tokens", err)
	}
	return tokens, nil
}

// Delete deactivates a token. The vault entry is kept for audit.
func (s *TokenService) Delete(ctx context.Context, merchantID string, id uuid.UUID) error {
	ok, err := s.tokenRepo.Deactivate(ctx, merchantID, id)
	if err != nil {
		return customErr.NewInternalError("failed to delete token", err)
	}
	if !ok {
		return customErr.NewNotFoundError("token")
	}
	return nil
}

// CryptoNetworks checks addresses and reads transaction state on the configured networks.
type CryptoNetworks interface {
	ValidateAddress(network, address string) error
	TransactionStatus(ctx context.Context, network, txHash string) (*dto.CryptoTxStatus, error)
}

// CryptoAddressService keeps merchant receiving addresses and looks up transactions
// sent to them.
type CryptoAddressService struct {
	repo     domainRepo.CryptoAddressRepository
	networks CryptoNetworks
	logger   *zap.Logger
}

func NewCryptoAddressService(repo domainRepo.CryptoAddressRepository, networks CryptoNetworks, logger *zap.Logger) *CryptoAddressService {
	return &CryptoAddressService{repo: repo, networks: networks, logger: logger}
}

func (s *CryptoAddressService) Register(ctx context.Context, merchantID string, req dto.RegisterAddressRequest) (*model.CryptoAddress, error) {
	network := strings.ToLower(strings.TrimSpace(req.Network))
	address := strings.TrimSpace(req.Address)
	if err := s.networks.ValidateAddress(network, address); err != nil {
		return nil, customErr.NewValidationError("%s", err.Error())
	}

	addr := &model.CryptoAddress{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Network:    network,
		Address:    address,
		Label:      req.Label,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.Create(ctx, addr); err != nil {
		if errors.Is(err, domainRepo.ErrDuplicate) {
			return nil, customErr.ErrDuplicateReference
		}
		return nil, customErr.NewInternalError("failed to register address", err)
	}

	s.logger.Info("Crypto address registered",
		zap.String("merchant_id", merchantID),
		zap.String("network", network),
		zap.String("address", address))
	return addr, nil
}

func (s *CryptoAddressService) List(ctx context.Context, merchantID string) ([]*model.CryptoAddress, error) {
	addrs, err := s.repo.List(ctx, merchantID)
	if err != nil {
		return nil, customErr.NewInternalError("failed to list addresses", err)
	}
	return addrs, nil
}

// TransactionStatus reports a transaction's on-chain state. An empty network means
// the default one.
func (s *CryptoAddressService) TransactionStatus(ctx context.Context, network, txHash string) (*dto.CryptoTxStatus, error) {
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return nil, customErr.NewValidationError("tx hash is required")
	}

	status, err := s.networks.TransactionStatus(ctx, strings.ToLower(strings.TrimSpace(network)), txHash)
	if err != nil {
		var providerErr *provider.ProviderError
		if errors.As(err, &providerErr) {
			s.logger.Warn("Transaction status lookup failed",
				zap.String("network", network),
				zap.String("tx_hash", txHash),
				zap.Error(err))
			return nil, customErr.NewExecutionFailure("transaction status lookup failed", err)
		}
		return nil, customErr.NewValidationError("%s", err.Error())
	}
	return status, nil
}

// PaymentConfigService manages the provider configurations used for verification.
type PaymentConfigService struct {
	repo   domainRepo.PaymentConfigRepository
	vault  provider.Vault
	logger *zap.Logger
}

func NewPaymentConfigService(repo domainRepo.PaymentConfigRepository, vault provider.Vault, logger *zap.Logger) *PaymentConfigService {
	return &PaymentConfigService{repo: repo, vault: vault, logger: logger}
}

// Create stores a config. It starts unverified and active; verification is a separate step.
func (s *PaymentConfigService) Create(ctx context.Context, merchantID string, req dto.CreatePaymentConfigRequest) (*model.MerchantPaymentConfig, error) {
	configType := model.ConfigType(strings.ToLower(req.ConfigType))
	if !configType.Valid() {
		return nil, customErr.NewValidationError("unsupported config type %q", req.ConfigType)
	}

	var handle string
	if req.ProviderSecret != "" {
		h, err := s.vault.Store(ctx, req.ProviderSecret)
		if err != nil {
			return nil, customErr.NewInternalError("failed to store provider secret", err)
		}
		handle = h
	}

	now := time.Now()
	cfg := &model.MerchantPaymentConfig{
		ID:                   uuid.New(),
		MerchantID:           merchantID,
		ConfigType:           configType,
		ProviderKey:          req.ProviderKey,
		ProviderSecretHandle: handle,
		Settings:             req.Settings,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, customErr.NewInternalError("failed to create payment config", err)
	}

	s.logger.Info("Payment config created",
		zap.String("config_id", cfg.ID.String()),
		zap.String("merchant_id", merchantID),
		zap.String("config_type", string(configType)))
	return cfg, nil
}

func (s *PaymentConfigService) List(ctx context.Context, merchantID string) ([]*model.MerchantPaymentConfig, error) {
	cfgs, err := s.repo.List(ctx, merchantID)
	if err != nil {
		return nil, customErr.NewInternalError("failed to list payment configs", err)
	}
	return cfgs, nil
}

func (s *PaymentConfigService) MarkVerified(ctx context.Context, merchantID string, id uuid.UUID) error {
	verified := true
	return s.setFlags(ctx, merchantID, id, &verified, nil)
}

func (s *PaymentConfigService) Deactivate(ctx context.Context, merchantID string, id uuid.UUID) error {
	active := false
	return s.setFlags(ctx, merchantID, id, nil, &active)
}

func (s *PaymentConfigService) setFlags(ctx context.Context, merchantID string, id uuid.UUID, verified, active *bool) error {
	ok, err := s.repo.SetFlags(ctx, merchantID, id, verified, active)
	if err != nil {
		return customErr.NewInternalError("failed to update payment config", err)
	}
	if !ok {
		return customErr.NewNotFoundError("payment config")
	}
	return nil
}
