package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type tokenRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTokenRepository creates a new payment token repository
func NewTokenRepository(db *gorm.DB, logger *zap.Logger) domainRepo.TokenRepository {
	return &tokenRepository{db: db, logger: logger}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.PaymentToken) error {
	if err := conn(ctx, r.db).Create(token).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *tokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentToken, error) {
	var token model.PaymentToken
	if err := conn(ctx, r.db).Where("id = ?", id).First(&token).Error; err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *tokenRepository) ListActive(ctx context.Context, merchantID, userID string) ([]*model.PaymentToken, error) {
	query := conn(ctx, r.db).Where("merchant_id = ? AND is_active = ?", merchantID, true)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var tokens []*model.PaymentToken
	if err := query.Order("created_at DESC").Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", translate(err))
	}
	return tokens, nil
}

func (r *tokenRepository) Deactivate(ctx context.Context, merchantID string, id uuid.UUID) (bool, error) {
	result := conn(ctx, r.db).Model(&model.PaymentToken{}).
		Where("id = ? AND merchant_id = ? AND is_active = ?", id, merchantID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

type vaultRepository struct {
	db *gorm.DB
}

// NewVaultRepository creates a new vault secret repository
func NewVaultRepository(db *gorm.DB) domainRepo.VaultRepository {
	return &vaultRepository{db: db}
}

func (r *vaultRepository) Create(ctx context.Context, secret *model.VaultSecret) error {
	if err := conn(ctx, r.db).Create(secret).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *vaultRepository) Get(ctx context.Context, handle uuid.UUID) (*model.VaultSecret, error) {
	var secret model.VaultSecret
	if err := conn(ctx, r.db).Where("handle = ?", handle).First(&secret).Error; err != nil {
		return nil, translate(err)
	}
	return &secret, nil
}

type paymentConfigRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPaymentConfigRepository creates a new merchant payment config repository
func NewPaymentConfigRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PaymentConfigRepository {
	return &paymentConfigRepository{db: db, logger: logger}
}

func (r *paymentConfigRepository) Create(ctx context.Context, cfg *model.MerchantPaymentConfig) error {
	if err := conn(ctx, r.db).Create(cfg).Error; err != nil {
		r.logger.Error("Failed to create payment config",
			zap.String("merchant_id", cfg.MerchantID),
			zap.String("config_type", string(cfg.ConfigType)),
			zap.Error(err))
		return translate(err)
	}
	return nil
}

func (r *paymentConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MerchantPaymentConfig, error) {
	var cfg model.MerchantPaymentConfig
	if err := conn(ctx, r.db).Where("id = ?", id).First(&cfg).Error; err != nil {
		return nil, translate(err)
	}
	return &cfg, nil
}

func (r *paymentConfigRepository) List(ctx context.Context, merchantID string) ([]*model.MerchantPaymentConfig, error) {
	var cfgs []*model.MerchantPaymentConfig
	err := conn(ctx, r.db).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Find(&cfgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payment configs: %w", translate(err))
	}
	return cfgs, nil
}

// GetActiveVerified returns the newest active and verified config
func (r *paymentConfigRepository) GetActiveVerified(ctx context.Context, merchantID string) (*model.MerchantPaymentConfig, error) {
	var cfg model.MerchantPaymentConfig
	err := conn(ctx, r.db).
		Where("merchant_id = ? AND is_active = ? AND is_verified = ?", merchantID, true, true).
		Order("created_at DESC").
		First(&cfg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cfg, nil
}

func (r *paymentConfigRepository) SetFlags(ctx context.Context, merchantID string, id uuid.UUID, verified, active *bool) (bool, error) {
	values := map[string]interface{}{"updated_at": time.Now()}
	if verified != nil {
		values["is_verified"] = *verified
	}
	if active != nil {
		values["is_active"] = *active
	}

	result := conn(ctx, r.db).Model(&model.MerchantPaymentConfig{}).
		Where("id = ? AND merchant_id = ?", id, merchantID).
		Updates(values)
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

type cryptoAddressRepository struct {
	db *gorm.DB
}

// NewCryptoAddressRepository creates a new crypto address repository
func NewCryptoAddressRepository(db *gorm.DB) domainRepo.CryptoAddressRepository {
	return &cryptoAddressRepository{db: db}
}

func (r *cryptoAddressRepository) Create(ctx context.Context, address *model.CryptoAddress) error {
	if err := conn(ctx, r.db).Create(address).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *cryptoAddressRepository) List(ctx context.Context, merchantID string) ([]*model.CryptoAddress, error) {
	var addrs []*model.CryptoAddress
	err := conn(ctx, r.db).
		Where("merchant_id = ? AND is_active = ?", merchantID, true).
		Order("created_at ASC").
		Find(&addrs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list crypto addresses: %w", translate(err))
	}
	return addrs, nil
}
