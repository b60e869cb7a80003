package repository

import (
	"context"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/google/uuid"
)

type TokenRepository interface {
	Create(ctx context.Context, token *model.PaymentToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentToken, error)
	ListActive(ctx context.Context, merchantID, userID string) ([]*model.PaymentToken, error)
	Deactivate(ctx context.Context, merchantID string, id uuid.UUID) (bool, error)
}

type VaultRepository interface {
	Create(ctx context.Context, secret *model.VaultSecret) error
	Get(ctx context.Context, handle uuid.UUID) (*model.VaultSecret, error)
}

type PaymentConfigRepository interface {
	Create(ctx context.Context, cfg *model.MerchantPaymentConfig) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.MerchantPaymentConfig, error)
	List(ctx context.Context, merchantID string) ([]*model.MerchantPaymentConfig, error)

	// GetActiveVerified returns the newest active and verified config, or ErrNotFound
	GetActiveVerified(ctx context.Context, merchantID string) (*model.MerchantPaymentConfig, error)

	SetFlags(ctx context.Context, merchantID string, id uuid.UUID, verified, active *bool) (bool, error)
}

type CryptoAddressRepository interface {
	Create(ctx context.Context, address *model.CryptoAddress) error
	List(ctx context.Context, merchantID string) ([]*model.CryptoAddress, error)
}
