package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is a stored-value balance per (user, merchant). Balance always equals the
// ledger head balance for ("wallet", ID).
type Wallet struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string          `gorm:"size:64;not null;uniqueIndex:idx_wallets_user_merchant" json:"user_id"`
	MerchantID string          `gorm:"size:64;not null;uniqueIndex:idx_wallets_user_merchant" json:"merchant_id"`
	Balance    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	Currency   string          `gorm:"size:3;not null;default:'INR'" json:"currency"`
	IsActive   bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Wallet) TableName() string {
	return "wallets"
}
