package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PaymentToken is a stored payment instrument. The secret itself lives in the vault.
type PaymentToken struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantID  string     `gorm:"size:64;not null;uniqueIndex:idx_tokens_merchant_hash" json:"merchant_id"`
	UserID      string     `gorm:"size:64;not null;index" json:"user_id"`
	VaultHandle string     `gorm:"size:64;not null" json:"-"`
	TokenHash   string     `gorm:"size:64;not null;uniqueIndex:idx_tokens_merchant_hash" json:"-"`
	Brand       string     `gorm:"size:30" json:"brand,omitempty"`
	Last4       string     `gorm:"size:4" json:"last4,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PaymentToken) TableName() string {
	return "payment_tokens"
}

// Usable reports whether the token can be charged at t.
func (t *PaymentToken) Usable(now time.Time) bool {
	return t.IsActive && (t.ExpiresAt == nil || t.ExpiresAt.After(now))
}

// VaultSecret is one encrypted secret addressed by its handle.
type VaultSecret struct {
	Handle     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Ciphertext []byte    `gorm:"type:bytea;not null"`
	IV         []byte    `gorm:"type:bytea;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (VaultSecret) TableName() string {
	return "vault_secrets"
}

// ConfigType names a merchant's payment provider configuration.
type ConfigType string

const (
	ConfigTypeRazorpay ConfigType = "razorpay"
	ConfigTypeStripe   ConfigType = "stripe"
	ConfigTypePhonePe  ConfigType = "phonepe"
	ConfigTypePaytm    ConfigType = "paytm"
	ConfigTypeUPI      ConfigType = "upi"
	ConfigTypeCrypto   ConfigType = "crypto"
)

func (t ConfigType) Valid() bool {
	switch t {
	case ConfigTypeRazorpay, ConfigTypeStripe, ConfigTypePhonePe, ConfigTypePaytm, ConfigTypeUPI, ConfigTypeCrypto:
		return true
	}
	return false
}

// MerchantPaymentConfig holds a merchant's provider credentials used for verification.
type MerchantPaymentConfig struct {
	ID                   uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantID           string            `gorm:"size:64;not null;index" json:"merchant_id"`
	ConfigType           ConfigType        `gorm:"size:20;not null" json:"config_type"`
	ProviderKey          string            `gorm:"size:200" json:"provider_key,omitempty"`
	ProviderSecretHandle string            `gorm:"size:64" json:"-"`
	Settings             datatypes.JSONMap `gorm:"type:jsonb" json:"settings,omitempty"`
	IsVerified           bool              `gorm:"not null;default:false" json:"is_verified"`
	IsActive             bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt            time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (MerchantPaymentConfig) TableName() string {
	return "merchant_payment_configs"
}

// SettingString returns a string setting or "".
func (c *MerchantPaymentConfig) SettingString(key string) string {
	if c.Settings == nil {
		return ""
	}
	v, _ := c.Settings[key].(string)
	return v
}

// CryptoAddress is a merchant receiving address on one network.
type CryptoAddress struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantID string    `gorm:"size:64;not null;uniqueIndex:idx_crypto_addresses_unique" json:"merchant_id"`
	Network    string    `gorm:"size:30;not null;uniqueIndex:idx_crypto_addresses_unique" json:"network"`
	Address    string    `gorm:"size:100;not null;uniqueIndex:idx_crypto_addresses_unique" json:"address"`
	Label      string    `gorm:"size:100" json:"label,omitempty"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for GORM
func (CryptoAddress) TableName() string {
	return "crypto_addresses"
}
