package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentStatus is the state of a Payment. Transitions only move forward.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSuccess    PaymentStatus = "success"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// Scan implements sql.Scanner interface
func (s *PaymentStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = PaymentStatus(v)
	case []byte:
		*s = PaymentStatus(v)
	default:
		*s = PaymentStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s PaymentStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// PaymentMethod is the closed set of settlement methods.
type PaymentMethod string

const (
	PaymentMethodWallet    PaymentMethod = "wallet"
	PaymentMethodTokenized PaymentMethod = "tokenized"
	PaymentMethodUPIIntent PaymentMethod = "upi_intent"
	PaymentMethodCrypto    PaymentMethod = "crypto"
)

// PaymentMethods lists every supported method.
var PaymentMethods = []PaymentMethod{
	PaymentMethodWallet,
	PaymentMethodTokenized,
	PaymentMethodUPIIntent,
	PaymentMethodCrypto,
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodWallet, PaymentMethodTokenized, PaymentMethodUPIIntent, PaymentMethodCrypto:
		return true
	}
	return false
}

// Metadata keys read by the method executors.
const (
	MetadataTokenID       = "token_id"
	MetadataUPIID         = "upi_id"
	MetadataCryptoAddress = "crypto_address"
	MetadataNetwork       = "network"
)

// RequiredMetadata returns the metadata keys a method cannot execute without.
// Wallet payments need a user id instead, which is a column.
func (m PaymentMethod) RequiredMetadata() []string {
	switch m {
	case PaymentMethodTokenized:
		return []string{MetadataTokenID}
	case PaymentMethodUPIIntent:
		return []string{MetadataUPIID}
	case PaymentMethodCrypto:
		return []string{MetadataCryptoAddress}
	}
	return nil
}

// Scan implements sql.Scanner interface
func (m *PaymentMethod) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*m = PaymentMethod(v)
	case []byte:
		*m = PaymentMethod(v)
	}
	return nil
}

// Value implements driver.Valuer interface
func (m PaymentMethod) Value() (driver.Value, error) {
	return string(m), nil
}

// Payment is one merchant payment moving through the settlement state machine.
type Payment struct {
	ID                   uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantID           string            `gorm:"size:64;not null;index:idx_payments_merchant_created" json:"merchant_id"`
	UserID               *string           `gorm:"size:64;index" json:"user_id,omitempty"`
	Amount               decimal.Decimal   `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency             string            `gorm:"size:3;not null;default:'INR'" json:"currency"`
	Status               PaymentStatus     `gorm:"size:20;not null;index" json:"status"`
	Method               PaymentMethod     `gorm:"size:20;not null" json:"method"`
	ReferenceID          string            `gorm:"size:100;not null;uniqueIndex" json:"reference_id"`
	ProviderReference    *string           `gorm:"size:200" json:"provider_reference,omitempty"`
	FailureReason        *string           `json:"failure_reason,omitempty"`
	SubmittedReference   *string           `gorm:"size:50" json:"submitted_reference,omitempty"`
	ReferenceSubmittedAt *time.Time        `json:"reference_submitted_at,omitempty"`
	VerifiedBy           *string           `gorm:"size:100" json:"verified_by,omitempty"`
	VerifiedAt           *time.Time        `json:"verified_at,omitempty"`
	SettledAt            *time.Time        `json:"settled_at,omitempty"`
	Metadata             datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt            time.Time         `gorm:"not null;index:idx_payments_merchant_created" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// MetadataString returns a metadata value as a trimmed string, or "".
func (p *Payment) MetadataString(key string) string {
	if p.Metadata == nil {
		return ""
	}
	v, ok := p.Metadata[key].(string)
	if !ok {
		return ""
	}
	return v
}
