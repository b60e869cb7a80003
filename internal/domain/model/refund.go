package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "pending"
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusSuccess    RefundStatus = "success"
	RefundStatusFailed     RefundStatus = "failed"
)

// Scan implements sql.Scanner interface
func (s *RefundStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = RefundStatus(v)
	case []byte:
		*s = RefundStatus(v)
	default:
		*s = RefundStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s RefundStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Refund reverses all or part of a settled Payment.
type Refund struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_id"`
	MerchantID        string          `gorm:"size:64;not null;index" json:"merchant_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status            RefundStatus    `gorm:"size:20;not null" json:"status"`
	Reason            string          `json:"reason,omitempty"`
	ReferenceID       string          `gorm:"size:100;not null;uniqueIndex" json:"reference_id"`
	ProviderReference *string         `gorm:"size:200" json:"provider_reference,omitempty"`
	FailureReason     *string         `json:"failure_reason,omitempty"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Refund) TableName() string {
	return "refunds"
}
