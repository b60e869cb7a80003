package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateRefundRequest is the input for a refund. A nil Amount refunds the full payment.
type CreateRefundRequest struct {
	PaymentID   uuid.UUID        `json:"-"`
	MerchantID  string           `json:"-"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Reason      string           `json:"reason,omitempty" validate:"omitempty,max=500"`
	ReferenceID string           `json:"reference_id,omitempty" validate:"omitempty,max=100"`
}
