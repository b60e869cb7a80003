package dto

import (
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest is the input for creating a payment. MerchantID comes from the
// authenticated identity, never from the body.
type CreatePaymentRequest struct {
	MerchantID  string                 `json:"-"`
	Amount      decimal.Decimal        `json:"amount"`
	Method      model.PaymentMethod    `json:"method" validate:"required,oneof=wallet tokenized upi_intent crypto"`
	Currency    string                 `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	UserID      *string                `json:"user_id,omitempty" validate:"omitempty,max=64"`
	ReferenceID string                 `json:"reference_id,omitempty" validate:"omitempty,max=100"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ListPaymentsQuery carries listing filters from the query string.
type ListPaymentsQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=pending processing success failed cancelled"`
	Method string `query:"method" validate:"omitempty,oneof=wallet tokenized upi_intent crypto"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

// VerificationData is what a gateway callback or client supplies to verify a payment.
type VerificationData struct {
	ProviderReference string                 `json:"provider_reference,omitempty"`
	TransactionID     string                 `json:"transaction_id,omitempty"`
	TxHash            string                 `json:"tx_hash,omitempty"`
	Raw               map[string]interface{} `json:"raw,omitempty"`
}

// Verification result statuses beyond the payment statuses.
const (
	VerificationPendingMerchant = "pending_merchant_verification"
	VerificationError           = "error"
)

// VerificationResult reports the outcome of a verification path.
type VerificationResult struct {
	PaymentID uuid.UUID `json:"payment_id"`
	Verified  bool      `json:"verified"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
}

type SubmitReferenceRequest struct {
	Reference string `json:"reference" validate:"required"`
}

type MarkVerifiedRequest struct {
	Reference  *string `json:"reference,omitempty" validate:"omitempty,max=50"`
	VerifiedBy *string `json:"verified_by,omitempty" validate:"omitempty,max=100"`
}
