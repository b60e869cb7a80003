package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateWalletRequest struct {
	UserID   string `json:"user_id" validate:"required,max=64"`
	Currency string `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
}

type TopupRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id,omitempty" validate:"omitempty,max=100"`
}

// WalletDebitRequest debits a wallet directly. A repeated reference id returns the
// first entry.
type WalletDebitRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id,omitempty" validate:"omitempty,max=100"`
}

// WalletPayRequest debits a wallet for a payment.
type WalletPayRequest struct {
	UserID     string
	MerchantID string
	Amount     decimal.Decimal
	PaymentID  uuid.UUID
}

// WalletCreditRequest credits a wallet, e.g. as refund compensation.
type WalletCreditRequest struct {
	UserID        string
	MerchantID    string
	Amount        decimal.Decimal
	ReferenceKind string
	ReferenceID   string
	Description   string
}

type BalanceResponse struct {
	EntityKind string          `json:"entity_kind"`
	EntityID   string          `json:"entity_id"`
	Balance    decimal.Decimal `json:"balance"`
}
