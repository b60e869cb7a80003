package dto

import "time"

type StoreTokenRequest struct {
	UserID    string     `json:"user_id" validate:"required,max=64"`
	Token     string     `json:"token" validate:"required,min=8,max=512"`
	Brand     string     `json:"brand,omitempty" validate:"omitempty,max=30"`
	Last4     string     `json:"last4,omitempty" validate:"omitempty,len=4,numeric"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type RegisterAddressRequest struct {
	Network string `json:"network" validate:"required,max=30"`
	Address string `json:"address" validate:"required,max=100"`
	Label   string `json:"label,omitempty" validate:"omitempty,max=100"`
}

// Crypto transaction states reported by a status lookup.
const (
	TxStatusPending    = "pending"
	TxStatusConfirming = "confirming"
	TxStatusConfirmed  = "confirmed"
	TxStatusFailed     = "failed"
)

// CryptoTxStatus is the on-chain state of one transaction. BlockNumber is nil until mined.
type CryptoTxStatus struct {
	TxHash        string  `json:"tx_hash"`
	Network       string  `json:"network"`
	Status        string  `json:"status"`
	Confirmations uint64  `json:"confirmations"`
	BlockNumber   *uint64 `json:"block_number,omitempty"`
}

type CreatePaymentConfigRequest struct {
	ConfigType     string                 `json:"config_type" validate:"required,oneof=razorpay stripe phonepe paytm upi crypto"`
	ProviderKey    string                 `json:"provider_key,omitempty" validate:"omitempty,max=200"`
	ProviderSecret string                 `json:"provider_secret,omitempty" validate:"omitempty,max=500"`
	Settings       map[string]interface{} `json:"settings,omitempty"`
}
