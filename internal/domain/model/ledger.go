package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntityKind names the kind of account a ledger entry belongs to.
type EntityKind string

const (
	EntityMerchant EntityKind = "merchant"
	EntityWallet   EntityKind = "wallet"
)

// Reference kinds link ledger entries back to their cause.
const (
	ReferencePayment   = "payment"
	ReferenceRefund    = "refund"
	ReferenceTopup     = "topup"
	ReferenceWalletPay = "wallet_pay"
)

// LedgerEntry is an immutable credit or debit against one entity, carrying the resulting balance.
type LedgerEntry struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EntityKind    EntityKind      `gorm:"size:20;not null;uniqueIndex:idx_ledger_entity_seq,priority:1;index:idx_ledger_reference,priority:1" json:"entity_kind"`
	EntityID      string          `gorm:"size:64;not null;uniqueIndex:idx_ledger_entity_seq,priority:2;index:idx_ledger_reference,priority:2" json:"entity_id"`
	Sequence      int64           `gorm:"not null;uniqueIndex:idx_ledger_entity_seq,priority:3" json:"sequence"`
	Credit        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"credit"`
	Debit         decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"debit"`
	Balance       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"balance"`
	ReferenceKind string          `gorm:"size:20;index:idx_ledger_reference,priority:3" json:"reference_kind,omitempty"`
	ReferenceID   string          `gorm:"size:100;index:idx_ledger_reference,priority:4" json:"reference_id,omitempty"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Net returns credit minus debit.
func (e *LedgerEntry) Net() decimal.Decimal {
	return e.Credit.Sub(e.Debit)
}

// LedgerHead tracks the latest balance and sequence for one entity. Appends lock this row.
type LedgerHead struct {
	EntityKind  EntityKind      `gorm:"size:20;primaryKey" json:"entity_kind"`
	EntityID    string          `gorm:"size:64;primaryKey" json:"entity_id"`
	Balance     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	Sequence    int64           `gorm:"not null;default:0" json:"sequence"`
	LastEntryID *uuid.UUID      `gorm:"type:uuid" json:"last_entry_id,omitempty"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (LedgerHead) TableName() string {
	return "ledger_heads"
}
