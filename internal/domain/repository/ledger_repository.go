package repository

import (
	"context"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerRepository is the append-only journal. It has no update or delete for entries.
type LedgerRepository interface {
	// LockHead returns the entity's head row, creating a zero head if needed, locked for
	// the rest of the current transaction. Must be called inside a transaction.
	LockHead(ctx context.Context, kind model.EntityKind, entityID string) (*model.LedgerHead, error)

	// GetHead returns the head without locking, or ErrNotFound
	GetHead(ctx context.Context, kind model.EntityKind, entityID string) (*model.LedgerHead, error)

	// AppendEntry inserts entry and moves the head to it
	AppendEntry(ctx context.Context, head *model.LedgerHead, entry *model.LedgerEntry) error

	// ListEntries returns newest first
	ListEntries(ctx context.Context, kind model.EntityKind, entityID string, limit int) ([]*model.LedgerEntry, error)

	FindByReference(ctx context.Context, kind model.EntityKind, entityID, referenceKind, referenceID string) (*model.LedgerEntry, error)
}

// WalletRepository persists wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet *model.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Wallet, error)
	GetByUserAndMerchant(ctx context.Context, userID, merchantID string) (*model.Wallet, error)

	// GetForUpdate locks the wallet row for the current transaction
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Wallet, error)

	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
}
