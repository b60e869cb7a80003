package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ledgerRepository implements the LedgerRepository interface
type ledgerRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository instance
func NewLedgerRepository(db *gorm.DB, logger *zap.Logger) domainRepo.LedgerRepository {
	return &ledgerRepository{
		db:     db,
		logger: logger,
	}
}

// LockHead creates the head row if missing and locks it for update
func (r *ledgerRepository) LockHead(ctx context.Context, kind model.EntityKind, entityID string) (*model.LedgerHead, error) {
	tx := conn(ctx, r.db)

	// concurrent first appends both insert; the loser does nothing and waits on the lock below
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.LedgerHead{
			EntityKind: kind,
			EntityID:   entityID,
			Balance:    decimal.Zero,
			UpdatedAt:  time.Now(),
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger head: %w", translate(err))
	}

	var head model.LedgerHead
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("entity_kind = ? AND entity_id = ?", kind, entityID).
		First(&head).Error
	if err != nil {
		r.logger.Error("Failed to lock ledger head",
			zap.String("entity_kind", string(kind)),
			zap.String("entity_id", entityID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to lock ledger head: %w", translate(err))
	}
	return &head, nil
}

// GetHead retrieves the head without locking
func (r *ledgerRepository) GetHead(ctx context.Context, kind model.EntityKind, entityID string) (*model.LedgerHead, error) {
	var head model.LedgerHead
	err := conn(ctx, r.db).
		Where("entity_kind = ? AND entity_id = ?", kind, entityID).
		First(&head).Error
	if err != nil {
		return nil, translate(err)
	}
	return &head, nil
}

// AppendEntry inserts the entry and advances the head in the current transaction
func (r *ledgerRepository) AppendEntry(ctx context.Context, head *model.LedgerHead, entry *model.LedgerEntry) error {
	tx := conn(ctx, r.db)

	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", translate(err))
	}

	result := tx.Model(&model.LedgerHead{}).
		Where("entity_kind = ? AND entity_id = ? AND sequence = ?", head.EntityKind, head.EntityID, head.Sequence).
		Updates(map[string]interface{}{
			"balance":       entry.Balance,
			"sequence":      entry.Sequence,
			"last_entry_id": entry.ID,
			"updated_at":    entry.CreatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to advance ledger head: %w", translate(result.Error))
	}
	if result.RowsAffected == 0 {
		// the head moved without our lock
		return fmt.Errorf("ledger head moved for %s/%s: %w", head.EntityKind, head.EntityID, domainRepo.ErrConflict)
	}

	id := entry.ID
	head.Balance = entry.Balance
	head.Sequence = entry.Sequence
	head.LastEntryID = &id
	head.UpdatedAt = entry.CreatedAt
	return nil
}

// ListEntries returns the newest entries first
func (r *ledgerRepository) ListEntries(ctx context.Context, kind model.EntityKind, entityID string, limit int) ([]*model.LedgerEntry, error) {
	var entries []*model.LedgerEntry
	err := conn(ctx, r.db).
		Where("entity_kind = ? AND entity_id = ?", kind, entityID).
		Order("sequence DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", translate(err))
	}
	return entries, nil
}

func (r *ledgerRepository) FindByReference(ctx context.Context, kind model.EntityKind, entityID, referenceKind, referenceID string) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	err := conn(ctx, r.db).
		Where("entity_kind = ? AND entity_id = ? AND reference_kind = ? AND reference_id = ?", kind, entityID, referenceKind, referenceID).
		Order("sequence ASC").
		First(&entry).Error
	if err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

// walletRepository implements the WalletRepository interface
type walletRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWalletRepository creates a new wallet repository instance
func NewWalletRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WalletRepository {
	return &walletRepository{
		db:     db,
		logger: logger,
	}
}

func (r *walletRepository) Create(ctx context.Context, wallet *model.Wallet) error {
	if err := conn(ctx, r.db).Create(wallet).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *walletRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Wallet, error) {
	var wallet model.Wallet
	if err := conn(ctx, r.db).Where("id = ?", id).First(&wallet).Error; err != nil {
		return nil, translate(err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetByUserAndMerchant(ctx context.Context, userID, merchantID string) (*model.Wallet, error) {
	var wallet model.Wallet
	err := conn(ctx, r.db).
		Where("user_id = ? AND merchant_id = ?", userID, merchantID).
		First(&wallet).Error
	if err != nil {
		return nil, translate(err)
	}
	return &wallet, nil
}

// GetForUpdate locks the wallet row for the current transaction
func (r *walletRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Wallet, error) {
	var wallet model.Wallet
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&wallet).Error
	if err != nil {
		return nil, translate(err)
	}
	return &wallet, nil
}

func (r *walletRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	result := conn(ctx, r.db).Model(&model.Wallet{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance":    balance,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		r.logger.Error("Failed to update wallet balance",
			zap.String("wallet_id", id.String()),
			zap.String("balance", balance.String()),
			zap.Error(result.Error))
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainRepo.ErrNotFound
	}
	return nil
}
