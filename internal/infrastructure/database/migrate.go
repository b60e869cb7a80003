package database

import (
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.Payment{},
		&model.Refund{},
		&model.LedgerEntry{},
		&model.LedgerHead{},
		&model.Wallet{},
		&model.WebhookEndpoint{},
		&model.WebhookDelivery{},
		&model.PaymentToken{},
		&model.VaultSecret{},
		&model.MerchantPaymentConfig{},
		&model.CryptoAddress{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}
	if err := createLedgerGuards(db); err != nil {
		logger.Error("Failed to create ledger guards", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates partial indexes GORM doesn't handle
func createCustomIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_deliveries_retry_due ON webhook_deliveries (next_retry_at) WHERE status IN ('retrying', 'failed') AND retry_count < max_retries`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_refunds_active ON refunds (payment_id) WHERE status <> 'failed'`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_single_reference ON ledger_entries (entity_kind, entity_id, reference_kind, reference_id) WHERE reference_id <> ''`).Error; err != nil {
		return err
	}
	return nil
}

// createLedgerGuards makes ledger_entries append-only at the database level
func createLedgerGuards(db *gorm.DB) error {
	if err := db.Exec(`
CREATE OR REPLACE FUNCTION ledger_entries_immutable() RETURNS TRIGGER AS $$
BEGIN
    RAISE EXCEPTION 'ledger_entries is append-only';
END;
$$ LANGUAGE plpgsql;`).Error; err != nil {
		return err
	}
	if err := db.Exec(`DROP TRIGGER IF EXISTS ledger_entries_no_change ON ledger_entries`).Error; err != nil {
		return err
	}
	return db.Exec(`
CREATE TRIGGER ledger_entries_no_change
    BEFORE UPDATE OR DELETE ON ledger_entries
    FOR EACH ROW EXECUTE FUNCTION ledger_entries_immutable();`).Error
}
