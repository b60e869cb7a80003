package database

import (
	"github.com/Likith-Yadav/PayCoreX/internal/adapter/repository"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Tx            domainRepo.Transactor
	Payment       domainRepo.PaymentRepository
	Refund        domainRepo.RefundRepository
	Ledger        domainRepo.LedgerRepository
	Wallet        domainRepo.WalletRepository
	Webhook       domainRepo.WebhookRepository
	Token         domainRepo.TokenRepository
	Vault         domainRepo.VaultRepository
	PaymentConfig domainRepo.PaymentConfigRepository
	CryptoAddress domainRepo.CryptoAddressRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Tx:            repository.NewTransactor(db),
		Payment:       repository.NewPaymentRepository(db, logger),
		Refund:        repository.NewRefundRepository(db, logger),
		Ledger:        repository.NewLedgerRepository(db, logger),
		Wallet:        repository.NewWalletRepository(db, logger),
		Webhook:       repository.NewWebhookRepository(db, logger),
		Token:         repository.NewTokenRepository(db, logger),
		Vault:         repository.NewVaultRepository(db),
		PaymentConfig: repository.NewPaymentConfigRepository(db, logger),
		CryptoAddress: repository.NewCryptoAddressRepository(db),
	}
}
