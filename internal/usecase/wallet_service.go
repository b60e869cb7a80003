package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	customErr "github.com/Likith-Yadav/PayCoreX/internal/domain/errors"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WalletService manages stored-value wallets. Every balance change writes the wallet
// row and its ledger entry in one transaction.
type WalletService struct {
	walletRepo      domainRepo.WalletRepository
	ledger          *LedgerService
	tx              domainRepo.Transactor
	defaultCurrency string
	maxAttempts     int
	logger          *zap.Logger
	now             func() time.Time
}

// NewWalletService creates a new wallet service
func NewWalletService(
	walletRepo domainRepo.WalletRepository,
	ledger *LedgerService,
	tx domainRepo.Transactor,
	defaultCurrency string,
	logger *zap.Logger,
) *WalletService {
	if defaultCurrency == "" {
		defaultCurrency = "INR"
	}
	return &WalletService{
		walletRepo:      walletRepo,
		ledger:          ledger,
		tx:              tx,
		defaultCurrency: defaultCurrency,
		maxAttempts:     ledger.maxAttempts,
		logger:          logger,
		now:             time.Now,
	}
}

// GetOrCreate returns the (user, merchant) wallet, creating an empty one if needed.
func (s *WalletService) GetOrCreate(ctx context.Context, merchantID string, req dto.CreateWalletRequest) (*model.Wallet, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, customErr.NewValidationError("user_id is required")
	}

	wallet, err := s.walletRepo.GetByUserAndMerchant(ctx, req.UserID, merchantID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, domainRepo.ErrNotFound) {
		return nil, customErr.NewInternalError("failed to load wallet", err)
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}
	now := s.now()
	wallet = &model.Wallet{
		ID:         uuid.New(),
		UserID:     req.UserID,
		MerchantID: merchantID,
		Balance:    decimal.Zero,
		Currency:   currency,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		if errors.Is(err, domainRepo.ErrDuplicate) {
			// created concurrently
			return s.Get(ctx, req.UserID, merchantID)
		}
		return nil, customErr.NewInternalError("failed to create wallet", err)
	}

	s.logger.Info("Wallet created",
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("user_id", wallet.UserID),
		zap.String("merchant_id", merchantID))
	return wallet, nil
}

// Get returns the wallet for (user, merchant).
func (s *WalletService) Get(ctx context.Context, userID, merchantID string) (*model.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserAndMerchant(ctx, userID, merchantID)
	if err != nil {
		if errors.Is(err, domainRepo.ErrNotFound) {
			return nil, customErr.NewNotFoundError("wallet")
		}
		return nil, customErr.NewInternalError("failed to load wallet", err)
	}
	return wallet, nil
}

// Balance returns the wallet balance for (user, merchant).
func (s *WalletService) Balance(ctx context.Context, userID, merchantID string) (decimal.Decimal, error) {
	wallet, err := s.Get(ctx, userID, merchantID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

// History returns the wallet's ledger entries, newest first.
func (s *WalletService) History(ctx context.Context, userID, merchantID string, limit int) ([]*model.LedgerEntry, error) {
	wallet, err := s.Get(ctx, userID, merchantID)
	if err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, model.EntityWallet, wallet.ID.String(), limit)
}

// Topup credits a wallet. A repeated reference id returns the original entry.
func (s *WalletService) Topup(ctx context.Context, userID, merchantID string, req dto.TopupRequest) (*model.Wallet, *model.LedgerEntry, error) {
	if !req.Amount.IsPositive() {
		return nil, nil, customErr.NewValidationError("amount must be positive")
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, nil, customErr.NewValidationError("amount has more than two decimal places")
	}

	wallet, err := s.Get(ctx, userID, merchantID)
	if err != nil {
		return nil, nil, err
	}

	referenceID := req.ReferenceID
	if referenceID == "" {
		referenceID = "TOPUP_" + uuid.NewString()
	}

	return s.mutate(ctx, wallet.ID, model.ReferenceTopup, referenceID, func(w *model.Wallet) (AppendRequest, error) {
		if !w.IsActive {
			return AppendRequest{}, customErr.NewInvalidStateError("wallet is inactive")
		}
		return AppendRequest{
			Credit:      req.Amount,
			Description: "wallet topup",
		}, nil
	})
}

// Pay debits the payer's wallet for a payment. Paying the same payment twice returns
// the first entry without a second debit.
func (s *WalletService) Pay(ctx context.Context, req dto.WalletPayRequest) (*model.LedgerEntry, error) {
	if !req.Amount.IsPositive() {
		return nil, customErr.NewValidationError("amount must be positive")
	}

	wallet, err := s.Get(ctx, req.UserID, req.MerchantID)
	if err != nil {
		return nil, err
	}

	_, entry, err := s.debit(ctx, wallet.ID, model.ReferencePayment, req.PaymentID.String(), req.Amount, "payment "+req.PaymentID.String())
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit takes funds from a wallet without a payment record. A repeated reference id
// returns the first entry.
func (s *WalletService) Debit(ctx context.Context, userID, merchantID string, req dto.WalletDebitRequest) (*model.Wallet, *model.LedgerEntry, error) {
	if !req.Amount.IsPositive() {
		return nil, nil, customErr.NewValidationError("amount must be positive")
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, nil, customErr.NewValidationError("amount has more than two decimal places")
	}

	wallet, err := s.Get(ctx, userID, merchantID)
	if err != nil {
		return nil, nil, err
	}

	referenceID := req.ReferenceID
	if referenceID == "" {
		referenceID = "WPAY_" + uuid.NewString()
	}
	return s.debit(ctx, wallet.ID, model.ReferenceWalletPay, referenceID, req.Amount, "wallet payment")
}

func (s *WalletService) debit(
	ctx context.Context,
	walletID uuid.UUID,
	referenceKind, referenceID string,
	amount decimal.Decimal,
	description string,
) (*model.Wallet, *model.LedgerEntry, error) {
	return s.mutate(ctx, walletID, referenceKind, referenceID, func(w *model.Wallet) (AppendRequest, error) {
		if !w.IsActive {
			return AppendRequest{}, customErr.NewInvalidStateError("wallet is inactive")
		}
		if w.Balance.LessThan(amount) {
			return AppendRequest{}, customErr.NewInsufficientBalanceError(amount, w.Balance)
		}
		return AppendRequest{
			Debit:       amount,
			Description: description,
		}, nil
	})
}

// Credit adds funds to an existing wallet, e.g. refund compensation. A repeated
// reference returns the first entry.
func (s *WalletService) Credit(ctx context.Context, req dto.WalletCreditRequest) (*model.LedgerEntry, error) {
	if !req.Amount.IsPositive() {
		return nil, customErr.NewValidationError("amount must be positive")
	}

	wallet, err := s.Get(ctx, req.UserID, req.MerchantID)
	if err != nil {
		return nil, err
	}

	_, entry, err := s.mutate(ctx, wallet.ID, req.ReferenceKind, req.ReferenceID, func(*model.Wallet) (AppendRequest, error) {
		return AppendRequest{
			Credit:      req.Amount,
			Description: req.Description,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// mutate locks the wallet, checks the reference for a prior entry, then updates the
// wallet balance and appends the ledger entry built by change in one transaction.
func (s *WalletService) mutate(
	ctx context.Context,
	walletID uuid.UUID,
	referenceKind, referenceID string,
	change func(w *model.Wallet) (AppendRequest, error),
) (*model.Wallet, *model.LedgerEntry, error) {
	ctx, unlock, err := s.ledger.LockEntity(ctx, model.EntityWallet, walletID.String())
	if err != nil {
		return nil, nil, customErr.NewLedgerWriteFailure(err)
	}
	defer unlock()

	if referenceID != "" {
		existing, err := s.ledger.FindByReference(ctx, model.EntityWallet, walletID.String(), referenceKind, referenceID)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil {
			wallet, err := s.walletRepo.GetByID(ctx, walletID)
			if err != nil {
				return nil, nil, customErr.NewInternalError("failed to load wallet", err)
			}
			return wallet, existing, nil
		}
	}

	var (
		wallet *model.Wallet
		entry  *model.LedgerEntry
	)
	err = runInTx(ctx, s.tx, s.maxAttempts, func(ctx context.Context) error {
		w, err := s.walletRepo.GetForUpdate(ctx, walletID)
		if err != nil {
			return fmt.Errorf("failed to lock wallet: %w", err)
		}

		req, err := change(w)
		if err != nil {
			return err
		}
		req.EntityKind = model.EntityWallet
		req.EntityID = w.ID.String()
		req.ReferenceKind = referenceKind
		req.ReferenceID = referenceID

		e, err := s.ledger.Append(ctx, req)
		if err != nil {
			return err
		}

		balance := w.Balance.Add(req.Credit).Sub(req.Debit)
		if err := s.walletRepo.UpdateBalance(ctx, w.ID, balance); err != nil {
			return fmt.Errorf("failed to update wallet balance: %w", err)
		}
		w.Balance = balance
		w.UpdatedAt = s.now()

		wallet, entry = w, e
		return nil
	})
	if err != nil {
		var insufficient *customErr.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			s.logger.Info("Wallet debit declined",
				zap.String("wallet_id", walletID.String()),
				zap.String("requested", insufficient.Requested.String()),
				zap.String("available", insufficient.Available.String()))
			return nil, nil, err
		}
		return nil, nil, storageError("failed to update wallet", err)
	}

	s.logger.Info("Wallet balance changed",
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("reference_kind", referenceKind),
		zap.String("reference_id", referenceID),
		zap.String("balance", wallet.Balance.String()))
	return wallet, entry, nil
}
