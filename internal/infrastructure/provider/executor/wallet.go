package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	customErr "github.com/Likith-Yadav/PayCoreX/internal/domain/errors"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
	apperrors "github.com/Likith-Yadav/PayCoreX/pkg/errors"
	"go.uber.org/zap"
)

// WalletPayer opens payer wallets on demand and debits them once per payment.
type WalletPayer interface {
	GetOrCreate(ctx context.Context, merchantID string, req dto.CreateWalletRequest) (*model.Wallet, error)
	Pay(ctx context.Context, req dto.WalletPayRequest) (*model.LedgerEntry, error)
}

// WalletExecutor settles a payment from the payer's stored-value wallet.
type WalletExecutor struct {
	wallets WalletPayer
	logger  *zap.Logger
}

func NewWalletExecutor(wallets WalletPayer, logger *zap.Logger) *WalletExecutor {
	return &WalletExecutor{wallets: wallets, logger: logger}
}

func (e *WalletExecutor) Method() model.PaymentMethod {
	return model.PaymentMethodWallet
}

// Execute opens the payer's wallet if it has none yet, then debits it. A repeated
// call for the same payment finds the first debit and succeeds without another one.
func (e *WalletExecutor) Execute(ctx context.Context, payment *model.Payment) (provider.ExecutionResult, error) {
	if payment.UserID == nil || *payment.UserID == "" {
		return provider.Declined("user_id is required for wallet payments"), nil
	}

	wallet, err := e.wallets.GetOrCreate(ctx, payment.MerchantID, dto.CreateWalletRequest{
		UserID:   *payment.UserID,
		Currency: payment.Currency,
	})
	if err != nil {
		e.logger.Error("Wallet lookup failed",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err))
		return provider.ExecutionResult{}, fmt.Errorf("wallet lookup failed: %w", err)
	}

	entry, err := e.wallets.Pay(ctx, dto.WalletPayRequest{
		UserID:     *payment.UserID,
		MerchantID: payment.MerchantID,
		Amount:     payment.Amount,
		PaymentID:  payment.ID,
	})
	if err != nil {
		var insufficient *customErr.InsufficientBalanceError
		switch {
		case errors.As(err, &insufficient):
			return provider.Declined("insufficient wallet balance"), nil
		case apperrors.HasCode(err, apperrors.ErrNotFound):
			return provider.Declined("wallet not found"), nil
		case apperrors.HasCode(err, apperrors.ErrInvalidState):
			return provider.Declined("wallet is inactive"), nil
		}
		e.logger.Error("Wallet debit failed",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err))
		return provider.ExecutionResult{}, fmt.Errorf("wallet debit failed: %w", err)
	}

	e.logger.Debug("Wallet debited",
		zap.String("payment_id", payment.ID.String()),
		zap.String("wallet_id", wallet.ID.String()),
		zap.Int64("sequence", entry.Sequence))
	return provider.Succeeded("WALLET_" + payment.ID.String()), nil
}
