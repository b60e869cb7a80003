package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenizedExecutor charges a stored payment token.
type TokenizedExecutor struct {
	tokens domainRepo.TokenRepository
	vault  provider.Vault
	logger *zap.Logger
	now    func() time.Time
}

func NewTokenizedExecutor(tokens domainRepo.TokenRepository, vault provider.Vault, logger *zap.Logger) *TokenizedExecutor {
	return &TokenizedExecutor{
		tokens: tokens,
		vault:  vault,
		logger: logger,
		now:    time.Now,
	}
}

func (e *TokenizedExecutor) Method() model.PaymentMethod {
	return model.PaymentMethodTokenized
}

func (e *TokenizedExecutor) Execute(ctx context.Context, payment *model.Payment) (provider.ExecutionResult, error) {
	tokenID, err := uuid.Parse(payment.MetadataString(model.MetadataTokenID))
	if err != nil {
		return provider.Declined("token_id is missing or malformed"), nil
	}

	token, err := e.tokens.GetByID(ctx, tokenID)
	if errors.Is(err, domainRepo.ErrNotFound) {
		return provider.Declined("payment token not found"), nil
	}
	if err != nil {
		return provider.ExecutionResult{}, fmt.Errorf("failed to load token: %w", err)
	}

	if token.MerchantID != payment.MerchantID {
		return provider.Declined("payment token not found"), nil
	}
	if payment.UserID != nil && *payment.UserID != "" && token.UserID != *payment.UserID {
		return provider.Declined("payment token belongs to another user"), nil
	}
	if !token.Usable(e.now()) {
		return provider.Declined("payment token is inactive or expired"), nil
	}

	// the card secret never leaves the vault boundary; decrypting proves it is intact
	if _, err := e.vault.Retrieve(ctx, token.VaultHandle); err != nil {
		e.logger.Error("Failed to open token secret",
			zap.String("payment_id", payment.ID.String()),
			zap.String("token_id", token.ID.String()),
			zap.Error(err))
		return provider.ExecutionResult{}, fmt.Errorf("failed to open token secret: %w", err)
	}

	return provider.Succeeded("TOKEN_" + token.ID.String()), nil
}
