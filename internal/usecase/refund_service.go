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
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/metrics"
	apperrors "github.com/Likith-Yadav/PayCoreX/pkg/errors"
	"github.com/Likith-Yadav/PayCoreX/pkg/keylock"
	"github.com/Likith-Yadav/PayCoreX/pkg/messaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RefundService reverses settled payments. Compensation runs before the merchant
// ledger debit, and the refund.success webhook goes out only after both.
type RefundService struct {
	paymentRepo domainRepo.PaymentRepository
	refundRepo  domainRepo.RefundRepository
	wallets     *WalletService
	ledger      *LedgerService
	tx          domainRepo.Transactor
	locks       *keylock.Locker
	notifier    notifier
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewRefundService creates a new refund service
func NewRefundService(
	paymentRepo domainRepo.PaymentRepository,
	refundRepo domainRepo.RefundRepository,
	wallets *WalletService,
	ledger *LedgerService,
	tx domainRepo.Transactor,
	locks *keylock.Locker,
	webhooks WebhookEnqueuer,
	events messaging.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		paymentRepo: paymentRepo,
		refundRepo:  refundRepo,
		wallets:     wallets,
		ledger:      ledger,
		tx:          tx,
		locks:       locks,
		notifier:    newNotifier(webhooks, events, logger),
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Create refunds all or part of a settled payment.
func (s *RefundService) Create(ctx context.Context, req dto.CreateRefundRequest) (*model.Refund, error) {
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, customErr.NewValidationError("refund amount must be positive")
		}
		if !req.Amount.Equal(req.Amount.Round(2)) {
			return nil, customErr.NewValidationError("refund amount has more than two decimal places")
		}
	}

	refund, payment, err := s.reserve(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Refund created",
		zap.String("refund_id", refund.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("merchant_id", payment.MerchantID),
		zap.String("amount", refund.Amount.String()))

	return s.execute(ctx, refund, payment)
}

// reserve checks eligibility and inserts the pending refund atomically, under the
// payment row lock, so concurrent refunds cannot exceed the payment amount together.
func (s *RefundService) reserve(ctx context.Context, req dto.CreateRefundRequest) (*model.Refund, *model.Payment, error) {
	ctx, unlock, err := s.locks.Lock(ctx, "refund:"+req.PaymentID.String())
	if err != nil {
		return nil, nil, customErr.NewInternalError("failed to lock payment for refund", err)
	}
	defer unlock()

	var (
		refund  *model.Refund
		payment *model.Payment
	)
	err = runInTx(ctx, s.tx, s.ledger.maxAttempts, func(ctx context.Context) error {
		p, err := s.paymentRepo.GetByIDForUpdate(ctx, req.PaymentID)
		if err != nil {
			if errors.Is(err, domainRepo.ErrNotFound) {
				return customErr.NewNotFoundError("payment")
			}
			return fmt.Errorf("failed to lock payment: %w", err)
		}
		if p.MerchantID != req.MerchantID {
			return customErr.NewNotFoundError("payment")
		}
		if p.Status != model.PaymentStatusSuccess {
			return customErr.NewInvalidStateError("payment in status %s cannot be refunded", p.Status)
		}

		amount := amountOrFull(req.Amount, p.Amount)
		if amount.GreaterThan(p.Amount) {
			return customErr.NewLimitExceededError("refund amount %s exceeds payment amount %s", amount.StringFixed(2), p.Amount.StringFixed(2))
		}
		refunded, err := s.refundRepo.SumActiveByPayment(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to sum refunds: %w", err)
		}
		if remaining := p.Amount.Sub(refunded); amount.GreaterThan(remaining) {
			return customErr.NewLimitExceededError("refund amount %s exceeds refundable amount %s", amount.StringFixed(2), remaining.StringFixed(2))
		}

		referenceID := strings.TrimSpace(req.ReferenceID)
		id := uuid.New()
		if referenceID == "" {
			referenceID = "RFD_" + id.String()
		}
		now := s.now()
		r := &model.Refund{
			ID:          id,
			PaymentID:   p.ID,
			MerchantID:  p.MerchantID,
			Amount:      amount,
			Status:      model.RefundStatusPending,
			Reason:      req.Reason,
			ReferenceID: referenceID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.refundRepo.Create(ctx, r); err != nil {
			if errors.Is(err, domainRepo.ErrDuplicate) {
				return customErr.ErrDuplicateReference
			}
			return fmt.Errorf("failed to create refund: %w", err)
		}

		refund, payment = r, p
		return nil
	})
	if err != nil {
		return nil, nil, storageError("failed to create refund", err)
	}
	return refund, payment, nil
}

func (s *RefundService) execute(ctx context.Context, refund *model.Refund, payment *model.Payment) (*model.Refund, error) {
	if err := s.transition(ctx, refund, model.RefundStatusPending, domainRepo.RefundUpdate{Status: model.RefundStatusProcessing}); err != nil {
		return nil, err
	}

	providerRef, err := s.compensate(ctx, refund, payment)
	if err != nil {
		reason := err.Error()
		s.logger.Error("Refund compensation failed",
			zap.String("refund_id", refund.ID.String()),
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err))
		if terr := s.transition(ctx, refund, model.RefundStatusProcessing, domainRepo.RefundUpdate{
			Status:        model.RefundStatusFailed,
			FailureReason: &reason,
		}); terr != nil {
			return nil, terr
		}
		s.metrics.RefundFinished(string(model.RefundStatusFailed))
		return nil, customErr.NewExecutionFailure("refund compensation failed", err)
	}

	lockCtx, unlock, err := s.ledger.LockEntity(ctx, model.EntityMerchant, payment.MerchantID)
	if err != nil {
		return nil, customErr.NewLedgerWriteFailure(err)
	}

	err = runInTx(lockCtx, s.tx, s.ledger.maxAttempts, func(ctx context.Context) error {
		if _, err := s.ledger.Append(ctx, AppendRequest{
			EntityKind:    model.EntityMerchant,
			EntityID:      payment.MerchantID,
			Debit:         refund.Amount,
			ReferenceKind: model.ReferenceRefund,
			ReferenceID:   refund.ID.String(),
			Description:   "refund " + refund.ReferenceID,
		}); err != nil {
			return err
		}
		return s.transition(ctx, refund, model.RefundStatusProcessing, domainRepo.RefundUpdate{
			Status:            model.RefundStatusSuccess,
			ProviderReference: &providerRef,
		})
	})
	unlock()
	if err != nil {
		err = storageError("failed to complete refund", err)
		if apperrors.HasCode(err, apperrors.ErrLedgerWriteFailure) {
			// compensation already happened; left processing for reconciliation
			s.logger.Error("Refund left processing after ledger failure",
				zap.String("refund_id", refund.ID.String()),
				zap.String("payment_id", payment.ID.String()),
				zap.String("merchant_id", payment.MerchantID),
				zap.String("provider_reference", providerRef),
				zap.Error(err))
		}
		return nil, err
	}

	refund.ProviderReference = &providerRef
	s.metrics.RefundFinished(string(refund.Status))
	s.logger.Info("Refund completed",
		zap.String("refund_id", refund.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", refund.Amount.String()))

	s.notifier.notify(ctx, refund.MerchantID, model.EventRefundSuccess, refund.ID.String(), refundEventData(refund))
	return refund, nil
}

// compensate returns funds to the payer. Wallet payments are credited back to the
// wallet; other methods settle externally and only get a provider reference.
func (s *RefundService) compensate(ctx context.Context, refund *model.Refund, payment *model.Payment) (string, error) {
	if payment.Method != model.PaymentMethodWallet {
		return fmt.Sprintf("REFUND_%s_%s", payment.Method, refund.ID), nil
	}
	if payment.UserID == nil {
		return "", errors.New("wallet payment has no user")
	}

	entry, err := s.wallets.Credit(ctx, dto.WalletCreditRequest{
		UserID:        *payment.UserID,
		MerchantID:    payment.MerchantID,
		Amount:        refund.Amount,
		ReferenceKind: model.ReferenceRefund,
		ReferenceID:   refund.ID.String(),
		Description:   "refund of payment " + payment.ReferenceID,
	})
	if err != nil {
		return "", err
	}
	return "WALLET_REFUND_" + entry.ID.String(), nil
}

func (s *RefundService) transition(ctx context.Context, refund *model.Refund, from model.RefundStatus, update domainRepo.RefundUpdate) error {
	ok, err := s.refundRepo.UpdateIfStatus(ctx, refund.ID, []model.RefundStatus{from}, update)
	if err != nil {
		return fmt.Errorf("failed to update refund status: %w", err)
	}
	if !ok {
		return customErr.NewInvalidStateError("refund is no longer %s", from)
	}
	refund.Status = update.Status
	if update.FailureReason != nil {
		refund.FailureReason = update.FailureReason
	}
	refund.UpdatedAt = s.now()
	return nil
}

// Get returns one of the merchant's refunds.
func (s *RefundService) Get(ctx context.Context, merchantID string, id uuid.UUID) (*model.Refund, error) {
	refund, err := s.refundRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainRepo.ErrNotFound) {
			return nil, customErr.NewNotFoundError("refund")
		}
		return nil, customErr.NewInternalError("failed to load refund", err)
	}
	if refund.MerchantID != merchantID {
		return nil, customErr.NewNotFoundError("refund")
	}
	return refund, nil
}

// ListByPayment returns the refunds of one of the merchant's payments.
func (s *RefundService) ListByPayment(ctx context.Context, merchantID string, paymentID uuid.UUID) ([]*model.Refund, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domainRepo.ErrNotFound) {
			return nil, customErr.NewNotFoundError("payment")
		}
		return nil, customErr.NewInternalError("failed to load payment", err)
	}
	if payment.MerchantID != merchantID {
		return nil, customErr.NewNotFoundError("payment")
	}

	refunds, err := s.refundRepo.ListByPayment(ctx, paymentID)
	if err != nil {
		return nil, customErr.NewInternalError("failed to list refunds", err)
	}
	return refunds, nil
}
