package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	customErr "github.com/Likith-Yadav/PayCoreX/internal/domain/errors"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/metrics"
	apperrors "github.com/Likith-Yadav/PayCoreX/pkg/errors"
	"github.com/Likith-Yadav/PayCoreX/pkg/messaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Settlement sources, used in logs and metrics.
const (
	SourceExecutor       = "executor"
	SourceGateway        = "gateway"
	SourceMerchantManual = "merchant"
)

// errAlreadySettled is returned when another path settled the payment first.
var errAlreadySettled = errors.New("payment already settled")

// SettleRequest moves one payment to success.
type SettleRequest struct {
	PaymentID         uuid.UUID
	From              []model.PaymentStatus
	ProviderReference *string
	VerifiedBy        *string
	Source            string
}

// SettlementService is the single path to success. The status change and the merchant
// ledger credit commit together or not at all.
type SettlementService struct {
	paymentRepo domainRepo.PaymentRepository
	ledger      *LedgerService
	tx          domainRepo.Transactor
	notifier    notifier
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	paymentRepo domainRepo.PaymentRepository,
	ledger *LedgerService,
	tx domainRepo.Transactor,
	webhooks WebhookEnqueuer,
	events messaging.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		paymentRepo: paymentRepo,
		ledger:      ledger,
		tx:          tx,
		notifier:    newNotifier(webhooks, events, logger),
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Commit compare-and-sets the payment from req.From to success and credits the
// merchant ledger in the same transaction. The payment.success webhook goes out only
// after commit. errAlreadySettled means a concurrent path won; no second credit exists.
func (s *SettlementService) Commit(ctx context.Context, req SettleRequest) (*model.Payment, error) {
	current, err := s.paymentRepo.GetByID(ctx, req.PaymentID)
	if err != nil {
		if errors.Is(err, domainRepo.ErrNotFound) {
			return nil, customErr.NewNotFoundError("payment")
		}
		return nil, customErr.NewInternalError("failed to load payment", err)
	}

	lockCtx, unlock, err := s.ledger.LockEntity(ctx, model.EntityMerchant, current.MerchantID)
	if err != nil {
		return nil, customErr.NewLedgerWriteFailure(err)
	}

	var payment *model.Payment
	err = runInTx(lockCtx, s.tx, s.ledger.maxAttempts, func(ctx context.Context) error {
		now := s.now()
		update := domainRepo.PaymentUpdate{
			Status:            model.PaymentStatusSuccess,
			ProviderReference: req.ProviderReference,
			VerifiedBy:        req.VerifiedBy,
			SettledAt:         &now,
		}
		if req.VerifiedBy != nil {
			update.VerifiedAt = &now
		}

		ok, err := s.paymentRepo.UpdateIfStatus(ctx, req.PaymentID, req.From, update)
		if err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}
		if !ok {
			latest, err := s.paymentRepo.GetByID(ctx, req.PaymentID)
			if err != nil {
				return fmt.Errorf("failed to reload payment: %w", err)
			}
			if latest.Status == model.PaymentStatusSuccess {
				return errAlreadySettled
			}
			return customErr.NewInvalidStateError("payment in status %s cannot be settled", latest.Status)
		}

		p, err := s.paymentRepo.GetByID(ctx, req.PaymentID)
		if err != nil {
			return fmt.Errorf("failed to reload payment: %w", err)
		}

		if _, err := s.ledger.Append(ctx, AppendRequest{
			EntityKind:    model.EntityMerchant,
			EntityID:      p.MerchantID,
			Credit:        p.Amount,
			ReferenceKind: model.ReferencePayment,
			ReferenceID:   p.ID.String(),
			Description:   "payment " + p.ReferenceID,
		}); err != nil {
			return err
		}

		payment = p
		return nil
	})
	// webhook and event I/O below must not hold up the merchant's ledger
	unlock()
	if err != nil {
		if errors.Is(err, errAlreadySettled) {
			return nil, errAlreadySettled
		}
		err = storageError("failed to settle payment", err)
		if apperrors.HasCode(err, apperrors.ErrLedgerWriteFailure) {
			s.logger.Error("Settlement not committed, ledger unavailable",
				zap.String("payment_id", req.PaymentID.String()),
				zap.String("merchant_id", current.MerchantID),
				zap.String("source", req.Source),
				zap.Error(err))
		}
		return nil, err
	}

	s.metrics.Settled(req.Source)
	s.metrics.PaymentFinished(string(payment.Method), string(payment.Status))
	s.logger.Info("Payment settled",
		zap.String("payment_id", payment.ID.String()),
		zap.String("merchant_id", payment.MerchantID),
		zap.String("amount", payment.Amount.String()),
		zap.String("method", string(payment.Method)),
		zap.String("source", req.Source))

	s.notifier.notify(ctx, payment.MerchantID, model.EventPaymentSuccess, payment.ID.String(), paymentEventData(payment))
	return payment, nil
}
