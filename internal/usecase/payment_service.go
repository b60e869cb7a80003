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
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/metrics"
	apperrors "github.com/Likith-Yadav/PayCoreX/pkg/errors"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	referenceAlphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referenceLength    = 16
	defaultListLimit   = 20
	maxListLimit       = 100
	defaultExecTimeout = 30 * time.Second
)

// PaymentService creates payments and drives them through the state machine:
// pending -> processing -> success | failed, with cancel from pending.
type PaymentService struct {
	paymentRepo     domainRepo.PaymentRepository
	executors       *provider.Executors
	settlement      *SettlementService
	defaultCurrency string
	execTimeout     time.Duration
	metrics         *metrics.Metrics
	logger          *zap.Logger
	now             func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo domainRepo.PaymentRepository,
	executors *provider.Executors,
	settlement *SettlementService,
	defaultCurrency string,
	execTimeout time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PaymentService {
	if defaultCurrency == "" {
		defaultCurrency = "INR"
	}
	if execTimeout <= 0 {
		execTimeout = defaultExecTimeout
	}
	return &PaymentService{
		paymentRepo:     paymentRepo,
		executors:       executors,
		settlement:      settlement,
		defaultCurrency: defaultCurrency,
		execTimeout:     execTimeout,
		metrics:         m,
		logger:          logger,
		now:             time.Now,
	}
}

// Create validates and stores a pending payment. Nothing is executed.
func (s *PaymentService) Create(ctx context.Context, req dto.CreatePaymentRequest) (*model.Payment, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	referenceID := strings.TrimSpace(req.ReferenceID)
	if referenceID == "" {
		suffix, err := gonanoid.Generate(referenceAlphabet, referenceLength)
		if err != nil {
			return nil, customErr.NewInternalError("failed to generate reference id", err)
		}
		referenceID = "PAY_" + suffix
	}

	now := s.now()
	payment := &model.Payment{
		ID:          uuid.New(),
		MerchantID:  req.MerchantID,
		UserID:      req.UserID,
		Amount:      req.Amount,
		Currency:    currency,
		Status:      model.PaymentStatusPending,
		Method:      req.Method,
		ReferenceID: referenceID,
		Metadata:    req.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, domainRepo.ErrDuplicate) {
			return nil, customErr.ErrDuplicateReference
		}
		s.logger.Error("Failed to create payment",
			zap.String("merchant_id", req.MerchantID),
			zap.String("reference_id", referenceID),
			zap.Error(err))
		return nil, customErr.NewInternalError("failed to create payment", err)
	}

	s.logger.Info("Payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("merchant_id", payment.MerchantID),
		zap.String("reference_id", payment.ReferenceID),
		zap.String("method", string(payment.Method)),
		zap.String("amount", payment.Amount.String()))
	return payment, nil
}

func (s *PaymentService) validateCreate(req dto.CreatePaymentRequest) error {
	if strings.TrimSpace(req.MerchantID) == "" {
		return customErr.NewValidationError("merchant_id is required")
	}
	if !req.Amount.IsPositive() {
		return customErr.NewValidationError("amount must be positive")
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return customErr.NewValidationError("amount has more than two decimal places")
	}
	if !req.Method.Valid() {
		return customErr.NewValidationError("unsupported payment method %q", req.Method)
	}
	if req.Currency != "" && len(strings.TrimSpace(req.Currency)) != 3 {
		return customErr.NewValidationError("currency must be a 3-letter code")
	}
	if req.Method == model.PaymentMethodWallet && (req.UserID == nil || strings.TrimSpace(*req.UserID) == "") {
		return customErr.NewValidationError("user_id is required for wallet payments")
	}
	for _, key := range req.Method.RequiredMetadata() {
		v, _ := req.Metadata[key].(string)
		if strings.TrimSpace(v) == "" {
			return customErr.NewValidationError("metadata.%s is required for %s payments", key, req.Method)
		}
	}
	return nil
}

// Submit creates a payment and processes it straight away. UPI intent payments wait
// for merchant verification and are returned pending.
func (s *PaymentService) Submit(ctx context.Context, req dto.CreatePaymentRequest) (*model.Payment, error) {
	payment, err := s.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if payment.Method == model.PaymentMethodUPIIntent {
		return payment, nil
	}
	return s.process(ctx, payment)
}

// Process executes a pending payment. A declined execution returns the failed payment
// with no error; a broken execution returns ExecutionFailure; a ledger outage leaves
// the payment processing and returns LedgerWriteFailure.
func (s *PaymentService) Process(ctx context.Context, merchantID string, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.Get(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, payment)
}

func (s *PaymentService) process(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	if payment.Status != model.PaymentStatusPending {
		return nil, customErr.NewInvalidStateError("payment in status %s cannot be processed", payment.Status)
	}

	executor, err := s.executors.For(payment.Method)
	if err != nil {
		return nil, customErr.NewValidationError("unsupported payment method %q", payment.Method)
	}

	ok, err := s.paymentRepo.UpdateIfStatus(ctx, payment.ID,
		[]model.PaymentStatus{model.PaymentStatusPending},
		domainRepo.PaymentUpdate{Status: model.PaymentStatusProcessing})
	if err != nil {
		return nil, storageError("failed to start processing", err)
	}
	if !ok {
		return nil, customErr.NewInvalidStateError("payment is no longer pending")
	}
	payment.Status = model.PaymentStatusProcessing

	execCtx, cancel := context.WithTimeout(ctx, s.execTimeout)
	started := time.Now()
	result, execErr := executor.Execute(execCtx, payment)
	cancel()
	s.metrics.ExecutorObserved(string(payment.Method), time.Since(started).Seconds())

	if execErr != nil {
		s.logger.Error("Payment execution failed",
			zap.String("payment_id", payment.ID.String()),
			zap.String("method", string(payment.Method)),
			zap.Error(execErr))
		if _, err := s.fail(ctx, payment, "execution error: "+execErr.Error()); err != nil {
			return nil, err
		}
		return nil, customErr.NewExecutionFailure(fmt.Sprintf("%s execution failed", payment.Method), execErr)
	}

	if !result.Success {
		s.logger.Info("Payment declined",
			zap.String("payment_id", payment.ID.String()),
			zap.String("method", string(payment.Method)),
			zap.String("reason", result.Error))
		return s.fail(ctx, payment, result.Error)
	}

	var reference *string
	if result.Reference != "" {
		reference = &result.Reference
	}
	settled, err := s.settlement.Commit(ctx, SettleRequest{
		PaymentID:         payment.ID,
		From:              []model.PaymentStatus{model.PaymentStatusProcessing},
		ProviderReference: reference,
		Source:            SourceExecutor,
	})
	if err != nil {
		if errors.Is(err, errAlreadySettled) {
			return s.paymentRepo.GetByID(ctx, payment.ID)
		}
		if apperrors.HasCode(err, apperrors.ErrLedgerWriteFailure) {
			// funds moved but the ledger could not confirm; left processing for reconciliation
			s.logger.Error("Payment left processing after ledger failure",
				zap.String("payment_id", payment.ID.String()),
				zap.String("merchant_id", payment.MerchantID),
				zap.String("provider_reference", result.Reference))
		}
		return nil, err
	}
	return settled, nil
}

// fail moves a processing payment to failed and returns it.
func (s *PaymentService) fail(ctx context.Context, payment *model.Payment, reason string) (*model.Payment, error) {
	if reason == "" {
		reason = "declined"
	}
	ok, err := s.paymentRepo.UpdateIfStatus(ctx, payment.ID,
		[]model.PaymentStatus{model.PaymentStatusProcessing},
		domainRepo.PaymentUpdate{Status: model.PaymentStatusFailed, FailureReason: &reason})
	if err != nil {
		return nil, storageError("failed to mark payment failed", err)
	}
	if !ok {
		return nil, customErr.NewInvalidStateError("payment is no longer processing")
	}
	s.metrics.PaymentFinished(string(payment.Method), string(model.PaymentStatusFailed))

	failed, err := s.paymentRepo.GetByID(ctx, payment.ID)
	if err != nil {
		return nil, customErr.NewInternalError("failed to reload payment", err)
	}
	return failed, nil
}

// Cancel moves a pending payment to cancelled.
func (s *PaymentService) Cancel(ctx context.Context, merchantID string, id uuid.UUID) (*model.Payment, error) {
	if _, err := s.Get(ctx, merchantID, id); err != nil {
		return nil, err
	}
	ok, err := s.paymentRepo.UpdateIfStatus(ctx, id,
		[]model.PaymentStatus{model.PaymentStatusPending},
		domainRepo.PaymentUpdate{Status: model.PaymentStatusCancelled})
	if err != nil {
		return nil, storageError("failed to cancel payment", err)
	}
	if !ok {
		return nil, customErr.NewInvalidStateError("only pending payments can be cancelled")
	}

	s.logger.Info("Payment cancelled", zap.String("payment_id", id.String()), zap.String("merchant_id", merchantID))
	return s.paymentRepo.GetByID(ctx, id)
}

// Get returns a payment owned by merchantID. Another merchant's payment is not found.
func (s *PaymentService) Get(ctx context.Context, merchantID string, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainRepo.ErrNotFound) {
			return nil, customErr.NewNotFoundError("payment")
		}
		return nil, customErr.NewInternalError("failed to load payment", err)
	}
	if merchantID != "" && payment.MerchantID != merchantID {
		return nil, customErr.NewNotFoundError("payment")
	}
	return payment, nil
}

// List returns a merchant's payments, newest first.
func (s *PaymentService) List(ctx context.Context, merchantID string, q dto.ListPaymentsQuery) ([]*model.Payment, error) {
	filter := domainRepo.PaymentFilter{Limit: q.Limit, Offset: q.Offset}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if q.Status != "" {
		status := model.PaymentStatus(q.Status)
		filter.Status = &status
	}
	if q.Method != "" {
		method := model.PaymentMethod(q.Method)
		filter.Method = &method
	}

	payments, err := s.paymentRepo.List(ctx, merchantID, filter)
	if err != nil {
		return nil, customErr.NewInternalError("failed to list payments", err)
	}
	return payments, nil
}

// amountOrFull returns amount, or full when amount is nil.
func amountOrFull(amount *decimal.Decimal, full decimal.Decimal) decimal.Decimal {
	if amount == nil {
		return full
	}
	return *amount
}
