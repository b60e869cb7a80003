package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	customErr "github.com/Likith-Yadav/PayCoreX/internal/domain/errors"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minReferenceLength = 8
	maxReferenceLength = 50
)

// Verification result messages.
const (
	msgAlreadyVerified  = "Payment already verified"
	msgVerified         = "Payment verified"
	msgNoConfig         = "No payment configuration found. Manual verification required."
	msgUPIManual        = "UPI payment verification requires manual confirmation"
	msgNoAutoVerify     = "Automatic verification not available. Manual verification required."
	msgReferenceSaved   = "Reference submitted. Awaiting merchant verification."
	msgVerificationFail = "Verification error: "
)

// callbackPaymentIDPaths are searched in order for a payment id in a gateway callback.
var callbackPaymentIDPaths = [][]string{
	{"payment_id"},
	{"notes", "payment_id"},
	{"metadata", "payment_id"},
	{"payload", "payment", "entity", "notes", "payment_id"},
	{"data", "object", "metadata", "payment_id"},
}

// VerificationService reconciles payments against gateways and merchant confirmation.
// Every path that settles goes through SettlementService.Commit.
type VerificationService struct {
	paymentRepo domainRepo.PaymentRepository
	configRepo  domainRepo.PaymentConfigRepository
	settlement  *SettlementService
	gateways    provider.GatewayRegistry
	logger      *zap.Logger
	now         func() time.Time
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	paymentRepo domainRepo.PaymentRepository,
	configRepo domainRepo.PaymentConfigRepository,
	settlement *SettlementService,
	gateways provider.GatewayRegistry,
	logger *zap.Logger,
) *VerificationService {
	return &VerificationService{
		paymentRepo: paymentRepo,
		configRepo:  configRepo,
		settlement:  settlement,
		gateways:    gateways,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *VerificationService) load(ctx context.Context, merchantID string, id uuid.UUID) (*model.Payment, error) {
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

func alreadyVerified(id uuid.UUID) *dto.VerificationResult {
	return &dto.VerificationResult{
		PaymentID: id,
		Verified:  true,
		Status:    string(model.PaymentStatusSuccess),
		Message:   msgAlreadyVerified,
	}
}

// Verify checks a payment with the merchant's configured gateway and settles it when
// the gateway reports it captured. An empty merchantID skips the ownership check.
func (s *VerificationService) Verify(ctx context.Context, merchantID string, id uuid.UUID, data dto.VerificationData) (*dto.VerificationResult, error) {
	payment, err := s.load(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status == model.PaymentStatusSuccess {
		return alreadyVerified(payment.ID), nil
	}

	cfg, err := s.configRepo.GetActiveVerified(ctx, payment.MerchantID)
	if err != nil {
		if errors.Is(err, domainRepo.ErrNotFound) {
			return &dto.VerificationResult{
				PaymentID: payment.ID,
				Status:    string(model.PaymentStatusPending),
				Message:   msgNoConfig,
			}, nil
		}
		return nil, customErr.NewInternalError("failed to load payment config", err)
	}

	switch cfg.ConfigType {
	case model.ConfigTypeUPI:
		if ref := strings.TrimSpace(data.TransactionID); ref != "" {
			if _, err := s.recordReference(ctx, payment, ref); err != nil {
				return nil, err
			}
		}
		return &dto.VerificationResult{
			PaymentID: payment.ID,
			Status:    string(model.PaymentStatusPending),
			Message:   msgUPIManual,
		}, nil
	case model.ConfigTypePhonePe, model.ConfigTypePaytm:
		return &dto.VerificationResult{
			PaymentID: payment.ID,
			Status:    string(model.PaymentStatusPending),
			Message:   msgNoAutoVerify,
		}, nil
	}

	verifier, ok := s.gateways[cfg.ConfigType]
	if !ok {
		return &dto.VerificationResult{
			PaymentID: payment.ID,
			Status:    string(model.PaymentStatusPending),
			Message:   msgNoAutoVerify,
		}, nil
	}

	reference := firstNonEmpty(data.ProviderReference, data.TxHash, derefString(payment.ProviderReference), payment.ReferenceID)
	status, err := verifier.Fetch(ctx, cfg, reference)
	if err != nil {
		s.logger.Warn("Gateway verification failed",
			zap.String("payment_id", payment.ID.String()),
			zap.String("config_type", string(cfg.ConfigType)),
			zap.Error(err))
		return &dto.VerificationResult{
			PaymentID: payment.ID,
			Status:    dto.VerificationError,
			Message:   msgVerificationFail + err.Error(),
		}, nil
	}
	if !status.Captured {
		return &dto.VerificationResult{
			PaymentID: payment.ID,
			Status:    status.RawStatus,
			Message:   "Gateway reports payment " + status.RawStatus,
		}, nil
	}

	providerRef := firstNonEmpty(status.ProviderReference, reference)
	_, err = s.settlement.Commit(ctx, SettleRequest{
		PaymentID:         payment.ID,
		From:              []model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusProcessing},
		ProviderReference: &providerRef,
		Source:            SourceGateway,
	})
	if err != nil {
		if errors.Is(err, errAlreadySettled) {
			return alreadyVerified(payment.ID), nil
		}
		return nil, err
	}

	return &dto.VerificationResult{
		PaymentID: payment.ID,
		Verified:  true,
		Status:    string(model.PaymentStatusSuccess),
		Message:   msgVerified,
	}, nil
}

// SubmitReference records a customer-supplied transaction reference. It never
// settles; the merchant confirms with MarkVerified.
func (s *VerificationService) SubmitReference(ctx context.Context, merchantID string, id uuid.UUID, reference string) (*dto.VerificationResult, error) {
	reference = strings.TrimSpace(reference)
	if n := utf8.RuneCountInString(reference); n < minReferenceLength || n > maxReferenceLength {
		return nil, customErr.NewValidationError("reference must be between %d and %d characters", minReferenceLength, maxReferenceLength)
	}

	payment, err := s.load(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status == model.PaymentStatusSuccess {
		return alreadyVerified(payment.ID), nil
	}

	return s.recordReference(ctx, payment, reference)
}

func (s *VerificationService) recordReference(ctx context.Context, payment *model.Payment, reference string) (*dto.VerificationResult, error) {
	now := s.now()
	ok, err := s.paymentRepo.UpdateIfStatus(ctx, payment.ID,
		[]model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusProcessing},
		domainRepo.PaymentUpdate{
			SubmittedReference:   &reference,
			ReferenceSubmittedAt: &now,
			ProviderReference:    &reference,
		})
	if err != nil {
		return nil, storageError("failed to record reference", err)
	}
	if !ok {
		latest, err := s.load(ctx, "", payment.ID)
		if err != nil {
			return nil, err
		}
		if latest.Status == model.PaymentStatusSuccess {
			return alreadyVerified(payment.ID), nil
		}
		return nil, customErr.NewInvalidStateError("payment in status %s cannot take a reference", latest.Status)
	}

	s.logger.Info("Payment reference submitted",
		zap.String("payment_id", payment.ID.String()),
		zap.String("merchant_id", payment.MerchantID),
		zap.String("reference", reference))
	return &dto.VerificationResult{
		PaymentID: payment.ID,
		Verified:  false,
		Status:    dto.VerificationPendingMerchant,
		Message:   msgReferenceSaved,
	}, nil
}

// MarkVerified is the merchant's manual confirmation. It settles exactly once; a second
// call, or one that loses a race with another settlement, returns ErrAlreadyVerified.
func (s *VerificationService) MarkVerified(ctx context.Context, merchantID string, id uuid.UUID, req dto.MarkVerifiedRequest) (*model.Payment, error) {
	payment, err := s.load(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}

	switch payment.Status {
	case model.PaymentStatusSuccess:
		return nil, customErr.ErrAlreadyVerified
	case model.PaymentStatusFailed, model.PaymentStatusCancelled:
		return nil, customErr.NewInvalidStateError("payment in status %s cannot be verified", payment.Status)
	}

	var reference *string
	if req.Reference != nil {
		if ref := strings.TrimSpace(*req.Reference); ref != "" {
			reference = &ref
		}
	}
	if reference == nil {
		reference = payment.SubmittedReference
	}
	verifiedBy := "merchant:" + payment.MerchantID
	if req.VerifiedBy != nil && strings.TrimSpace(*req.VerifiedBy) != "" {
		verifiedBy = strings.TrimSpace(*req.VerifiedBy)
	}

	settled, err := s.settlement.Commit(ctx, SettleRequest{
		PaymentID:         payment.ID,
		From:              []model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusProcessing},
		ProviderReference: reference,
		VerifiedBy:        &verifiedBy,
		Source:            SourceMerchantManual,
	})
	if err != nil {
		if errors.Is(err, errAlreadySettled) {
			return nil, customErr.ErrAlreadyVerified
		}
		return nil, err
	}
	return settled, nil
}

// HandleGatewayCallback verifies the payment named in an inbound gateway notification.
func (s *VerificationService) HandleGatewayCallback(ctx context.Context, body []byte) (*dto.VerificationResult, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, customErr.NewValidationError("callback body is not a JSON object")
	}

	idText := callbackPaymentID(raw)
	if idText == "" {
		return nil, customErr.NewValidationError("callback carries no payment_id")
	}
	id, err := uuid.Parse(idText)
	if err != nil {
		return nil, customErr.NewValidationError("callback payment_id %q is not a valid id", idText)
	}

	s.logger.Info("Gateway callback received", zap.String("payment_id", id.String()))
	return s.Verify(ctx, "", id, dto.VerificationData{
		ProviderReference: callbackString(raw, "razorpay_payment_id", "provider_reference"),
		TransactionID:     callbackString(raw, "transaction_id", "utr"),
		TxHash:            callbackString(raw, "tx_hash"),
		Raw:               raw,
	})
}

func callbackPaymentID(raw map[string]interface{}) string {
	for _, path := range callbackPaymentIDPaths {
		if v := lookupPath(raw, path); v != "" {
			return v
		}
	}
	return ""
}

func lookupPath(m map[string]interface{}, path []string) string {
	var cur interface{} = m
	for _, key := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		cur = obj[key]
	}
	s, _ := cur.(string)
	return strings.TrimSpace(s)
}

func callbackString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v := lookupPath(raw, []string{key}); v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
