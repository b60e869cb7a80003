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

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	if err := conn(ctx, r.db).Create(payment).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := conn(ctx, r.db).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

// GetByIDForUpdate loads the payment and locks its row for the current transaction
func (r *paymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&payment).Error
	if err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *paymentRepository) GetByReferenceID(ctx context.Context, referenceID string) (*model.Payment, error) {
	var payment model.Payment
	if err := conn(ctx, r.db).Where("reference_id = ?", referenceID).First(&payment).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *paymentRepository) List(ctx context.Context, merchantID string, filter domainRepo.PaymentFilter) ([]*model.Payment, error) {
	query := conn(ctx, r.db).Where("merchant_id = ?", merchantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
	}

	var payments []*model.Payment
	err := query.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", translate(err))
	}
	return payments, nil
}

// UpdateIfStatus is a compare-and-set on status: the row changes only while its
// status is one of from.
func (r *paymentRepository) UpdateIfStatus(ctx context.Context, id uuid.UUID, from []model.PaymentStatus, update domainRepo.PaymentUpdate) (bool, error) {
	values := map[string]interface{}{"updated_at": time.Now()}
	if update.Status != "" {
		values["status"] = update.Status
	}
	if update.ProviderReference != nil {
		values["provider_reference"] = *update.ProviderReference
	}
	if update.FailureReason != nil {
		values["failure_reason"] = *update.FailureReason
	}
	if update.SubmittedReference != nil {
		values["submitted_reference"] = *update.SubmittedReference
	}
	if update.ReferenceSubmittedAt != nil {
		values["reference_submitted_at"] = *update.ReferenceSubmittedAt
	}
	if update.VerifiedBy != nil {
		values["verified_by"] = *update.VerifiedBy
	}
	if update.VerifiedAt != nil {
		values["verified_at"] = *update.VerifiedAt
	}
	if update.SettledAt != nil {
		values["settled_at"] = *update.SettledAt
	}

	result := conn(ctx, r.db).Model(&model.Payment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if result.Error != nil {
		r.logger.Error("Failed to update payment",
			zap.String("payment_id", id.String()),
			zap.String("status", string(update.Status)),
			zap.Error(result.Error))
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// refundRepository implements the RefundRepository interface
type refundRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRefundRepository creates a new refund repository instance
func NewRefundRepository(db *gorm.DB, logger *zap.Logger) domainRepo.RefundRepository {
	return &refundRepository{
		db:     db,
		logger: logger,
	}
}

func (r *refundRepository) Create(ctx context.Context, refund *model.Refund) error {
	if err := conn(ctx, r.db).Create(refund).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *refundRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Refund, error) {
	var refund model.Refund
	if err := conn(ctx, r.db).Where("id = ?", id).First(&refund).Error; err != nil {
		return nil, translate(err)
	}
	return &refund, nil
}

func (r *refundRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*model.Refund, error) {
	var refunds []*model.Refund
	err := conn(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&refunds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", translate(err))
	}
	return refunds, nil
}

// SumActiveByPayment totals every refund of the payment that has not failed
func (r *refundRepository) SumActiveByPayment(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := conn(ctx, r.db).Model(&model.Refund{}).
		Select("SUM(amount)").
		Where("payment_id = ? AND status <> ?", paymentID, model.RefundStatusFailed).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum refunds: %w", translate(err))
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *refundRepository) UpdateIfStatus(ctx context.Context, id uuid.UUID, from []model.RefundStatus, update domainRepo.RefundUpdate) (bool, error) {
	values := map[string]interface{}{
		"status":     update.Status,
		"updated_at": time.Now(),
	}
	if update.ProviderReference != nil {
		values["provider_reference"] = *update.ProviderReference
	}
	if update.FailureReason != nil {
		values["failure_reason"] = *update.FailureReason
	}

	result := conn(ctx, r.db).Model(&model.Refund{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if result.Error != nil {
		r.logger.Error("Failed to update refund",
			zap.String("refund_id", id.String()),
			zap.String("status", string(update.Status)),
			zap.Error(result.Error))
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}
