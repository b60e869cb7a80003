package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookRepository creates a new webhook repository
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookRepository {
	return &webhookRepository{
		db:     db,
		logger: logger,
	}
}

func (r *webhookRepository) CreateEndpoint(ctx context.Context, endpoint *model.WebhookEndpoint) error {
	if err := conn(ctx, r.db).Create(endpoint).Error; err != nil {
		r.logger.Error("Failed to create webhook endpoint",
			zap.String("merchant_id", endpoint.MerchantID),
			zap.Error(err))
		return translate(err)
	}
	return nil
}

func (r *webhookRepository) GetEndpoint(ctx context.Context, id uuid.UUID) (*model.WebhookEndpoint, error) {
	var endpoint model.WebhookEndpoint
	if err := conn(ctx, r.db).Where("id = ?", id).First(&endpoint).Error; err != nil {
		return nil, translate(err)
	}
	return &endpoint, nil
}

func (r *webhookRepository) ListEndpoints(ctx context.Context, merchantID string, activeOnly bool) ([]*model.WebhookEndpoint, error) {
	query := conn(ctx, r.db).Where("merchant_id = ?", merchantID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var endpoints []*model.WebhookEndpoint
	if err := query.Order("created_at ASC").Find(&endpoints).Error; err != nil {
		return nil, fmt.Errorf("failed to list webhook endpoints: %w", translate(err))
	}
	return endpoints, nil
}

func (r *webhookRepository) DeactivateEndpoint(ctx context.Context, merchantID string, id uuid.UUID) (bool, error) {
	result := conn(ctx, r.db).Model(&model.WebhookEndpoint{}).
		Where("id = ? AND merchant_id = ?", id, merchantID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *webhookRepository) CreateDelivery(ctx context.Context, delivery *model.WebhookDelivery) error {
	// the endpoint is attached after insert; never upsert it from here
	if err := conn(ctx, r.db).Omit("Endpoint").Create(delivery).Error; err != nil {
		r.logger.Error("Failed to record webhook delivery",
			zap.String("delivery_id", delivery.ID.String()),
			zap.String("event_type", delivery.EventType),
			zap.Error(err))
		return translate(err)
	}
	return nil
}

// GetDelivery loads the delivery with its endpoint
func (r *webhookRepository) GetDelivery(ctx context.Context, id uuid.UUID) (*model.WebhookDelivery, error) {
	var delivery model.WebhookDelivery
	err := conn(ctx, r.db).
		Preload("Endpoint").
		Where("id = ?", id).
		First(&delivery).Error
	if err != nil {
		return nil, translate(err)
	}
	return &delivery, nil
}

func (r *webhookRepository) ListDeliveries(ctx context.Context, merchantID string, filter domainRepo.DeliveryFilter) ([]*model.WebhookDelivery, error) {
	query := conn(ctx, r.db).Where("merchant_id = ?", merchantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}

	var deliveries []*model.WebhookDelivery
	err := query.Order("created_at DESC").Limit(filter.Limit).Find(&deliveries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook deliveries: %w", translate(err))
	}
	return deliveries, nil
}

// ListDue returns deliveries with retry budget left whose next attempt is due
func (r *webhookRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.WebhookDelivery, error) {
	var deliveries []*model.WebhookDelivery
	err := conn(ctx, r.db).
		Where("status IN ?", []model.DeliveryStatus{model.DeliveryStatusRetrying, model.DeliveryStatusFailed}).
		Where("retry_count < max_retries").
		Where("next_retry_at IS NOT NULL AND next_retry_at <= ?", now).
		Where("locked_until IS NULL OR locked_until < ?", now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&deliveries).Error
	if err != nil {
		r.logger.Error("Failed to get due webhook deliveries", zap.Error(err))
		return nil, fmt.Errorf("failed to get due webhook deliveries: %w", translate(err))
	}
	return deliveries, nil
}

// Claim leases the delivery to the caller unless it is sent or already leased
func (r *webhookRepository) Claim(ctx context.Context, id uuid.UUID, now, leaseUntil time.Time) (bool, error) {
	result := conn(ctx, r.db).Model(&model.WebhookDelivery{}).
		Where("id = ? AND status <> ?", id, model.DeliveryStatusSent).
		Where("locked_until IS NULL OR locked_until < ?", now).
		Update("locked_until", leaseUntil)
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// SaveAttempt records the attempt outcome and releases the lease. Sent is terminal.
func (r *webhookRepository) SaveAttempt(ctx context.Context, d *model.WebhookDelivery) (bool, error) {
	result := conn(ctx, r.db).Model(&model.WebhookDelivery{}).
		Where("id = ? AND status <> ?", d.ID, model.DeliveryStatusSent).
		Updates(map[string]interface{}{
			"status":        d.Status,
			"response_code": d.ResponseCode,
			"response_body": d.ResponseBody,
			"last_error":    d.LastError,
			"retry_count":   d.RetryCount,
			"next_retry_at": d.NextRetryAt,
			"delivered_at":  d.DeliveredAt,
			"locked_until":  nil,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		r.logger.Error("Failed to save webhook attempt",
			zap.String("delivery_id", d.ID.String()),
			zap.Error(result.Error))
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}
