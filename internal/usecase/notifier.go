package usecase

import (
	"context"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/pkg/messaging"
	"go.uber.org/zap"
)

// WebhookEnqueuer records and attempts merchant webhook deliveries.
type WebhookEnqueuer interface {
	Enqueue(ctx context.Context, merchantID, eventType string, data map[string]interface{}) ([]*model.WebhookDelivery, error)
}

// notifier fans a committed fact out to merchant webhooks and the internal event bus.
// Neither failure undoes the fact; both are logged.
type notifier struct {
	webhooks WebhookEnqueuer
	events   messaging.Publisher
	logger   *zap.Logger
}

func newNotifier(webhooks WebhookEnqueuer, events messaging.Publisher, logger *zap.Logger) notifier {
	if events == nil {
		events = messaging.NoopPublisher{}
	}
	return notifier{webhooks: webhooks, events: events, logger: logger}
}

func (n notifier) notify(ctx context.Context, merchantID, eventType, entityID string, data map[string]interface{}) {
	if n.webhooks != nil {
		if _, err := n.webhooks.Enqueue(ctx, merchantID, eventType, data); err != nil {
			n.logger.Error("Failed to enqueue webhook",
				zap.String("merchant_id", merchantID),
				zap.String("event_type", eventType),
				zap.String("entity_id", entityID),
				zap.Error(err))
		}
	}

	event := messaging.Event{
		Type:       eventType,
		MerchantID: merchantID,
		EntityID:   entityID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
	if err := n.events.Publish(ctx, event); err != nil {
		n.logger.Warn("Failed to publish event",
			zap.String("event_type", eventType),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func paymentEventData(p *model.Payment) map[string]interface{} {
	data := map[string]interface{}{
		"payment_id":   p.ID.String(),
		"merchant_id":  p.MerchantID,
		"reference_id": p.ReferenceID,
		"amount":       p.Amount.StringFixed(2),
		"currency":     p.Currency,
		"method":       string(p.Method),
		"status":       string(p.Status),
		"created_at":   p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.ProviderReference != nil {
		data["provider_reference"] = *p.ProviderReference
	}
	if p.FailureReason != nil {
		data["failure_reason"] = *p.FailureReason
	}
	if p.SettledAt != nil {
		data["settled_at"] = p.SettledAt.UTC().Format(time.RFC3339)
	}
	return data
}

func refundEventData(r *model.Refund) map[string]interface{} {
	data := map[string]interface{}{
		"refund_id":    r.ID.String(),
		"payment_id":   r.PaymentID.String(),
		"merchant_id":  r.MerchantID,
		"reference_id": r.ReferenceID,
		"amount":       r.Amount.StringFixed(2),
		"status":       string(r.Status),
		"reason":       r.Reason,
		"created_at":   r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.ProviderReference != nil {
		data["provider_reference"] = *r.ProviderReference
	}
	return data
}
