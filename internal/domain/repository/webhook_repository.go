package repository

import (
	"context"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/google/uuid"
)

// DeliveryFilter narrows delivery listings.
type DeliveryFilter struct {
	Status    *model.DeliveryStatus
	EventType string
	Limit     int
}

// WebhookRepository persists endpoints and deliveries.
type WebhookRepository interface {
	CreateEndpoint(ctx context.Context, endpoint *model.WebhookEndpoint) error
	GetEndpoint(ctx context.Context, id uuid.UUID) (*model.WebhookEndpoint, error)
	ListEndpoints(ctx context.Context, merchantID string, activeOnly bool) ([]*model.WebhookEndpoint, error)
	DeactivateEndpoint(ctx context.Context, merchantID string, id uuid.UUID) (bool, error)

	CreateDelivery(ctx context.Context, delivery *model.WebhookDelivery) error

	// GetDelivery loads the delivery with its endpoint
	GetDelivery(ctx context.Context, id uuid.UUID) (*model.WebhookDelivery, error)

	ListDeliveries(ctx context.Context, merchantID string, filter DeliveryFilter) ([]*model.WebhookDelivery, error)

	// ListDue returns retrying or failed deliveries with budget left and next_retry_at <= now, oldest first
	ListDue(ctx context.Context, now time.Time, limit int) ([]*model.WebhookDelivery, error)

	// Claim leases a delivery until leaseUntil so only one worker attempts it. Sent
	// deliveries and deliveries under a live lease are not claimed.
	Claim(ctx context.Context, id uuid.UUID, now, leaseUntil time.Time) (bool, error)

	// SaveAttempt stores the attempt outcome and clears the lease, unless the delivery is already sent
	SaveAttempt(ctx context.Context, delivery *model.WebhookDelivery) (bool, error)
}
