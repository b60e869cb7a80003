package model

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Event types sent to merchant endpoints.
const (
	EventPaymentSuccess = "payment.success"
	EventPaymentFailed  = "payment.failed"
	EventRefundSuccess  = "refund.success"
)

// WebhookEndpoint is a merchant URL subscribed to events.
type WebhookEndpoint struct {
	ID         uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantID string                      `gorm:"size:64;not null;index" json:"merchant_id"`
	URL        string                      `gorm:"size:500;not null" json:"url"`
	Secret     string                      `gorm:"size:128;not null" json:"-"`
	IsActive   bool                        `gorm:"not null;default:true" json:"is_active"`
	Events     datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"events"`
	CreatedAt  time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time                   `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (WebhookEndpoint) TableName() string {
	return "webhook_endpoints"
}

// Subscribes reports whether the endpoint wants eventType. An empty list subscribes to
// everything, and a category entry like "payment" matches "payment.success".
func (e *WebhookEndpoint) Subscribes(eventType string) bool {
	if len(e.Events) == 0 {
		return true
	}
	for _, ev := range e.Events {
		if ev == eventType || ev == "*" {
			return true
		}
		if !strings.Contains(ev, ".") && strings.HasPrefix(eventType, ev+".") {
			return true
		}
	}
	return false
}

// DeliveryStatus is the state of one webhook delivery.
type DeliveryStatus string

const (
	DeliveryStatusPending  DeliveryStatus = "pending"
	DeliveryStatusSent     DeliveryStatus = "sent"
	DeliveryStatusFailed   DeliveryStatus = "failed"
	DeliveryStatusRetrying DeliveryStatus = "retrying"
)

// Scan implements sql.Scanner interface
func (s *DeliveryStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = DeliveryStatus(v)
	case []byte:
		*s = DeliveryStatus(v)
	default:
		*s = DeliveryStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s DeliveryStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// MaxResponseBody bounds the stored response body.
const MaxResponseBody = 1000

// WebhookDelivery is one event transmission to one endpoint, with its retry state.
type WebhookDelivery struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EndpointID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"endpoint_id"`
	MerchantID   string         `gorm:"size:64;not null;index:idx_deliveries_merchant_created" json:"merchant_id"`
	EventType    string         `gorm:"size:50;not null" json:"event_type"`
	Payload      datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	Signature    string         `gorm:"size:128;not null" json:"signature"`
	Status       DeliveryStatus `gorm:"size:20;not null;index:idx_deliveries_due,priority:1" json:"status"`
	ResponseCode *int           `json:"response_code,omitempty"`
	ResponseBody string         `gorm:"size:1000" json:"response_body,omitempty"`
	LastError    string         `json:"last_error,omitempty"`
	RetryCount   int            `gorm:"not null;default:0" json:"retry_count"`
	MaxRetries   int            `gorm:"not null;default:3" json:"max_retries"`
	NextRetryAt  *time.Time     `gorm:"index:idx_deliveries_due,priority:2" json:"next_retry_at,omitempty"`
	LockedUntil  *time.Time     `json:"-"`
	DeliveredAt  *time.Time     `json:"delivered_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;index:idx_deliveries_merchant_created" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`

	// Endpoint is loaded for attempts
	Endpoint *WebhookEndpoint `gorm:"foreignKey:EndpointID" json:"-"`
}

// TableName specifies the table name for GORM
func (WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}
