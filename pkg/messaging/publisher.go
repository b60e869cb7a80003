// Package messaging publishes settlement events to internal consumers.
package messaging

import (
	"context"
	"time"
)

// Event is one settlement fact, e.g. a payment reaching success.
type Event struct {
	Type       string                 `json:"type"`
	MerchantID string                 `json:"merchant_id"`
	EntityID   string                 `json:"entity_id"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Publisher delivers events on a best-effort basis.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
