package repository

import (
	"context"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	Status *model.PaymentStatus
	Method *model.PaymentMethod
	Limit  int
	Offset int
}

// PaymentUpdate lists the columns a conditional update may set. Nil fields and an
// empty Status are left alone.
type PaymentUpdate struct {
	Status               model.PaymentStatus
	ProviderReference    *string
	FailureReason        *string
	SubmittedReference   *string
	ReferenceSubmittedAt *time.Time
	VerifiedBy           *string
	VerifiedAt           *time.Time
	SettledAt            *time.Time
}

// PaymentRepository persists payments.
type PaymentRepository interface {
	// Create inserts a payment. A taken reference id yields ErrDuplicate.
	Create(ctx context.Context, payment *model.Payment) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)

	// GetByIDForUpdate loads the payment and locks its row for the current transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error)

	GetByReferenceID(ctx context.Context, referenceID string) (*model.Payment, error)

	List(ctx context.Context, merchantID string, filter PaymentFilter) ([]*model.Payment, error)

	// UpdateIfStatus applies update only when the current status is one of from.
	// It reports whether a row changed, which makes it a compare-and-set on status.
	UpdateIfStatus(ctx context.Context, id uuid.UUID, from []model.PaymentStatus, update PaymentUpdate) (bool, error)
}

// RefundUpdate lists the columns a refund status change may set.
type RefundUpdate struct {
	Status            model.RefundStatus
	ProviderReference *string
	FailureReason     *string
}

// RefundRepository persists refunds.
type RefundRepository interface {
	Create(ctx context.Context, refund *model.Refund) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Refund, error)
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*model.Refund, error)

	// SumActiveByPayment totals every refund of the payment that has not failed
	SumActiveByPayment(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error)

	UpdateIfStatus(ctx context.Context, id uuid.UUID, from []model.RefundStatus, update RefundUpdate) (bool, error)
}
