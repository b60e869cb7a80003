package errors

import (
	"fmt"

	apperrors "github.com/Likith-Yadav/PayCoreX/pkg/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for conditions that carry no extra detail. Match them with errors.Is.
var (
	ErrDuplicateReference = apperrors.NewAppError(apperrors.ErrDuplicateReference, "reference id already exists", nil)
	ErrAlreadyVerified    = apperrors.NewAppError(apperrors.ErrAlreadyVerified, "payment already verified", nil)
	ErrAlreadyDelivered   = apperrors.NewAppError(apperrors.ErrAlreadyDelivered, "webhook already delivered", nil)
)

func NewValidationError(format string, args ...interface{}) *apperrors.AppError {
	return apperrors.NewAppError(apperrors.ErrValidation, fmt.Sprintf(format, args...), nil)
}

func NewNotFoundError(resource string) *apperrors.AppError {
	return apperrors.NewAppError(apperrors.ErrNotFound, resource+" not found", nil)
}

func NewInvalidStateError(format string, args ...interface{}) *apperrors.AppError {
	return apperrors.NewAppError(apperrors.ErrInvalidState, fmt.Sprintf(format, args...), nil)
}

func NewLimitExceededError(format string, args ...interface{}) *apperrors.AppError {
	return apperrors.NewAppError(apperrors.ErrLimitExceeded, fmt.Sprintf(format, args...), nil)
}

func NewExecutionFailure(message string, err error) *apperrors.AppError {
	return apperrors.NewAppError(apperrors.ErrExecutionFailure, message, err)
}

func NewDeliveryFailure(message string, err error) *apperrors.AppError {
	return apperrors.NewAppError(apperrors.ErrDeliveryFailure, message, err)
}

func NewLedgerWriteFailure(err error) *apperrors.AppError {
	return apperrors.NewAppError(apperrors.ErrLedgerWriteFailure, "ledger write failed", err)
}

func NewInternalError(message string, err error) *apperrors.AppError {
	return apperrors.NewAppError(apperrors.ErrInternal, message, err)
}

// InsufficientBalanceError is returned when a wallet cannot cover a debit.
// It unwraps to a LIMIT_EXCEEDED AppError.
type InsufficientBalanceError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: requested %s, available %s", e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return apperrors.NewAppError(apperrors.ErrLimitExceeded, e.Error(), nil)
}

// NewInsufficientBalanceError creates a new InsufficientBalanceError
func NewInsufficientBalanceError(requested, available decimal.Decimal) *InsufficientBalanceError {
	return &InsufficientBalanceError{
		Requested: requested,
		Available: available,
	}
}
