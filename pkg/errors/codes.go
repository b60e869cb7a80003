package errors

// Shared error codes.
const (
	// Generic codes
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"
	ErrNotImplemented  = "NOT_IMPLEMENTED"

	// Payment pipeline codes
	ErrValidation         = "VALIDATION"
	ErrInvalidState       = "INVALID_STATE"
	ErrLimitExceeded      = "LIMIT_EXCEEDED"
	ErrExecutionFailure   = "EXECUTION_FAILURE"
	ErrDeliveryFailure    = "DELIVERY_FAILURE"
	ErrLedgerWriteFailure = "LEDGER_WRITE_FAILURE"
	ErrDuplicateReference = "DUPLICATE_REFERENCE"
	ErrAlreadyVerified    = "ALREADY_VERIFIED"
	ErrAlreadyDelivered   = "ALREADY_DELIVERED"
)
