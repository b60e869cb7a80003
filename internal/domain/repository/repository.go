package repository

import (
	"context"
	"errors"
)

// Storage errors returned by every repository implementation.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict marks a retryable concurrency failure such as a serialization conflict or deadlock
	ErrConflict = errors.New("concurrent update conflict")
)

// Transactor runs fn inside one storage transaction. Repository calls made with the
// ctx passed to fn join that transaction. A nested call joins the outer transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	InTransaction(ctx context.Context) bool
}
