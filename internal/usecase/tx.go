package usecase

import (
	"context"
	"errors"
	"time"

	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
)

const defaultTxAttempts = 3

// runInTx runs fn in a transaction, retrying on ErrConflict up to attempts times.
// Inside an existing transaction fn runs once and conflicts go to the outermost caller,
// since a failed statement poisons the whole transaction.
func runInTx(ctx context.Context, tx domainRepo.Transactor, attempts int, fn func(ctx context.Context) error) error {
	if tx.InTransaction(ctx) {
		return fn(ctx)
	}
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = tx.WithinTransaction(ctx, fn)
		if err == nil || !errors.Is(err, domainRepo.ErrConflict) {
			return err
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt*attempt) * 5 * time.Millisecond):
		}
	}
	return err
}
