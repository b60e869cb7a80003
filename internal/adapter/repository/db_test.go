package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "nil", err: nil, expected: nil},
		{name: "record not found", err: gorm.ErrRecordNotFound, expected: domainRepo.ErrNotFound},
		{name: "wrapped record not found", err: fmt.Errorf("query: %w", gorm.ErrRecordNotFound), expected: domainRepo.ErrNotFound},
		{name: "gorm duplicated key", err: gorm.ErrDuplicatedKey, expected: domainRepo.ErrDuplicate},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, expected: domainRepo.ErrDuplicate},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, expected: domainRepo.ErrConflict},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, expected: domainRepo.ErrConflict},
		{name: "lock not available", err: fmt.Errorf("exec: %w", &pgconn.PgError{Code: "55P03"}), expected: domainRepo.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err)
			if tt.expected == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.expected)
		})
	}
}

func TestTranslate_KeepsUnknownErrors(t *testing.T) {
	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))

	check := &pgconn.PgError{Code: "23514"}
	got := translate(check)
	assert.NotErrorIs(t, got, domainRepo.ErrDuplicate)
	assert.NotErrorIs(t, got, domainRepo.ErrConflict)
}

func TestTranslate_ConflictKeepsCause(t *testing.T) {
	cause := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	got := translate(cause)

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(got, &pgErr))
	assert.Equal(t, "40001", pgErr.Code)
}

func TestTransactor_InTransaction(t *testing.T) {
	tx := NewTransactor(nil)
	ctx := context.Background()
	assert.False(t, tx.InTransaction(ctx))

	inner := context.WithValue(ctx, txCtxKey{}, &gorm.DB{})
	assert.True(t, tx.InTransaction(inner))

	called := false
	err := tx.WithinTransaction(inner, func(ctx context.Context) error {
		called = true
		assert.True(t, tx.InTransaction(ctx))
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}
