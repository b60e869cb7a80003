package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	customErr "github.com/Likith-Yadav/PayCoreX/internal/domain/errors"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/metrics"
	apperrors "github.com/Likith-Yadav/PayCoreX/pkg/errors"
	"github.com/Likith-Yadav/PayCoreX/pkg/keylock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// AppendRequest is one credit or debit against an entity. Exactly one of Credit and
// Debit is positive.
type AppendRequest struct {
	EntityKind    model.EntityKind
	EntityID      string
	Credit        decimal.Decimal
	Debit         decimal.Decimal
	ReferenceKind string
	ReferenceID   string
	Description   string
}

// LedgerService appends to the per-entity journal. Appends for one entity are
// serialized in process by a key lock and across processes by the head row lock.
type LedgerService struct {
	ledgerRepo  domainRepo.LedgerRepository
	tx          domainRepo.Transactor
	locks       *keylock.Locker
	maxAttempts int
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	ledgerRepo domainRepo.LedgerRepository,
	tx domainRepo.Transactor,
	locks *keylock.Locker,
	maxAttempts int,
	m *metrics.Metrics,
	logger *zap.Logger,
) *LedgerService {
	if maxAttempts < 1 {
		maxAttempts = defaultTxAttempts
	}
	return &LedgerService{
		ledgerRepo:  ledgerRepo,
		tx:          tx,
		locks:       locks,
		maxAttempts: maxAttempts,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

func ledgerKey(kind model.EntityKind, entityID string) string {
	return "ledger:" + string(kind) + ":" + entityID
}

// LockEntity takes the in-process lock for one entity's ledger. Callers that need to
// read and write around an append hold it first; the nested append re-enters it.
func (s *LedgerService) LockEntity(ctx context.Context, kind model.EntityKind, entityID string) (context.Context, func(), error) {
	return s.locks.Lock(ctx, ledgerKey(kind, entityID))
}

// Append writes one entry with balance = previous balance + credit - debit.
// Inside a caller's transaction it joins that transaction.
func (s *LedgerService) Append(ctx context.Context, req AppendRequest) (*model.LedgerEntry, error) {
	if err := validateAppend(req); err != nil {
		return nil, err
	}

	ctx, unlock, err := s.LockEntity(ctx, req.EntityKind, req.EntityID)
	if err != nil {
		return nil, customErr.NewLedgerWriteFailure(err)
	}
	defer unlock()

	var entry *model.LedgerEntry
	err = runInTx(ctx, s.tx, s.maxAttempts, func(ctx context.Context) error {
		head, err := s.ledgerRepo.LockHead(ctx, req.EntityKind, req.EntityID)
		if err != nil {
			return fmt.Errorf("failed to lock ledger head: %w", err)
		}

		e := &model.LedgerEntry{
			ID:            uuid.New(),
			EntityKind:    req.EntityKind,
			EntityID:      req.EntityID,
			Sequence:      head.Sequence + 1,
			Credit:        req.Credit,
			Debit:         req.Debit,
			Balance:       head.Balance.Add(req.Credit).Sub(req.Debit),
			ReferenceKind: req.ReferenceKind,
			ReferenceID:   req.ReferenceID,
			Description:   req.Description,
			CreatedAt:     s.now(),
		}
		if err := s.ledgerRepo.AppendEntry(ctx, head, e); err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
		entry = e
		return nil
	})
	if err != nil {
		if errors.Is(err, domainRepo.ErrConflict) {
			s.metrics.LedgerConflict()
		}
		s.metrics.LedgerAppend(string(req.EntityKind), "failed")
		s.logger.Error("Ledger append failed",
			zap.String("entity_kind", string(req.EntityKind)),
			zap.String("entity_id", req.EntityID),
			zap.String("credit", req.Credit.String()),
			zap.String("debit", req.Debit.String()),
			zap.String("reference_kind", req.ReferenceKind),
			zap.String("reference_id", req.ReferenceID),
			zap.Error(err))
		return nil, customErr.NewLedgerWriteFailure(err)
	}

	s.metrics.LedgerAppend(string(req.EntityKind), "ok")
	s.logger.Debug("Ledger entry appended",
		zap.String("entity_kind", string(entry.EntityKind)),
		zap.String("entity_id", entry.EntityID),
		zap.Int64("sequence", entry.Sequence),
		zap.String("balance", entry.Balance.String()))
	return entry, nil
}

func validateAppend(req AppendRequest) error {
	if req.EntityID == "" {
		return customErr.NewValidationError("ledger entity id is required")
	}
	if req.EntityKind != model.EntityMerchant && req.EntityKind != model.EntityWallet {
		return customErr.NewValidationError("unknown ledger entity kind %q", req.EntityKind)
	}
	if req.Credit.IsNegative() || req.Debit.IsNegative() {
		return customErr.NewValidationError("ledger amounts must not be negative")
	}
	if req.Credit.IsPositive() == req.Debit.IsPositive() {
		return customErr.NewValidationError("exactly one of credit or debit must be positive")
	}
	return nil
}

// Balance returns the latest balance, zero for an entity with no entries.
func (s *LedgerService) Balance(ctx context.Context, kind model.EntityKind, entityID string) (decimal.Decimal, error) {
	head, err := s.ledgerRepo.GetHead(ctx, kind, entityID)
	if err != nil {
		if errors.Is(err, domainRepo.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, customErr.NewInternalError("failed to read ledger balance", err)
	}
	return head.Balance, nil
}

// History returns the newest entries first.
func (s *LedgerService) History(ctx context.Context, kind model.EntityKind, entityID string, limit int) ([]*model.LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	entries, err := s.ledgerRepo.ListEntries(ctx, kind, entityID, limit)
	if err != nil {
		return nil, customErr.NewInternalError("failed to list ledger entries", err)
	}
	return entries, nil
}

// FindByReference returns the entry written for a reference, or nil.
func (s *LedgerService) FindByReference(ctx context.Context, kind model.EntityKind, entityID, referenceKind, referenceID string) (*model.LedgerEntry, error) {
	entry, err := s.ledgerRepo.FindByReference(ctx, kind, entityID, referenceKind, referenceID)
	if err != nil {
		if errors.Is(err, domainRepo.ErrNotFound) {
			return nil, nil
		}
		return nil, customErr.NewInternalError("failed to look up ledger entry", err)
	}
	return entry, nil
}

// storageError turns a repository error into an AppError. AppErrors pass through and
// exhausted conflicts mean the ledger could not be confirmed.
func storageError(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, domainRepo.ErrConflict) {
		return customErr.NewLedgerWriteFailure(err)
	}
	return customErr.NewInternalError(message, err)
}
