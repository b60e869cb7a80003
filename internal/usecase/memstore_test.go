package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore backs the in-memory repositories used by the service tests. Returned
// records are copies so services cannot mutate stored state without a repository call.
type memStore struct {
	mu         sync.Mutex
	payments   map[uuid.UUID]model.Payment
	refunds    map[uuid.UUID]model.Refund
	heads      map[string]model.LedgerHead
	entries    []model.LedgerEntry
	wallets    map[uuid.UUID]model.Wallet
	endpoints  map[uuid.UUID]model.WebhookEndpoint
	deliveries map[uuid.UUID]model.WebhookDelivery
	configs    map[uuid.UUID]model.MerchantPaymentConfig

	// appendErr, when set, fails every ledger append
	appendErr error
}

func newMemStore() *memStore {
	return &memStore{
		payments:   map[uuid.UUID]model.Payment{},
		refunds:    map[uuid.UUID]model.Refund{},
		heads:      map[string]model.LedgerHead{},
		wallets:    map[uuid.UUID]model.Wallet{},
		endpoints:  map[uuid.UUID]model.WebhookEndpoint{},
		deliveries: map[uuid.UUID]model.WebhookDelivery{},
		configs:    map[uuid.UUID]model.MerchantPaymentConfig{},
	}
}

type memTxKey struct{}

// memJournal collects undo steps for the writes made inside one transaction.
type memJournal struct {
	mu   sync.Mutex
	undo []func()
}

func (j *memJournal) rollback() {
	j.mu.Lock()
	undo := j.undo
	j.undo = nil
	j.mu.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}

// memTx gives the in-memory store transaction semantics: writes apply immediately
// and are undone when the outermost fn fails.
type memTx struct{}

func (memTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	j := &memJournal{}
	if err := fn(context.WithValue(ctx, memTxKey{}, j)); err != nil {
		j.rollback()
		return err
	}
	return nil
}

func (memTx) InTransaction(ctx context.Context) bool {
	return ctx.Value(memTxKey{}) != nil
}

// remember records how to restore m[k] if the surrounding transaction fails.
// Callers hold s.mu.
func remember[K comparable, V any](ctx context.Context, s *memStore, m map[K]V, k K) {
	j, ok := ctx.Value(memTxKey{}).(*memJournal)
	if !ok {
		return
	}
	prev, existed := m[k]
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undo = append(j.undo, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

// rememberEntry records how to drop an appended ledger entry. Callers hold s.mu.
func rememberEntry(ctx context.Context, s *memStore, id uuid.UUID) {
	j, ok := ctx.Value(memTxKey{}).(*memJournal)
	if !ok {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undo = append(j.undo, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.entries {
			if e.ID == id {
				s.entries = append(s.entries[:i], s.entries[i+1:]...)
				return
			}
		}
	})
}

// payments

type memPayments struct{ s *memStore }

func (r memPayments) Create(ctx context.Context, p *model.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.payments {
		if existing.ReferenceID == p.ReferenceID {
			return domainRepo.ErrDuplicate
		}
	}
	remember(ctx, r.s, r.s.payments, p.ID)
	r.s.payments[p.ID] = *p
	return nil
}

func (r memPayments) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, domainRepo.ErrNotFound
	}
	return &p, nil
}

func (r memPayments) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r memPayments) GetByReferenceID(ctx context.Context, referenceID string) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ReferenceID == referenceID {
			cp := p
			return &cp, nil
		}
	}
	return nil, domainRepo.ErrNotFound
}

func (r memPayments) List(ctx context.Context, merchantID string, filter domainRepo.PaymentFilter) ([]*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.s.payments {
		if p.MerchantID != merchantID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.Method != nil && p.Method != *filter.Method {
			continue
		}
		cp := p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r memPayments) UpdateIfStatus(ctx context.Context, id uuid.UUID, from []model.PaymentStatus, u domainRepo.PaymentUpdate) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok || !containsStatus(from, p.Status) {
		return false, nil
	}
	if u.Status != "" {
		p.Status = u.Status
	}
	if u.ProviderReference != nil {
		p.ProviderReference = u.ProviderReference
	}
	if u.FailureReason != nil {
		p.FailureReason = u.FailureReason
	}
	if u.SubmittedReference != nil {
		p.SubmittedReference = u.SubmittedReference
	}
	if u.ReferenceSubmittedAt != nil {
		p.ReferenceSubmittedAt = u.ReferenceSubmittedAt
	}
	if u.VerifiedBy != nil {
		p.VerifiedBy = u.VerifiedBy
	}
	if u.VerifiedAt != nil {
		p.VerifiedAt = u.VerifiedAt
	}
	if u.SettledAt != nil {
		p.SettledAt = u.SettledAt
	}
	p.UpdatedAt = time.Now()
	remember(ctx, r.s, r.s.payments, id)
	r.s.payments[id] = p
	return true, nil
}

func containsStatus[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// refunds

type memRefunds struct{ s *memStore }

func (r memRefunds) Create(ctx context.Context, refund *model.Refund) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.refunds {
		if existing.ReferenceID == refund.ReferenceID {
			return domainRepo.ErrDuplicate
		}
	}
	remember(ctx, r.s, r.s.refunds, refund.ID)
	r.s.refunds[refund.ID] = *refund
	return nil
}

func (r memRefunds) GetByID(ctx context.Context, id uuid.UUID) (*model.Refund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	refund, ok := r.s.refunds[id]
	if !ok {
		return nil, domainRepo.ErrNotFound
	}
	return &refund, nil
}

func (r memRefunds) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*model.Refund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Refund
	for _, refund := range r.s.refunds {
		if refund.PaymentID == paymentID {
			cp := refund
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memRefunds) SumActiveByPayment(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, refund := range r.s.refunds {
		if refund.PaymentID == paymentID && refund.Status != model.RefundStatusFailed {
			total = total.Add(refund.Amount)
		}
	}
	return total, nil
}

func (r memRefunds) UpdateIfStatus(ctx context.Context, id uuid.UUID, from []model.RefundStatus, u domainRepo.RefundUpdate) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	refund, ok := r.s.refunds[id]
	if !ok || !containsStatus(from, refund.Status) {
		return false, nil
	}
	refund.Status = u.Status
	if u.ProviderReference != nil {
		refund.ProviderReference = u.ProviderReference
	}
	if u.FailureReason != nil {
		refund.FailureReason = u.FailureReason
	}
	remember(ctx, r.s, r.s.refunds, id)
	r.s.refunds[id] = refund
	return true, nil
}

// ledger

type memLedger struct{ s *memStore }

func headKey(kind model.EntityKind, id string) string {
	return string(kind) + "/" + id
}

func (r memLedger) LockHead(ctx context.Context, kind model.EntityKind, entityID string) (*model.LedgerHead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h, ok := r.s.heads[headKey(kind, entityID)]
	if !ok {
		h = model.LedgerHead{EntityKind: kind, EntityID: entityID, Balance: decimal.Zero}
		remember(ctx, r.s, r.s.heads, headKey(kind, entityID))
		r.s.heads[headKey(kind, entityID)] = h
	}
	return &h, nil
}

func (r memLedger) GetHead(ctx context.Context, kind model.EntityKind, entityID string) (*model.LedgerHead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h, ok := r.s.heads[headKey(kind, entityID)]
	if !ok {
		return nil, domainRepo.ErrNotFound
	}
	return &h, nil
}

func (r memLedger) AppendEntry(ctx context.Context, head *model.LedgerHead, entry *model.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.appendErr != nil {
		return r.s.appendErr
	}
	key := headKey(head.EntityKind, head.EntityID)
	if r.s.heads[key].Sequence != head.Sequence {
		return domainRepo.ErrConflict
	}
	remember(ctx, r.s, r.s.heads, key)
	rememberEntry(ctx, r.s, entry.ID)
	r.s.entries = append(r.s.entries, *entry)
	id := entry.ID
	r.s.heads[key] = model.LedgerHead{
		EntityKind:  head.EntityKind,
		EntityID:    head.EntityID,
		Balance:     entry.Balance,
		Sequence:    entry.Sequence,
		LastEntryID: &id,
		UpdatedAt:   entry.CreatedAt,
	}
	head.Balance = entry.Balance
	head.Sequence = entry.Sequence
	return nil
}

func (r memLedger) ListEntries(ctx context.Context, kind model.EntityKind, entityID string, limit int) ([]*model.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.LedgerEntry
	for i := len(r.s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.s.entries[i]
		if e.EntityKind == kind && e.EntityID == entityID {
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r memLedger) FindByReference(ctx context.Context, kind model.EntityKind, entityID, referenceKind, referenceID string) (*model.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.entries {
		if e.EntityKind == kind && e.EntityID == entityID && e.ReferenceKind == referenceKind && e.ReferenceID == referenceID {
			cp := e
			return &cp, nil
		}
	}
	return nil, domainRepo.ErrNotFound
}

// entriesFor returns the entity's entries in sequence order.
func (s *memStore) entriesFor(kind model.EntityKind, id string) []model.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.LedgerEntry
	for _, e := range s.entries {
		if e.EntityKind == kind && e.EntityID == id {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

// wallets

type memWallets struct{ s *memStore }

func (r memWallets) Create(ctx context.Context, w *model.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.wallets {
		if existing.UserID == w.UserID && existing.MerchantID == w.MerchantID {
			return domainRepo.ErrDuplicate
		}
	}
	remember(ctx, r.s, r.s.wallets, w.ID)
	r.s.wallets[w.ID] = *w
	return nil
}

func (r memWallets) GetByID(ctx context.Context, id uuid.UUID) (*model.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[id]
	if !ok {
		return nil, domainRepo.ErrNotFound
	}
	return &w, nil
}

func (r memWallets) GetByUserAndMerchant(ctx context.Context, userID, merchantID string) (*model.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.wallets {
		if w.UserID == userID && w.MerchantID == merchantID {
			cp := w
			return &cp, nil
		}
	}
	return nil, domainRepo.ErrNotFound
}

func (r memWallets) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r memWallets) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[id]
	if !ok {
		return domainRepo.ErrNotFound
	}
	w.Balance = balance
	remember(ctx, r.s, r.s.wallets, id)
	r.s.wallets[id] = w
	return nil
}

// webhooks

type memWebhooks struct{ s *memStore }

func (r memWebhooks) CreateEndpoint(ctx context.Context, e *model.WebhookEndpoint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	remember(ctx, r.s, r.s.endpoints, e.ID)
	r.s.endpoints[e.ID] = *e
	return nil
}

func (r memWebhooks) GetEndpoint(ctx context.Context, id uuid.UUID) (*model.WebhookEndpoint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.endpoints[id]
	if !ok {
		return nil, domainRepo.ErrNotFound
	}
	return &e, nil
}

func (r memWebhooks) ListEndpoints(ctx context.Context, merchantID string, activeOnly bool) ([]*model.WebhookEndpoint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.WebhookEndpoint
	for _, e := range r.s.endpoints {
		if e.MerchantID == merchantID && (!activeOnly || e.IsActive) {
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memWebhooks) DeactivateEndpoint(ctx context.Context, merchantID string, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.endpoints[id]
	if !ok || e.MerchantID != merchantID {
		return false, nil
	}
	e.IsActive = false
	remember(ctx, r.s, r.s.endpoints, id)
	r.s.endpoints[id] = e
	return true, nil
}

func (r memWebhooks) CreateDelivery(ctx context.Context, d *model.WebhookDelivery) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *d
	cp.Endpoint = nil
	remember(ctx, r.s, r.s.deliveries, d.ID)
	r.s.deliveries[d.ID] = cp
	return nil
}

func (r memWebhooks) GetDelivery(ctx context.Context, id uuid.UUID) (*model.WebhookDelivery, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.deliveries[id]
	if !ok {
		return nil, domainRepo.ErrNotFound
	}
	if e, ok := r.s.endpoints[d.EndpointID]; ok {
		d.Endpoint = &e
	}
	return &d, nil
}

func (r memWebhooks) ListDeliveries(ctx context.Context, merchantID string, filter domainRepo.DeliveryFilter) ([]*model.WebhookDelivery, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.WebhookDelivery
	for _, d := range r.s.deliveries {
		if d.MerchantID != merchantID {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		if filter.EventType != "" && d.EventType != filter.EventType {
			continue
		}
		cp := d
		out = append(out, &cp)
	}
	return out, nil
}

func (r memWebhooks) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.WebhookDelivery, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.WebhookDelivery
	for _, d := range r.s.deliveries {
		if d.Status != model.DeliveryStatusRetrying && d.Status != model.DeliveryStatusFailed {
			continue
		}
		if d.RetryCount >= d.MaxRetries || d.NextRetryAt == nil || d.NextRetryAt.After(now) {
			continue
		}
		if d.LockedUntil != nil && !d.LockedUntil.Before(now) {
			continue
		}
		cp := d
		out = append(out, &cp)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memWebhooks) Claim(ctx context.Context, id uuid.UUID, now, leaseUntil time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.deliveries[id]
	if !ok || d.Status == model.DeliveryStatusSent {
		return false, nil
	}
	if d.LockedUntil != nil && !d.LockedUntil.Before(now) {
		return false, nil
	}
	d.LockedUntil = &leaseUntil
	remember(ctx, r.s, r.s.deliveries, id)
	r.s.deliveries[id] = d
	return true, nil
}

func (r memWebhooks) SaveAttempt(ctx context.Context, d *model.WebhookDelivery) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.deliveries[d.ID]
	if !ok || stored.Status == model.DeliveryStatusSent {
		return false, nil
	}
	cp := *d
	cp.Endpoint = nil
	cp.LockedUntil = nil
	remember(ctx, r.s, r.s.deliveries, d.ID)
	r.s.deliveries[d.ID] = cp
	return true, nil
}

func (s *memStore) delivery(id uuid.UUID) model.WebhookDelivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deliveries[id]
}

func (s *memStore) deliveriesOf(eventType string) []model.WebhookDelivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.WebhookDelivery
	for _, d := range s.deliveries {
		if d.EventType == eventType {
			out = append(out, d)
		}
	}
	return out
}

// payment configs

type memConfigs struct{ s *memStore }

func (r memConfigs) Create(ctx context.Context, cfg *model.MerchantPaymentConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	remember(ctx, r.s, r.s.configs, cfg.ID)
	r.s.configs[cfg.ID] = *cfg
	return nil
}

func (r memConfigs) GetByID(ctx context.Context, id uuid.UUID) (*model.MerchantPaymentConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cfg, ok := r.s.configs[id]
	if !ok {
		return nil, domainRepo.ErrNotFound
	}
	return &cfg, nil
}

func (r memConfigs) List(ctx context.Context, merchantID string) ([]*model.MerchantPaymentConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.MerchantPaymentConfig
	for _, cfg := range r.s.configs {
		if cfg.MerchantID == merchantID {
			cp := cfg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memConfigs) GetActiveVerified(ctx context.Context, merchantID string) (*model.MerchantPaymentConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best *model.MerchantPaymentConfig
	for _, cfg := range r.s.configs {
		if cfg.MerchantID != merchantID || !cfg.IsActive || !cfg.IsVerified {
			continue
		}
		if best == nil || cfg.CreatedAt.After(best.CreatedAt) {
			cp := cfg
			best = &cp
		}
	}
	if best == nil {
		return nil, domainRepo.ErrNotFound
	}
	return best, nil
}

func (r memConfigs) SetFlags(ctx context.Context, merchantID string, id uuid.UUID, verified, active *bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cfg, ok := r.s.configs[id]
	if !ok || cfg.MerchantID != merchantID {
		return false, nil
	}
	if verified != nil {
		cfg.IsVerified = *verified
	}
	if active != nil {
		cfg.IsActive = *active
	}
	remember(ctx, r.s, r.s.configs, id)
	r.s.configs[id] = cfg
	return true, nil
}
