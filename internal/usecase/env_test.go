package usecase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/provider/executor"
	"github.com/Likith-Yadav/PayCoreX/pkg/keylock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testMerchant = "m_test"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeVerifier struct {
	status *provider.GatewayStatus
	err    error
	calls  atomic.Int32
}

func (f *fakeVerifier) Fetch(ctx context.Context, cfg *model.MerchantPaymentConfig, reference string) (*provider.GatewayStatus, error) {
	f.calls.Add(1)
	return f.status, f.err
}

type acceptAll struct{}

func (acceptAll) ValidateAddress(network, address string) error { return nil }

// endpointServer is a merchant webhook receiver that answers with status.
type endpointServer struct {
	*httptest.Server
	status atomic.Int32
	hits   atomic.Int32

	mu     sync.Mutex
	bodies [][]byte
	sigs   []string
}

func newEndpointServer(t *testing.T, status int) *endpointServer {
	t.Helper()
	es := &endpointServer{}
	es.status.Store(int32(status))
	es.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		es.hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		es.mu.Lock()
		es.bodies = append(es.bodies, body)
		es.sigs = append(es.sigs, r.Header.Get(HeaderSignature))
		es.mu.Unlock()
		w.WriteHeader(int(es.status.Load()))
	}))
	t.Cleanup(es.Close)
	return es
}

type testEnv struct {
	store        *memStore
	clock        *testClock
	gateway      *fakeVerifier
	ledger       *LedgerService
	wallets      *WalletService
	webhooks     *WebhookService
	settlement   *SettlementService
	payments     *PaymentService
	verification *VerificationService
	refunds      *RefundService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := newMemStore()
	tx := memTx{}
	locks := keylock.New()
	clock := newTestClock()
	gateway := &fakeVerifier{}

	ledger := NewLedgerService(memLedger{store}, tx, locks, 3, nil, logger)
	wallets := NewWalletService(memWallets{store}, ledger, tx, "INR", logger)
	webhooks := NewWebhookService(memWebhooks{store}, nil, WebhookOptions{Timeout: 2 * time.Second, MaxRetries: 3}, nil, logger)
	webhooks.now = clock.Now
	settlement := NewSettlementService(memPayments{store}, ledger, tx, webhooks, nil, nil, logger)

	executors := &provider.Executors{
		Wallet:    executor.NewWalletExecutor(wallets, logger),
		Tokenized: executor.NewTokenizedExecutor(nil, nil, logger),
		UPIIntent: executor.NewUPIIntentExecutor(),
		Crypto:    executor.NewCryptoExecutor(acceptAll{}),
	}
	payments := NewPaymentService(memPayments{store}, executors, settlement, "INR", time.Second, nil, logger)
	verification := NewVerificationService(memPayments{store}, memConfigs{store}, settlement,
		provider.GatewayRegistry{model.ConfigTypeRazorpay: gateway}, logger)
	refunds := NewRefundService(memPayments{store}, memRefunds{store}, wallets, ledger, tx, locks, webhooks, nil, nil, logger)

	return &testEnv{
		store:        store,
		clock:        clock,
		gateway:      gateway,
		ledger:       ledger,
		wallets:      wallets,
		webhooks:     webhooks,
		settlement:   settlement,
		payments:     payments,
		verification: verification,
		refunds:      refunds,
	}
}

func (e *testEnv) addEndpoint(t *testing.T, url string, events ...string) string {
	t.Helper()
	created, err := e.webhooks.CreateEndpoint(context.Background(), testMerchant, dto.CreateEndpointRequest{URL: url, Events: events})
	require.NoError(t, err)
	return created.Secret
}

func (e *testEnv) fundedWallet(t *testing.T, userID string, amount int64) *model.Wallet {
	t.Helper()
	ctx := context.Background()
	w, err := e.wallets.GetOrCreate(ctx, testMerchant, dto.CreateWalletRequest{UserID: userID})
	require.NoError(t, err)
	if amount > 0 {
		w, _, err = e.wallets.Topup(ctx, userID, testMerchant, dto.TopupRequest{Amount: decimal.NewFromInt(amount)})
		require.NoError(t, err)
	}
	return w
}

// pendingPayment stores a pending payment without executing it.
func (e *testEnv) pendingPayment(t *testing.T, method model.PaymentMethod, amount int64) *model.Payment {
	t.Helper()
	meta := map[string]interface{}{}
	var userID *string
	switch method {
	case model.PaymentMethodUPIIntent:
		meta[model.MetadataUPIID] = "alice@okaxis"
	case model.PaymentMethodCrypto:
		meta[model.MetadataCryptoAddress] = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	case model.PaymentMethodTokenized:
		meta[model.MetadataTokenID] = uuid.NewString()
	case model.PaymentMethodWallet:
		u := "u_1"
		userID = &u
	}
	p, err := e.payments.Create(context.Background(), dto.CreatePaymentRequest{
		MerchantID: testMerchant,
		Amount:     decimal.NewFromInt(amount),
		Method:     method,
		UserID:     userID,
		Metadata:   meta,
	})
	require.NoError(t, err)
	return p
}

// settledPayment runs a crypto payment through the executor to success.
func (e *testEnv) settledPayment(t *testing.T, amount int64) *model.Payment {
	t.Helper()
	p, err := e.payments.Submit(context.Background(), dto.CreatePaymentRequest{
		MerchantID: testMerchant,
		Amount:     decimal.NewFromInt(amount),
		Method:     model.PaymentMethodCrypto,
		Metadata:   map[string]interface{}{model.MetadataCryptoAddress: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"},
	})
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusSuccess, p.Status)
	return p
}

func (e *testEnv) merchantBalance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := e.ledger.Balance(context.Background(), model.EntityMerchant, testMerchant)
	require.NoError(t, err)
	return b
}

func (e *testEnv) payment(t *testing.T, id uuid.UUID) *model.Payment {
	t.Helper()
	p, err := memPayments{e.store}.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}
