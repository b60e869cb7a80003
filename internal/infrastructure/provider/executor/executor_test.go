package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	customErr "github.com/Likith-Yadav/PayCoreX/internal/domain/errors"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type fakeWallets struct {
	err     error
	openErr error
	opened  []dto.CreateWalletRequest
	calls   []dto.WalletPayRequest
}

func (f *fakeWallets) GetOrCreate(ctx context.Context, merchantID string, req dto.CreateWalletRequest) (*model.Wallet, error) {
	f.opened = append(f.opened, req)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &model.Wallet{ID: uuid.New(), UserID: req.UserID, MerchantID: merchantID, IsActive: true}, nil
}

func (f *fakeWallets) Pay(ctx context.Context, req dto.WalletPayRequest) (*model.LedgerEntry, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &model.LedgerEntry{Sequence: 1, Debit: req.Amount}, nil
}

type fakeTokens struct {
	tokens map[uuid.UUID]*model.PaymentToken
}

func (f *fakeTokens) Create(ctx context.Context, token *model.PaymentToken) error { return nil }

func (f *fakeTokens) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentToken, error) {
	t, ok := f.tokens[id]
	if !ok {
		return nil, domainRepo.ErrNotFound
	}
	return t, nil
}

func (f *fakeTokens) ListActive(ctx context.Context, merchantID, userID string) ([]*model.PaymentToken, error) {
	return nil, nil
}

func (f *fakeTokens) Deactivate(ctx context.Context, merchantID string, id uuid.UUID) (bool, error) {
	return false, nil
}

type fakeVault struct {
	secrets map[string]string
}

func (f *fakeVault) Store(ctx context.Context, secret string) (string, error) {
	h := uuid.NewString()
	f.secrets[h] = secret
	return h, nil
}

func (f *fakeVault) Retrieve(ctx context.Context, handle string) (string, error) {
	s, ok := f.secrets[handle]
	if !ok {
		return "", errors.New("unknown handle")
	}
	return s, nil
}

type fakeValidator struct {
	networks []string
}

func (f *fakeValidator) ValidateAddress(network, address string) error {
	f.networks = append(f.networks, network)
	if len(address) < 10 {
		return errors.New("invalid address for ethereum")
	}
	return nil
}

func strPtr(s string) *string { return &s }

func newPayment(method model.PaymentMethod, meta datatypes.JSONMap) *model.Payment {
	return &model.Payment{
		ID:         uuid.New(),
		MerchantID: "m_1",
		Amount:     decimal.NewFromInt(100),
		Method:     method,
		Metadata:   meta,
	}
}

func TestWalletExecutor(t *testing.T) {
	ctx := context.Background()

	t.Run("success uses the payment id as reference", func(t *testing.T) {
		wallets := &fakeWallets{}
		p := newPayment(model.PaymentMethodWallet, nil)
		p.UserID = strPtr("u_1")

		res, err := NewWalletExecutor(wallets, zap.NewNop()).Execute(ctx, p)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "WALLET_"+p.ID.String(), res.Reference)
		require.Len(t, wallets.calls, 1)
		assert.Equal(t, p.ID, wallets.calls[0].PaymentID)
		assert.True(t, p.Amount.Equal(wallets.calls[0].Amount))
	})

	t.Run("opens the payer wallet before debiting", func(t *testing.T) {
		wallets := &fakeWallets{}
		p := newPayment(model.PaymentMethodWallet, nil)
		p.UserID = strPtr("u_9")
		p.Currency = "USD"

		_, err := NewWalletExecutor(wallets, zap.NewNop()).Execute(ctx, p)
		require.NoError(t, err)
		require.Len(t, wallets.opened, 1)
		assert.Equal(t, dto.CreateWalletRequest{UserID: "u_9", Currency: "USD"}, wallets.opened[0])
		assert.Len(t, wallets.calls, 1)
	})

	t.Run("wallet open failure is an error", func(t *testing.T) {
		wallets := &fakeWallets{openErr: customErr.NewInternalError("failed to create wallet", errors.New("db down"))}
		p := newPayment(model.PaymentMethodWallet, nil)
		p.UserID = strPtr("u_1")

		_, err := NewWalletExecutor(wallets, zap.NewNop()).Execute(ctx, p)
		assert.Error(t, err)
		assert.Empty(t, wallets.calls)
	})

	t.Run("missing user declines", func(t *testing.T) {
		wallets := &fakeWallets{}
		res, err := NewWalletExecutor(wallets, zap.NewNop()).Execute(ctx, newPayment(model.PaymentMethodWallet, nil))
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Empty(t, wallets.opened)
		assert.Empty(t, wallets.calls)
	})

	t.Run("insufficient balance declines", func(t *testing.T) {
		wallets := &fakeWallets{err: customErr.NewInsufficientBalanceError(decimal.NewFromInt(100), decimal.NewFromInt(50))}
		p := newPayment(model.PaymentMethodWallet, nil)
		p.UserID = strPtr("u_1")

		res, err := NewWalletExecutor(wallets, zap.NewNop()).Execute(ctx, p)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "insufficient wallet balance", res.Error)
	})

	t.Run("missing wallet declines", func(t *testing.T) {
		wallets := &fakeWallets{err: customErr.NewNotFoundError("wallet")}
		p := newPayment(model.PaymentMethodWallet, nil)
		p.UserID = strPtr("u_1")

		res, err := NewWalletExecutor(wallets, zap.NewNop()).Execute(ctx, p)
		require.NoError(t, err)
		assert.False(t, res.Success)
	})

	t.Run("storage failure is an error", func(t *testing.T) {
		wallets := &fakeWallets{err: customErr.NewLedgerWriteFailure(errors.New("conflict"))}
		p := newPayment(model.PaymentMethodWallet, nil)
		p.UserID = strPtr("u_1")

		_, err := NewWalletExecutor(wallets, zap.NewNop()).Execute(ctx, p)
		assert.Error(t, err)
	})
}

func TestTokenizedExecutor(t *testing.T) {
	ctx := context.Background()
	vault := &fakeVault{secrets: map[string]string{}}
	handle, _ := vault.Store(ctx, "4111111111111111")

	past := time.Now().Add(-time.Hour)
	active := &model.PaymentToken{ID: uuid.New(), MerchantID: "m_1", UserID: "u_1", VaultHandle: handle, IsActive: true}
	expired := &model.PaymentToken{ID: uuid.New(), MerchantID: "m_1", UserID: "u_1", VaultHandle: handle, IsActive: true, ExpiresAt: &past}
	foreign := &model.PaymentToken{ID: uuid.New(), MerchantID: "m_2", UserID: "u_1", VaultHandle: handle, IsActive: true}
	broken := &model.PaymentToken{ID: uuid.New(), MerchantID: "m_1", UserID: "u_1", VaultHandle: "missing", IsActive: true}

	tokens := &fakeTokens{tokens: map[uuid.UUID]*model.PaymentToken{
		active.ID: active, expired.ID: expired, foreign.ID: foreign, broken.ID: broken,
	}}
	ex := NewTokenizedExecutor(tokens, vault, zap.NewNop())

	tests := []struct {
		name    string
		tokenID string
		userID  *string
		success bool
		wantErr bool
	}{
		{name: "active token", tokenID: active.ID.String(), userID: strPtr("u_1"), success: true},
		{name: "active token without user", tokenID: active.ID.String(), success: true},
		{name: "other user", tokenID: active.ID.String(), userID: strPtr("u_2")},
		{name: "expired", tokenID: expired.ID.String()},
		{name: "other merchant", tokenID: foreign.ID.String()},
		{name: "unknown token", tokenID: uuid.NewString()},
		{name: "malformed id", tokenID: "tok_123"},
		{name: "vault failure", tokenID: broken.ID.String(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPayment(model.PaymentMethodTokenized, datatypes.JSONMap{model.MetadataTokenID: tt.tokenID})
			p.UserID = tt.userID

			res, err := ex.Execute(ctx, p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.success, res.Success)
			if tt.success {
				assert.Equal(t, "TOKEN_"+tt.tokenID, res.Reference)
			}
		})
	}
}

func TestUPIIntentExecutor(t *testing.T) {
	tests := []struct {
		upiID   string
		success bool
	}{
		{upiID: "alice@okaxis", success: true},
		{upiID: "shop.name-01@ybl", success: true},
		{upiID: " bob@paytm ", success: true},
		{upiID: "alice"},
		{upiID: "alice@"},
		{upiID: "@okaxis"},
		{upiID: "a b@okaxis"},
		{upiID: ""},
	}

	ex := NewUPIIntentExecutor()
	for _, tt := range tests {
		t.Run(tt.upiID, func(t *testing.T) {
			res, err := ex.Execute(context.Background(), newPayment(model.PaymentMethodUPIIntent, datatypes.JSONMap{model.MetadataUPIID: tt.upiID}))
			require.NoError(t, err)
			assert.Equal(t, tt.success, res.Success)
		})
	}

	res, _ := ex.Execute(context.Background(), newPayment(model.PaymentMethodUPIIntent, datatypes.JSONMap{model.MetadataUPIID: "alice@okaxis"}))
	assert.Equal(t, "UPI_alice@okaxis", res.Reference)
}

func TestCryptoExecutor(t *testing.T) {
	ctx := context.Background()
	v := &fakeValidator{}
	ex := NewCryptoExecutor(v)

	addr := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	res, err := ex.Execute(ctx, newPayment(model.PaymentMethodCrypto, datatypes.JSONMap{
		model.MetadataCryptoAddress: addr,
		model.MetadataNetwork:       "polygon",
	}))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "CRYPTO_"+addr, res.Reference)
	assert.Equal(t, []string{"polygon"}, v.networks)

	res, err = ex.Execute(ctx, newPayment(model.PaymentMethodCrypto, datatypes.JSONMap{model.MetadataCryptoAddress: "0x12"}))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid address")

	res, err = ex.Execute(ctx, newPayment(model.PaymentMethodCrypto, nil))
	require.NoError(t, err)
	assert.False(t, res.Success)
}
