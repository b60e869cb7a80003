package http

import (
	"net/http"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type WalletHandler struct {
	wallets *usecase.WalletService
	ledger  *usecase.LedgerService
	logger  *zap.Logger
}

func NewWalletHandler(wallets *usecase.WalletService, ledger *usecase.LedgerService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		wallets: wallets,
		ledger:  ledger,
		logger:  logger,
	}
}

func (h *WalletHandler) CreateWallet(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	var req dto.CreateWalletRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	wallet, err := h.wallets.GetOrCreate(c.Request().Context(), merchant, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wallet)
}

func (h *WalletHandler) GetWallet(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	wallet, err := h.wallets.Get(c.Request().Context(), c.Param("user_id"), merchant)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wallet)
}

// walletChangeResponse carries the wallet after a balance change and the entry that made it.
type walletChangeResponse struct {
	Wallet *model.Wallet      `json:"wallet"`
	Entry  *model.LedgerEntry `json:"entry"`
}

func (h *WalletHandler) Topup(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	var req dto.TopupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	wallet, entry, err := h.wallets.Topup(c.Request().Context(), c.Param("user_id"), merchant, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, walletChangeResponse{Wallet: wallet, Entry: entry})
}

// Pay debits the user's wallet directly, outside the payment pipeline.
func (h *WalletHandler) Pay(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	var req dto.WalletDebitRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	wallet, entry, err := h.wallets.Debit(c.Request().Context(), c.Param("user_id"), merchant, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, walletChangeResponse{Wallet: wallet, Entry: entry})
}

// MerchantBalance returns the caller's settled merchant balance.
func (h *WalletHandler) MerchantBalance(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	balance, err := h.ledger.Balance(c.Request().Context(), model.EntityMerchant, merchant)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.BalanceResponse{
		EntityKind: string(model.EntityMerchant),
		EntityID:   merchant,
		Balance:    balance,
	})
}

// MerchantEntries returns the caller's ledger history, newest first.
func (h *WalletHandler) MerchantEntries(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	limit, err := queryLimit(c, 50)
	if err != nil {
		return err
	}

	entries, err := h.ledger.History(c.Request().Context(), model.EntityMerchant, merchant, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
