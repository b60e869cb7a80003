package http

import (
	"net/http"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	"github.com/Likith-Yadav/PayCoreX/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// InstrumentHandler serves stored tokens, crypto receiving addresses and the
// merchant's gateway configs.
type InstrumentHandler struct {
	tokens    *usecase.TokenService
	addresses *usecase.CryptoAddressService
	configs   *usecase.PaymentConfigService
	logger    *zap.Logger
}

func NewInstrumentHandler(
	tokens *usecase.TokenService,
	addresses *usecase.CryptoAddressService,
	configs *usecase.PaymentConfigService,
	logger *zap.Logger,
) *InstrumentHandler {
	return &InstrumentHandler{
		tokens:    tokens,
		addresses: addresses,
		configs:   configs,
		logger:    logger,
	}
}

func (h *InstrumentHandler) StoreToken(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	var req dto.StoreTokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	token, err := h.tokens.Store(c.Request().Context(), merchant, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, token)
}

// ListTokens lists active tokens, optionally for one user via ?user_id=.
func (h *InstrumentHandler) ListTokens(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	tokens, err := h.tokens.List(c.Request().Context(), merchant, c.QueryParam("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokens)
}

func (h *InstrumentHandler) DeleteToken(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.tokens.Delete(c.Request().Context(), merchant, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *InstrumentHandler) RegisterAddress(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	var req dto.RegisterAddressRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	address, err := h.addresses.Register(c.Request().Context(), merchant, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, address)
}

func (h *InstrumentHandler) ListAddresses(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	addresses, err := h.addresses.List(c.Request().Context(), merchant)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, addresses)
}

// TransactionStatus reports a crypto transaction's state, on ?network= or the default network.
func (h *InstrumentHandler) TransactionStatus(c echo.Context) error {
	if _, err := merchantID(c); err != nil {
		return err
	}

	status, err := h.addresses.TransactionStatus(c.Request().Context(), c.QueryParam("network"), c.Param("tx"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

func (h *InstrumentHandler) CreateConfig(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	var req dto.CreatePaymentConfigRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	cfg, err := h.configs.Create(c.Request().Context(), merchant, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cfg)
}

func (h *InstrumentHandler) ListConfigs(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	configs, err := h.configs.List(c.Request().Context(), merchant)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, configs)
}

// VerifyConfig marks a config as verified, which makes it eligible for gateway lookups.
func (h *InstrumentHandler) VerifyConfig(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.configs.MarkVerified(c.Request().Context(), merchant, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *InstrumentHandler) DeactivateConfig(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.configs.Deactivate(c.Request().Context(), merchant, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
