package http

import (
	"io"
	"net/http"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	customErr "github.com/Likith-Yadav/PayCoreX/internal/domain/errors"
	"github.com/Likith-Yadav/PayCoreX/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	payments     *usecase.PaymentService
	verification *usecase.VerificationService
	logger       *zap.Logger
}

func NewPaymentHandler(payments *usecase.PaymentService, verification *usecase.VerificationService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments:     payments,
		verification: verification,
		logger:       logger,
	}
}

// CreatePayment creates a payment and runs it through its executor.
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	var req dto.CreatePaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.MerchantID = merchant

	payment, err := h.payments.Submit(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) ListPayments(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	var q dto.ListPaymentsQuery
	if err := bind(c, &q); err != nil {
		return err
	}

	payments, err := h.payments.List(c.Request().Context(), merchant, q)
	if err != nil {
		return err
	}

	h.logger.Debug("Listed payments",
		zap.String("merchant_id", merchant),
		zap.Int("payment_count", len(payments)))

	return c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) GetPayment(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	payment, err := h.payments.Get(c.Request().Context(), merchant, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) ProcessPayment(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	payment, err := h.payments.Process(c.Request().Context(), merchant, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) CancelPayment(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	payment, err := h.payments.Cancel(c.Request().Context(), merchant, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var data dto.VerificationData
	if err := bind(c, &data); err != nil {
		return err
	}

	result, err := h.verification.Verify(c.Request().Context(), merchant, id, data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) SubmitReference(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req dto.SubmitReferenceRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.verification.SubmitReference(c.Request().Context(), merchant, id, req.Reference)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) MarkVerified(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req dto.MarkVerifiedRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	payment, err := h.verification.MarkVerified(c.Request().Context(), merchant, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

// GatewayCallback receives unauthenticated gateway notifications. The payment is
// always re-checked against the gateway, so the body is never trusted on its own.
func (h *PaymentHandler) GatewayCallback(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return customErr.NewValidationError("unreadable callback body")
	}

	result, err := h.verification.HandleGatewayCallback(c.Request().Context(), body)
	if err != nil {
		h.logger.Warn("Gateway callback rejected", zap.Error(err))
		return err
	}
	return c.JSON(http.StatusOK, result)
}
