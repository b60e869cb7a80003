package http

import (
	"net/http"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	"github.com/Likith-Yadav/PayCoreX/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type RefundHandler struct {
	refunds *usecase.RefundService
	logger  *zap.Logger
}

func NewRefundHandler(refunds *usecase.RefundService, logger *zap.Logger) *RefundHandler {
	return &RefundHandler{refunds: refunds, logger: logger}
}

// CreateRefund refunds part or all of a successful payment. An omitted amount
// refunds the full payment.
func (h *RefundHandler) CreateRefund(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	paymentID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req dto.CreateRefundRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.PaymentID = paymentID
	req.MerchantID = merchant

	refund, err := h.refunds.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, refund)
}

func (h *RefundHandler) ListRefunds(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	paymentID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	refunds, err := h.refunds.ListByPayment(c.Request().Context(), merchant, paymentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, refunds)
}

func (h *RefundHandler) GetRefund(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	refund, err := h.refunds.Get(c.Request().Context(), merchant, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, refund)
}
