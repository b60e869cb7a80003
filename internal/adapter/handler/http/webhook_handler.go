package http

import (
	"net/http"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	"github.com/Likith-Yadav/PayCoreX/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	webhooks *usecase.WebhookService
	logger   *zap.Logger
}

func NewWebhookHandler(webhooks *usecase.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks, logger: logger}
}

// CreateEndpoint registers a URL. The response is the only place the signing
// secret is ever shown.
func (h *WebhookHandler) CreateEndpoint(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	var req dto.CreateEndpointRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	created, err := h.webhooks.CreateEndpoint(c.Request().Context(), merchant, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *WebhookHandler) ListEndpoints(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	endpoints, err := h.webhooks.ListEndpoints(c.Request().Context(), merchant)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, endpoints)
}

func (h *WebhookHandler) DeactivateEndpoint(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.webhooks.DeactivateEndpoint(c.Request().Context(), merchant, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WebhookHandler) ListDeliveries(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}

	var q dto.ListDeliveriesQuery
	if err := bind(c, &q); err != nil {
		return err
	}

	deliveries, err := h.webhooks.ListDeliveries(c.Request().Context(), merchant, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deliveries)
}

func (h *WebhookHandler) GetDelivery(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	delivery, err := h.webhooks.GetDelivery(c.Request().Context(), merchant, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, delivery)
}

// RetryDelivery attempts a delivery now, ignoring its backoff schedule.
func (h *WebhookHandler) RetryDelivery(c echo.Context) error {
	merchant, err := merchantID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	delivery, err := h.webhooks.Retry(c.Request().Context(), merchant, id)
	if err != nil {
		return err
	}

	h.logger.Info("Manual webhook retry",
		zap.String("merchant_id", merchant),
		zap.String("delivery_id", delivery.ID.String()),
		zap.String("status", string(delivery.Status)))

	return c.JSON(http.StatusOK, delivery)
}
