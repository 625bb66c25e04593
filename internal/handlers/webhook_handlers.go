package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"academy_app_echo/internal/models"
	"academy_app_echo/internal/services"
)

// Reconciler is what the gateway callback endpoint needs from the
// reconciliation service.
type Reconciler interface {
	Reconcile(ctx context.Context, gatewayName models.PaymentGateway, body []byte, headers http.Header) (*services.ReconcileResult, error)
}

// WebhookHandler terminates inbound gateway callbacks.
type WebhookHandler struct {
	reconciler Reconciler
}

func NewWebhookHandler(reconciler Reconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// HandleGatewayCallback receives a raw gateway notification. Classified
// outcomes are acknowledged with 200 so the gateway stops retrying;
// only unexpected errors surface as non-2xx and trigger redelivery.
func (h *WebhookHandler) HandleGatewayCallback(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	gatewayName := models.PaymentGateway(c.Param("gateway"))
	result, err := h.reconciler.Reconcile(c.Request().Context(), gatewayName, body, c.Request().Header)
	if err != nil {
		if errors.Is(err, services.ErrUnknownGateway) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown payment gateway")
		}
		return err
	}

	return c.JSON(http.StatusOK, result)
}
