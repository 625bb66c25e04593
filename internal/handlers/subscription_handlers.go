package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"academy_app_echo/internal/models"
	"academy_app_echo/internal/repository"
)

// SubscriptionHandler exposes the admin CRUD over the webhook
// subscription registry plus the per-subscription delivery audit trail.
type SubscriptionHandler struct {
	subs repository.SubscriptionRepository
	logs repository.DeliveryLogRepository
}

func NewSubscriptionHandler(subs repository.SubscriptionRepository, logs repository.DeliveryLogRepository) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs, logs: logs}
}

func (h *SubscriptionHandler) List(c echo.Context) error {
	subs, err := h.subs.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, subs)
}

func (h *SubscriptionHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sub, err := h.subs.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if sub == nil {
		return echo.NewHTTPError(http.StatusNotFound, "subscription not found")
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) Create(c echo.Context) error {
	var req CreateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sub := models.WebhookSubscription{
		Name:      req.Name,
		URL:       req.URL,
		Events:    req.Events,
		IsActive:  true,
		SecretKey: req.SecretKey,
	}
	if req.IsActive != nil {
		sub.IsActive = *req.IsActive
	}

	if err := h.subs.Create(c.Request().Context(), &sub); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sub)
}

func (h *SubscriptionHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sub, err := h.subs.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if sub == nil {
		return echo.NewHTTPError(http.StatusNotFound, "subscription not found")
	}

	var req UpdateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.Name != nil {
		sub.Name = *req.Name
	}
	if req.URL != nil {
		sub.URL = *req.URL
	}
	if req.Events != nil {
		sub.Events = *req.Events
	}
	if req.IsActive != nil {
		sub.IsActive = *req.IsActive
	}
	if req.SecretKey != nil {
		sub.SecretKey = *req.SecretKey
	}

	if err := h.subs.Update(c.Request().Context(), sub); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sub, err := h.subs.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if sub == nil {
		return echo.NewHTTPError(http.StatusNotFound, "subscription not found")
	}
	if err := h.subs.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListDeliveries pages through the delivery log of one subscription,
// newest first. The log survives subscription deletion, so no existence
// check here.
func (h *SubscriptionHandler) ListDeliveries(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	entries, total, err := h.logs.ListByWebhook(c.Request().Context(), id, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"deliveries": entries,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}
