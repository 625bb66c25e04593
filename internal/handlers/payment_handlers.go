package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"academy_app_echo/internal/middleware"
	"academy_app_echo/internal/models"
	"academy_app_echo/internal/services"
)

// PaymentHandler exposes checkout initiation and payment status reads.
type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Checkout opens a payment session for a course on behalf of the
// authenticated user.
func (h *PaymentHandler) Checkout(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	courseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.payments.InitiateCheckout(c.Request().Context(), userID, uint(courseID), models.PaymentGateway(req.Gateway))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCourseNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "course not found")
		case errors.Is(err, services.ErrCourseUnpublished):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "course is not open for enrollment")
		case errors.Is(err, services.ErrAlreadyEnrolled):
			return echo.NewHTTPError(http.StatusConflict, "already enrolled in this course")
		case errors.Is(err, services.ErrUnknownGateway):
			return echo.NewHTTPError(http.StatusBadRequest, "unknown payment gateway")
		}
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// GetPayment returns one of the caller's payments.
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}

	payment, err := h.payments.GetPayment(c.Request().Context(), uint(id), userID)
	if err != nil {
		return err
	}
	if payment == nil {
		return echo.NewHTTPError(http.StatusNotFound, "payment not found")
	}
	return c.JSON(http.StatusOK, payment)
}
