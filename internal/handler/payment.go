package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sekoucamara/bus-reservation/internal/service"
)

// PaymentHandler records payment outcomes reported by agents. There is no
// gateway integration here; the provider reference is whatever the agent's
// terminal produced.
type PaymentHandler struct {
	Svc *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{Svc: svc}
}

// Complete handles POST /v1/reservations/:code/payment/complete. A still
// pending reservation is confirmed on the way so the buyer always leaves
// with tickets.
func (h *PaymentHandler) Complete(c echo.Context) error {
	var body struct {
		Method      string  `json:"method"`
		ProviderRef *string `json:"provider_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := h.Svc.MarkCompleted(c.Request().Context(), c.Param("code"), body.Method, body.ProviderRef)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_code": res.Code,
		"status":           res.Status,
	})
}

// Fail handles POST /v1/reservations/:code/payment/fail.
func (h *PaymentHandler) Fail(c echo.Context) error {
	if err := h.Svc.MarkFailed(c.Request().Context(), c.Param("code")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation_code": c.Param("code")})
}

// Refund handles POST /v1/reservations/:code/payment/refund. A zero or
// missing amount refunds the full paid amount. Admin only.
func (h *PaymentHandler) Refund(c echo.Context) error {
	var body struct {
		AmountCents int64 `json:"amount_cents"`
	}
	_ = c.Bind(&body)

	if err := h.Svc.MarkRefunded(c.Request().Context(), c.Param("code"), body.AmountCents); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation_code": c.Param("code")})
}
