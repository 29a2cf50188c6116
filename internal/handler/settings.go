package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sekoucamara/bus-reservation/internal/config"
)

// SettingsHandler lets admins reload company settings from the database
// without restarting the service.
type SettingsHandler struct {
	Settings *config.Settings
}

func NewSettingsHandler(settings *config.Settings) *SettingsHandler {
	return &SettingsHandler{Settings: settings}
}

// Reload handles POST /v1/admin/settings/reload.
func (h *SettingsHandler) Reload(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.Settings.Reload(ctx); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"max_seats_per_booking":  h.Settings.MaxSeatsPerBooking(ctx),
		"booking_expiry_minutes": h.Settings.BookingExpiryMinutes(ctx),
	})
}
