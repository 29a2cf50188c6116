package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sekoucamara/bus-reservation/internal/service"
)

// AvailabilityHandler answers seat availability lookups. These endpoints
// are public and read-only; results may be slightly stale when served from
// the response cache, and admission re-checks capacity under locks anyway.
type AvailabilityHandler struct {
	Ledger *service.CapacityLedger
	Trips  *service.TripService
}

func NewAvailabilityHandler(ledger *service.CapacityLedger, trips *service.TripService) *AvailabilityHandler {
	return &AvailabilityHandler{Ledger: ledger, Trips: trips}
}

// BySchedule handles GET /v1/schedules/:id/availability?date=YYYY-MM-DD.
func (h *AvailabilityHandler) BySchedule(c echo.Context) error {
	scheduleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || scheduleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	travelDate, err := time.Parse(travelDateLayout, c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	available, err := h.Ledger.AvailableSeatsForSchedule(c.Request().Context(), scheduleID, travelDate, time.Now().UTC())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"schedule_id":     scheduleID,
		"travel_date":     travelDate.Format(travelDateLayout),
		"available_seats": available,
	})
}

// ByTrip handles GET /v1/trips/:id/availability.
func (h *AvailabilityHandler) ByTrip(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	available, err := h.Trips.AvailableSeats(c.Request().Context(), tripID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"trip_id":         tripID,
		"available_seats": available,
	})
}
