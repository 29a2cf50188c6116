package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sekoucamara/bus-reservation/internal/model"
	"github.com/sekoucamara/bus-reservation/internal/service"
)

// TripHandler lets operators realize schedules as trips and drive the trip
// state machine.
type TripHandler struct {
	Svc *service.TripService
}

func NewTripHandler(svc *service.TripService) *TripHandler {
	return &TripHandler{Svc: svc}
}

// Create handles POST /v1/trips.
func (h *TripHandler) Create(c echo.Context) error {
	var body struct {
		ScheduleID  uint64 `json:"schedule_id"`
		VehicleID   uint64 `json:"vehicle_id"`
		DriverID    uint64 `json:"driver_id"`
		DepartureAt string `json:"departure_at"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ScheduleID == 0 || body.VehicleID == 0 || body.DriverID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule_id, vehicle_id and driver_id are required"})
	}
	departure, err := time.Parse(time.RFC3339, body.DepartureAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_at must be RFC3339"})
	}

	trip, err := h.Svc.Create(c.Request().Context(), service.CreateTripInput{
		ScheduleID:  body.ScheduleID,
		VehicleID:   body.VehicleID,
		DriverID:    body.DriverID,
		DepartureAt: departure,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, tripView(trip))
}

// UpdateStatus handles PATCH /v1/trips/:id/status. Drivers report location
// alongside transit status updates; the missed-ticket sweep runs after a
// trip enters IN_PROGRESS. Non-admin callers can only update trips that
// belong to their own agency.
func (h *TripHandler) UpdateStatus(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	var body struct {
		Status   string  `json:"status"`
		Location *string `json:"location"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	trip, err := h.Svc.UpdateStatus(c.Request().Context(), tripID, body.Status, body.Location, callerAgencyScope(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, tripView(trip))
}

// Get handles GET /v1/trips/:id.
func (h *TripHandler) Get(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	trip, err := h.Svc.Get(c.Request().Context(), tripID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, tripView(trip))
}

func tripView(trip *model.Trip) echo.Map {
	view := echo.Map{
		"id":           trip.ID,
		"schedule_id":  trip.ScheduleID,
		"agency_id":    trip.AgencyID,
		"vehicle_id":   trip.VehicleID,
		"driver_id":    trip.DriverID,
		"departure_at": trip.DepartureAt.UTC(),
		"status":       trip.Status,
	}
	if trip.CurrentLocation != nil {
		view["current_location"] = *trip.CurrentLocation
	}
	return view
}
