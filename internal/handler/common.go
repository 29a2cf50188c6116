package handler // HTTP handlers for the booking platform

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sekoucamara/bus-reservation/internal/model"
	"github.com/sekoucamara/bus-reservation/internal/repository"
	"github.com/sekoucamara/bus-reservation/internal/service"
)

// getUserID extracts the authenticated staff user's id from the context.
// The JWT middleware stores claims as parsed JSON, so numbers arrive as
// float64 and string subjects must be parsed.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("no user id in context")
}

// callerAgencyScope returns the agency id the caller is restricted to, or 0
// when the caller is an admin and operates across agencies.
func callerAgencyScope(c echo.Context) uint64 {
	if role, _ := c.Get("role").(string); role == model.RoleAdmin {
		return 0
	}
	switch t := c.Get("agency_id").(type) {
	case uint64:
		return t
	case float64:
		return uint64(t)
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// serviceError maps domain and repository errors onto HTTP responses so
// every handler reports failures the same way.
func serviceError(c echo.Context, err error) error {
	var capErr *model.CapacityExceededError
	if errors.As(err, &capErr) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":     "capacity_exceeded",
			"requested": capErr.Requested,
			"available": capErr.Available,
		})
	}
	var seatErr *model.SeatLimitError
	if errors.As(err, &seatErr) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":     "seat_limit",
			"requested": seatErr.Requested,
			"max":       seatErr.Max,
		})
	}
	var transErr *model.InvalidTransitionError
	if errors.As(err, &transErr) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":  "invalid_transition",
			"entity": transErr.Entity,
			"from":   transErr.From,
			"to":     transErr.To,
		})
	}
	switch {
	case errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrTicketNotFound),
		errors.Is(err, repository.ErrTripNotFound),
		errors.Is(err, repository.ErrScheduleNotFound),
		errors.Is(err, repository.ErrPaymentNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, service.ErrAgencyMismatch),
		errors.Is(err, service.ErrFleetInactive):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
