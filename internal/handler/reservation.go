package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sekoucamara/bus-reservation/internal/model"
	"github.com/sekoucamara/bus-reservation/internal/service"
)

// ReservationHandler exposes the reservation lifecycle over HTTP. All
// business rules live in the service; the handler binds requests, resolves
// the caller and shapes responses.
type ReservationHandler struct {
	Svc *service.ReservationService
}

func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Svc: svc}
}

// travelDateLayout is the wire format for travel dates. Travel dates are
// calendar days, not instants, so no timezone is carried.
const travelDateLayout = "2006-01-02"

// Create handles POST /v1/reservations. The booking starts PENDING with an
// expiry deadline; capacity is checked under trip row locks before the row
// is written.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ScheduleID uint64 `json:"schedule_id"`
		TravelDate string `json:"travel_date"`
		Seats      int    `json:"seats"`
		Notes      string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ScheduleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule_id is required"})
	}
	travelDate, err := time.Parse(travelDateLayout, body.TravelDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "travel_date must be YYYY-MM-DD"})
	}

	res, err := h.Svc.Create(c.Request().Context(), service.CreateReservationInput{
		BuyerID:    userID,
		ScheduleID: body.ScheduleID,
		TravelDate: travelDate,
		Seats:      body.Seats,
		Notes:      body.Notes,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, reservationView(res, nil))
}

// Confirm handles POST /v1/reservations/:code/confirm. Passenger details
// are optional; seats without one get a placeholder manifest entry.
// Confirming an already confirmed or paid booking is idempotent and
// returns the existing ticket codes.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	code := c.Param("code")
	var body struct {
		Passengers []service.PassengerInput `json:"passengers"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, ticketCodes, err := h.Svc.Confirm(c.Request().Context(), code, body.Passengers)
	if err != nil {
		return serviceError(c, err)
	}
	// A repeated confirm of a PAID booking reports PAID, not CONFIRMED.
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_code": res.Code,
		"status":           res.Status,
		"ticket_codes":     ticketCodes,
	})
}

// Cancel handles POST /v1/reservations/:code/cancel.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	code := c.Param("code")
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&body) // reason is optional

	if err := h.Svc.Cancel(c.Request().Context(), code, body.Reason); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_code": code,
		"status":           model.ReservationCancelled,
	})
}

// Get handles GET /v1/reservations/:code.
func (h *ReservationHandler) Get(c echo.Context) error {
	res, tickets, err := h.Svc.Get(c.Request().Context(), c.Param("code"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, reservationView(res, tickets))
}

func reservationView(res *model.Reservation, tickets []model.Ticket) echo.Map {
	view := echo.Map{
		"code":              res.Code,
		"schedule_id":       res.ScheduleID,
		"travel_date":       res.TravelDate.Format(travelDateLayout),
		"seat_count":        res.SeatCount,
		"total_price_cents": res.TotalPriceCents,
		"status":            res.Status,
	}
	if res.ExpiresAt != nil {
		view["expires_at"] = res.ExpiresAt.UTC()
	}
	if tickets != nil {
		tv := make([]echo.Map, 0, len(tickets))
		for i := range tickets {
			t := &tickets[i]
			tv = append(tv, echo.Map{
				"code":           t.Code,
				"passenger_name": t.PassengerName,
				"status":         t.Status,
				"trip_id":        t.TripID,
			})
		}
		view["tickets"] = tv
	}
	return view
}
