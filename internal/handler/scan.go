package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sekoucamara/bus-reservation/internal/service"
)

// ScanHandler is the boarding gate endpoint used by drivers and agents to
// validate tickets at departure.
type ScanHandler struct {
	Svc *service.BoardingService
}

func NewScanHandler(svc *service.BoardingService) *ScanHandler {
	return &ScanHandler{Svc: svc}
}

// Scan handles POST /v1/tickets/:code/scan. The response always describes
// the ticket's state; Success tells the gate whether to let the passenger
// through. An ineligible ticket is a 200 with Success=false, not an error.
func (h *ScanHandler) Scan(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Location *string `json:"location"`
	}
	_ = c.Bind(&body) // location is optional

	result, err := h.Svc.Scan(c.Request().Context(), c.Param("code"), userID, body.Location)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
