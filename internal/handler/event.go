package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/middleware"
	"github.com/iliyamo/event-seat-booking/internal/service"
)

// EventHandler exposes event creation and the public browse/availability
// endpoints.
type EventHandler struct {
	svc *service.BookingService
}

// NewEventHandler constructs an EventHandler. The service must be non-nil.
func NewEventHandler(svc *service.BookingService) *EventHandler {
	if svc == nil {
		panic("nil service passed to NewEventHandler")
	}
	return &EventHandler{svc: svc}
}

// CreateEvent handles POST /v1/events (admin only, enforced by route
// middleware). The new event starts with every seat available.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var params service.CreateEventParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ev, err := h.svc.CreateEvent(c.Request().Context(), userID, params)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"event": ev})
}

// ListEvents handles GET /v1/events.
func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.svc.ListEvents(c.Request().Context())
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(events), "items": events})
}

// GetEvent handles GET /v1/events/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
	ev, err := h.svc.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event": ev})
}

// GetAvailability handles GET /v1/events/:id/seats. It returns the booked
// seat labels and the derived available count as a read-only snapshot.
func (h *EventHandler) GetAvailability(c echo.Context) error {
	av, err := h.svc.Availability(c.Request().Context(), c.Param("id"))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"availability": av})
}
