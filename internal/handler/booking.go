package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/middleware"
	"github.com/iliyamo/event-seat-booking/internal/repository"
	"github.com/iliyamo/event-seat-booking/internal/service"
)

// BookingHandler exposes the reservation engine over HTTP. JWT
// authentication has already been performed by middleware; methods return
// 401 only when the user ID cannot be extracted from the context.
type BookingHandler struct {
	svc *service.BookingService
}

// NewBookingHandler constructs a BookingHandler. The service must be non-nil.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{svc: svc}
}

// CreateBooking handles POST /v1/bookings. The body carries the event ID
// and the requested seat list. On success it returns 201 with the
// booking; when any seat is already taken it returns 400 naming the
// unavailable seats, with no partial commit.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		EventID string                `json:"event_id"`
		Seats   []service.SeatRequest `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), userID, body.EventID, body.Seats)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": booking})
}

// ListBookings handles GET /v1/bookings. Customers see their own
// bookings; admins see every booking in the ledger.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.svc.ListBookings(c.Request().Context(), userID, middleware.Role(c))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(bookings), "items": bookings})
}

// GetBooking handles GET /v1/bookings/:id with the same ownership check
// as cancellation: owner or admin.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	booking, err := h.svc.GetBooking(c.Request().Context(), userID, middleware.Role(c), c.Param("id"))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": booking})
}

// CancelBooking handles PUT /v1/bookings/:id/cancel. It returns 200 with
// the updated booking, 404 when unknown, 403 when the caller is neither
// owner nor admin, and 400 when the booking was already cancelled.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	booking, err := h.svc.CancelBooking(c.Request().Context(), userID, middleware.Role(c), c.Param("id"))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": booking})
}

// Stats handles GET /v1/bookings/stats/dashboard (admin only, enforced by
// route middleware).
func (h *BookingHandler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stats": stats})
}

// bookingError translates engine errors into HTTP responses. Seat
// conflicts list the unavailable seat identifiers so the caller can
// render an actionable message; unexpected errors stay generic.
func bookingError(c echo.Context, err error) error {
	if su, ok := repository.AsSeatsUnavailable(err); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":       "some seats are unavailable",
			"unavailable": su.Seats,
		})
	}
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrAlreadyCancelled):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking already cancelled"})
	case errors.Is(err, repository.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrStoreUnavailable):
		c.Logger().Errorf("store unavailable: %v", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store temporarily unavailable"})
	default:
		c.Logger().Errorf("unexpected error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
