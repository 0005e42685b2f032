// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/handler"
	"github.com/iliyamo/event-seat-booking/internal/middleware"
	"github.com/iliyamo/event-seat-booking/internal/service"
)

// Register mounts every route of the service on the provided Echo
// instance. Public browse endpoints require no authentication; booking
// operations require a valid access token; event creation and the stats
// dashboard additionally require the admin role.
func Register(e *echo.Echo, bookings *handler.BookingHandler, events *handler.EventHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	// Public browse endpoints; guests can inspect events and seat
	// availability before authenticating.
	pub := e.Group("/v1")
	if limiter != nil {
		pub.Use(limiter)
	}
	pub.GET("/events", events.ListEvents)
	pub.GET("/events/:id", events.GetEvent)
	pub.GET("/events/:id/seats", events.GetAvailability)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	if limiter != nil {
		auth.Use(limiter)
	}

	auth.POST("/bookings", bookings.CreateBooking)
	auth.GET("/bookings", bookings.ListBookings)
	// Static segments take precedence over :id, so "stats" is never
	// treated as a booking ID.
	auth.GET("/bookings/stats/dashboard", bookings.Stats, middleware.RequireRole(service.RoleAdmin))
	auth.GET("/bookings/:id", bookings.GetBooking)
	auth.PUT("/bookings/:id/cancel", bookings.CancelBooking)

	auth.POST("/events", events.CreateEvent, middleware.RequireRole(service.RoleAdmin))
}
