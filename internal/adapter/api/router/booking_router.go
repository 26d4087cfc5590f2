package router

import (
	"github.com/labstack/echo/v4"

	"localxplore/internal/adapter/api/handler"
	"localxplore/internal/adapter/api/middleware"
)

// SetupBookingRouter sets up all booking-related routes
func SetupBookingRouter(e *echo.Echo, bookingHandler *handler.BookingHandler, authMiddleware *middleware.AuthMiddleware) {
	bookingGroup := e.Group("/v1/bookings")
	bookingGroup.Use(authMiddleware.Authenticate)

	bookingGroup.POST("", bookingHandler.CreateBooking)       // POST /v1/bookings - Book spots on an experience
	bookingGroup.GET("", bookingHandler.ListMyBookings)       // GET /v1/bookings - List own bookings
	bookingGroup.DELETE("/:id", bookingHandler.CancelBooking) // DELETE /v1/bookings/:id - Cancel a booking

	// Availability is public; no auth needed to browse open spots
	e.GET("/v1/experiences/:id/availability", bookingHandler.GetAvailability)
}
