package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// RegisterCustomer registers the booking endpoints under /v1/bookings.
// Customers and admins may book; ownership of a booking is checked by the
// service.  Only booking creation passes through the rate limiter.
func RegisterCustomer(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/bookings",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleCustomer, utils.RoleAdmin),
	)

	create := []echo.MiddlewareFunc{}
	if limiter != nil {
		create = append(create, limiter)
	}
	g.POST("", h.CreateBooking, create...)
	g.GET("", h.ListMyBookings)
	g.GET("/:id", h.GetBooking)
	g.PUT("/:id/cancel", h.CancelBooking)
	g.PUT("/:id/status", h.UpdateStatus)

	// Adjudication lives next to the booking it acts on but needs ADMIN.
	adminOnly := middleware.RequireRole(utils.RoleAdmin)
	g.POST("/:id/approve", h.ApproveBooking, adminOnly)
	g.POST("/:id/reject", h.RejectBooking, adminOnly)
}
