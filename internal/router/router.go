package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
)

// Deps carries everything the routes need.  RateLimit may be nil, in
// which case booking creation is not limited.
type Deps struct {
	Bookings  *handler.BookingHandler
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Health    map[string]handler.Pinger
	Log       *zap.Logger
}

// New builds the Echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e, d.Health)
	RegisterPublic(e, d.Bookings)
	RegisterCustomer(e, d.Bookings, d.JWTSecret, d.RateLimit)
	RegisterAdmin(e, d.Bookings, d.JWTSecret)
	return e
}

// RegisterRoutes registers the operational endpoints: the health check and
// the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, health map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health(health))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers unauthenticated endpoints.  Guests can look at a
// show and its seat matrix before signing in.
func RegisterPublic(e *echo.Echo, h *handler.BookingHandler) {
	e.GET("/v1/shows/:id", h.GetShow)
}
