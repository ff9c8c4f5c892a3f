package handler // handler defines http handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// BookingHandler exposes the booking service over HTTP.  Authentication and
// role checks happen in middleware; the service still enforces ownership.
type BookingHandler struct {
	Svc *service.BookingService
	Log *zap.Logger
}

// NewBookingHandler panics when svc is nil.  A nil logger discards output.
func NewBookingHandler(svc *service.BookingService, log *zap.Logger) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingHandler{Svc: svc, Log: log}
}

// actor builds the service actor from the claims JWTAuth stored.
func actor(c echo.Context) (service.Actor, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{UserID: id, Role: middleware.Role(c)}, true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
}

func invalid(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": string(service.KindValidation), "message": msg})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}
