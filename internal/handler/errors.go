package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/service"
)

var kindStatus = map[service.Kind]int{
	service.KindNotFound:      http.StatusNotFound,
	service.KindValidation:    http.StatusBadRequest,
	service.KindConflict:      http.StatusConflict,
	service.KindPolicy:        http.StatusBadRequest,
	service.KindAuthorization: http.StatusForbidden,
}

// fail writes err as {"error": kind, "message": text}.  Errors outside the
// service taxonomy are logged and reported as a bare 500.
func (h *BookingHandler) fail(c echo.Context, err error) error {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		if status, ok := kindStatus[svcErr.Kind]; ok {
			return c.JSON(status, echo.Map{"error": string(svcErr.Kind), "message": svcErr.Message})
		}
	}
	h.Log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("route", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "server error"})
}
