package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetShow handles GET /v1/shows/:id.  It is public and returns the show
// with its movie, theater and the theater's seat matrix.
func (h *BookingHandler) GetShow(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "invalid show id")
	}
	detail, err := h.Svc.GetShowDetail(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}
