package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ApproveBooking handles POST /v1/bookings/:id/approve.
func (h *BookingHandler) ApproveBooking(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	b, err := h.Svc.Approve(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Booking approved", "booking": b})
}

// RejectBooking handles POST /v1/bookings/:id/reject.  The seats of a
// rejected booking return to the theater immediately.
func (h *BookingHandler) RejectBooking(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	b, err := h.Svc.Reject(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Booking rejected", "booking": b})
}

// ListAllBookings handles GET /v1/admin/bookings.
func (h *BookingHandler) ListAllBookings(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.Svc.ListAll(c.Request().Context(), a)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": nonNil(list)})
}

// ListPendingBookings handles GET /v1/admin/bookings/pending.
func (h *BookingHandler) ListPendingBookings(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.Svc.ListPending(c.Request().Context(), a)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": nonNil(list)})
}

// ProvisionSeatMap handles POST /v1/admin/theaters/:id/seat-map.  Existing
// seats are left untouched; the response reports how many were created.
func (h *BookingHandler) ProvisionSeatMap(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	theaterID, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "invalid theater id")
	}
	n, err := h.Svc.ProvisionSeatMap(c.Request().Context(), a, theaterID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"theaterId": theaterID, "created": n})
}
