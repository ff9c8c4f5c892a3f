package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
)

type createBookingRequest struct {
	Show  uint64                `json:"show"`
	Seats []service.SeatRequest `json:"seats"`
}

type updateStatusRequest struct {
	Status        model.BookingStatus `json:"status"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
}

// CreateBooking handles POST /v1/bookings.  The body names the show and
// the seats with the price the client expects to pay for each.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return invalid(c, "invalid request body")
	}
	if body.Show == 0 {
		return invalid(c, "show is required")
	}
	if len(body.Seats) == 0 {
		return invalid(c, "seats is required")
	}

	detail, err := h.Svc.CreateBooking(c.Request().Context(), a, body.Show, body.Seats)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, detail)
}

// ListMyBookings handles GET /v1/bookings.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.Svc.ListMyBookings(c.Request().Context(), a)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": nonNil(list)})
}

// GetBooking handles GET /v1/bookings/:id for the owner or an admin.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	detail, err := h.Svc.GetBooking(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// CancelBooking handles PUT /v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	res, err := h.Svc.CancelBooking(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// UpdateStatus handles PUT /v1/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var body updateStatusRequest
	if err := c.Bind(&body); err != nil {
		return invalid(c, "invalid request body")
	}
	b, err := h.Svc.UpdateStatus(c.Request().Context(), a, c.Param("id"), body.Status, body.PaymentStatus)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func nonNil(list []model.Booking) []model.Booking {
	if list == nil {
		return []model.Booking{}
	}
	return list
}
