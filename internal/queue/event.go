// Package queue carries booking events over RabbitMQ: the publisher used by
// the API and the consumer that maintains the booking audit log.
package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// BookingEventsQueue is the durable queue every booking event is routed to.
const BookingEventsQueue = "booking.events"

// EventType names a booking lifecycle change.
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingRejected  EventType = "booking.rejected"
)

// BookingEvent is published after a booking change commits.  It carries
// enough information for consumers to log, notify or feed analytics
// without querying the primary database.
type BookingEvent struct {
	ID            string              `json:"id"`
	Type          EventType           `json:"type"`
	BookingID     string              `json:"booking_id"`
	UserID        uint64              `json:"user_id"`
	ShowID        uint64              `json:"show_id"`
	TheaterID     uint64              `json:"theater_id"`
	MovieTitle    string              `json:"movie_title"`
	Status        model.BookingStatus `json:"status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	Seats         []string            `json:"seats"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	ShowDate      string              `json:"show_date"`
	ShowTime      string              `json:"show_time"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// NewBookingEvent snapshots b into an event with a fresh id.
func NewBookingEvent(typ EventType, b *model.Booking, movieTitle string, at time.Time) BookingEvent {
	seats := make([]string, 0, len(b.Seats))
	for _, s := range b.Seats {
		seats = append(seats, s.SeatNumber)
	}
	return BookingEvent{
		ID:            uuid.NewString(),
		Type:          typ,
		BookingID:     b.BookingID,
		UserID:        b.UserID,
		ShowID:        b.ShowID,
		TheaterID:     b.TheaterID,
		MovieTitle:    movieTitle,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		Seats:         seats,
		TotalAmount:   b.TotalAmount,
		ShowDate:      b.ShowDate.String(),
		ShowTime:      b.ShowTime,
		OccurredAt:    at.UTC(),
	}
}
