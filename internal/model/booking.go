package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// PaymentStatus tracks the (simulated) payment of a booking.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// BookingSeat is one seat held by a booking at the price charged for it.
type BookingSeat struct {
	SeatNumber string          `json:"seatNumber"`
	Price      decimal.Decimal `json:"price"`
}

// Booking is an entry of the booking ledger.  Apart from Status,
// PaymentStatus and UpdatedAt the record never changes after creation.
// ShowDate and ShowTime are copied from the show so the booking stays
// interpretable if the show is edited later.
//
// Fields:
//
//	ID            – internal primary key.
//	BookingID     – public unique reference (e.g. BK1718000000000X7K2P9QA).
//	UserID        – customer who owns the booking.
//	ShowID        – show the seats were booked for.
//	MovieID       – movie of the show at booking time.
//	TheaterID     – theater whose seat map holds the seats.
//	Seats         – seats and the price charged for each.
//	TotalAmount   – sum of seat prices.
//	Status        – pending, confirmed or cancelled.
//	PaymentStatus – pending, completed or failed.
//	ShowDate      – show date captured at creation.
//	ShowTime      – show time captured at creation.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last status change.
type Booking struct {
	ID            uint64          `json:"-"`
	BookingID     string          `json:"bookingId"`
	UserID        uint64          `json:"userId"`
	ShowID        uint64          `json:"showId"`
	MovieID       uint64          `json:"movieId"`
	TheaterID     uint64          `json:"theaterId"`
	Seats         []BookingSeat   `json:"seats"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Status        BookingStatus   `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	ShowDate      Date            `json:"showDate"`
	ShowTime      string          `json:"showTime"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// CanTransition reports whether the booking may move from its current
// status to the given one.  cancelled is terminal.
func (b *Booking) CanTransition(to BookingStatus) bool {
	switch b.Status {
	case BookingPending:
		return to == BookingConfirmed || to == BookingCancelled
	case BookingConfirmed:
		return to == BookingCancelled
	}
	return false
}

// SeatIDs parses the seat numbers held by the booking.  Unparseable
// entries are skipped.
func (b *Booking) SeatIDs() []SeatID {
	ids := make([]SeatID, 0, len(b.Seats))
	for _, s := range b.Seats {
		if id, err := ParseSeatID(s.SeatNumber); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// StartsAt returns the denormalised show start in loc.
func (b *Booking) StartsAt(loc *time.Location) time.Time {
	return CombineDateTime(b.ShowDate.Time, b.ShowTime, loc)
}

// Clone returns a deep copy of the booking.
func (b *Booking) Clone() *Booking {
	c := *b
	c.Seats = append([]BookingSeat(nil), b.Seats...)
	return &c
}
