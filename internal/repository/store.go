package repository

import (
	"context"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ShowDetail is a show together with the movie and theater summaries
// shown to customers.
type ShowDetail struct {
	Show    model.Show
	Movie   model.Movie
	Theater model.Theater
}

// Store is the persistence contract of the booking engine.  Reads outside
// RunInTx see committed data only.
type Store interface {
	// RunInTx executes fn inside one transaction.  The transaction commits
	// when fn returns nil and rolls back otherwise.  fn may be invoked more
	// than once when the backend reports a transient lock failure, so it
	// must not have side effects outside tx.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetShow(ctx context.Context, showID uint64) (*ShowDetail, error)
	SeatMap(ctx context.Context, theaterID uint64) ([]model.SeatRecord, error)
	GetBooking(ctx context.Context, bookingID string) (*model.Booking, error)
	ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	// ListBookingsByStatus lists bookings newest first; an empty status
	// lists every booking.
	ListBookingsByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error)
	// ProvisionSeatMap inserts the given grid for a theater, skipping seats
	// that already exist, and returns the number of seats inserted.
	ProvisionSeatMap(ctx context.Context, theaterID uint64, grid []model.SeatRecord) (int, error)
}

// Tx groups the mutations that must commit atomically with a ledger write.
type Tx interface {
	// ShowForUpdate loads a show and locks it until the transaction ends.
	ShowForUpdate(ctx context.Context, showID uint64) (*ShowDetail, error)
	// ClaimSeats marks every seat booked or none of them.  The first
	// unavailable seat is reported as *SeatUnavailableError.
	ClaimSeats(ctx context.Context, theaterID uint64, seats []model.SeatID) error
	// ReleaseSeats marks seats available again.  Seats that are already
	// available are left alone.
	ReleaseSeats(ctx context.Context, theaterID uint64, seats []model.SeatID) error
	DecrementAvailable(ctx context.Context, showID uint64, n int) error
	IncrementAvailable(ctx context.Context, showID uint64, n int) error
	// InsertBooking persists b with its seats and sets b.ID.
	InsertBooking(ctx context.Context, b *model.Booking) error
	// BookingForUpdate loads a booking and locks it until the transaction ends.
	BookingForUpdate(ctx context.Context, bookingID string) (*model.Booking, error)
	// UpdateBookingStatus writes Status, PaymentStatus and UpdatedAt of b.
	UpdateBookingStatus(ctx context.Context, b *model.Booking) error
}
