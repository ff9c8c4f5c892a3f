// Package repository holds the persistence layer of the booking engine:
// the Store/Tx contracts, the MySQL implementation, an in-memory
// implementation and the Redis seat map cache.  The sentinel errors
// below let the service layer distinguish failure scenarios without
// knowing which store is active.
package repository

import (
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-booking/internal/model"
)

var (
	// ErrShowNotFound indicates that a show was not located.
	ErrShowNotFound = errors.New("show not found")
	// ErrTheaterNotFound indicates that a theater was not located.
	ErrTheaterNotFound = errors.New("theater not found")
	// ErrBookingNotFound indicates that no booking has the requested id.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrForbidden is returned when the caller acts on a resource they
	// do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict signals that an operation cannot proceed because of the
	// current state of the data.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientSeats is returned when a show counter would drop
	// below zero.  It wraps ErrConflict.
	ErrInsufficientSeats = fmt.Errorf("%w: not enough seats available", ErrConflict)
	// ErrCounterOverflow is returned when a show counter would exceed the
	// show's capacity.
	ErrCounterOverflow = errors.New("available seats would exceed capacity")
	// ErrDuplicateBookingID is returned by InsertBooking when the public
	// booking id is already taken.
	ErrDuplicateBookingID = errors.New("duplicate booking id")
)

// SeatUnavailableError reports the first requested seat that could not be
// claimed, either because it is already booked or because it does not
// exist in the theater's seat map.
type SeatUnavailableError struct {
	Seat    model.SeatID
	Missing bool
}

func (e *SeatUnavailableError) Error() string {
	if e.Missing {
		return fmt.Sprintf("seat %s does not exist", e.Seat)
	}
	return fmt.Sprintf("seat %s is already booked", e.Seat)
}

// Unwrap makes errors.Is(err, ErrConflict) hold.
func (e *SeatUnavailableError) Unwrap() error { return ErrConflict }
