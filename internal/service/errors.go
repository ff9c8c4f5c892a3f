package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-booking/internal/repository"
)

// Kind classifies an expected failure.  Anything that is not an *Error is
// an internal failure.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindValidation    Kind = "validation_error"
	KindConflict      Kind = "conflict"
	KindPolicy        Kind = "policy_violation"
	KindAuthorization Kind = "forbidden"
)

// Error is a failure the caller can act on.  Message is safe to show to
// end users verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err, if it is an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// translate maps repository errors onto the service taxonomy and leaves
// everything else untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	var seatErr *repository.SeatUnavailableError
	switch {
	case errors.As(err, &seatErr):
		if seatErr.Missing {
			return &Error{Kind: KindConflict, Message: fmt.Sprintf("Seat %s does not exist", seatErr.Seat), Err: err}
		}
		return &Error{Kind: KindConflict, Message: fmt.Sprintf("Seat %s is already booked", seatErr.Seat), Err: err}
	case errors.Is(err, repository.ErrInsufficientSeats):
		return &Error{Kind: KindConflict, Message: "Not enough seats available for this show", Err: err}
	case errors.Is(err, repository.ErrShowNotFound):
		return &Error{Kind: KindNotFound, Message: "Show not found", Err: err}
	case errors.Is(err, repository.ErrBookingNotFound):
		return &Error{Kind: KindNotFound, Message: "Booking not found", Err: err}
	case errors.Is(err, repository.ErrTheaterNotFound):
		return &Error{Kind: KindNotFound, Message: "Theater not found", Err: err}
	case errors.Is(err, repository.ErrForbidden):
		return &Error{Kind: KindAuthorization, Message: "Not allowed", Err: err}
	case errors.Is(err, repository.ErrConflict):
		return &Error{Kind: KindConflict, Message: "The booking changed concurrently, please retry", Err: err}
	}
	return err
}
