package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout and TimeLayout are the wire formats of Show.Date and Show.Time.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Movie is the catalog summary denormalised into show and booking views.
type Movie struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// Show represents a scheduled screening of a movie in a theater.  It
// carries its own seat counter which is maintained alongside the
// theater's seat map.
//
// Fields:
//
//	ID             – primary key identifier.
//	MovieID        – movie being screened.
//	TheaterID      – theater whose seat map the show uses.
//	ScreenNumber   – screen inside the theater.
//	Date           – calendar date of the screening (time of day ignored).
//	Time           – start time as "HH:MM".
//	Price          – canonical price of one seat.
//	TotalSeats     – capacity of the show.
//	AvailableSeats – seats still bookable; 0 <= AvailableSeats <= TotalSeats.
//	IsActive       – false once the show is withdrawn from sale.
type Show struct {
	ID             uint64          `json:"id"`
	MovieID        uint64          `json:"movieId"`
	TheaterID      uint64          `json:"theaterId"`
	ScreenNumber   int             `json:"screenNumber"`
	Date           Date            `json:"date"`
	Time           string          `json:"time"`
	Price          decimal.Decimal `json:"price"`
	TotalSeats     int             `json:"totalSeats"`
	AvailableSeats int             `json:"availableSeats"`
	IsActive       bool            `json:"isActive"`
}

// StartsAt combines Date and Time in loc.  A Time that cannot be parsed
// yields midnight of the show date.
func (s Show) StartsAt(loc *time.Location) time.Time {
	return CombineDateTime(s.Date.Time, s.Time, loc)
}

// IsPast reports whether the show date is strictly before the calendar
// date of now in loc.  A show scheduled today is never past.
func (s Show) IsPast(now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := s.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Before(calendarDay(now, loc))
}

// CombineDateTime joins a calendar date and an "HH:MM" clock time in loc.
func CombineDateTime(date time.Time, clock string, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	t, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
}

// ParseShowDate parses a DateLayout date.
func ParseShowDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid show date %q: %w", raw, err)
	}
	return t, nil
}

func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
