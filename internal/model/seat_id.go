package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedSeatID is returned by ParseSeatID for identifiers that are
// not of the form "{row}-{number}".
var ErrMalformedSeatID = errors.New("malformed seat id")

// SeatID identifies a seat within a theater's seat map.
type SeatID struct {
	Row    string
	Number int
}

// String renders the identifier in its wire form, e.g. "A-1".
func (s SeatID) String() string { return s.Row + "-" + strconv.Itoa(s.Number) }

// ParseSeatID parses "{row}-{number}".  The row must consist of ASCII
// letters and is upper-cased; the number must be a positive integer.
func ParseSeatID(raw string) (SeatID, error) {
	row, num, ok := strings.Cut(strings.TrimSpace(raw), "-")
	if !ok {
		return SeatID{}, fmt.Errorf("%w: %q", ErrMalformedSeatID, raw)
	}
	row = strings.ToUpper(strings.TrimSpace(row))
	if row == "" {
		return SeatID{}, fmt.Errorf("%w: %q", ErrMalformedSeatID, raw)
	}
	for i := 0; i < len(row); i++ {
		if row[i] < 'A' || row[i] > 'Z' {
			return SeatID{}, fmt.Errorf("%w: %q", ErrMalformedSeatID, raw)
		}
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || n <= 0 {
		return SeatID{}, fmt.Errorf("%w: %q", ErrMalformedSeatID, raw)
	}
	return SeatID{Row: row, Number: n}, nil
}
