package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeatID(t *testing.T) {
	tests := []struct {
		raw     string
		want    SeatID
		wantErr bool
	}{
		{raw: "A-1", want: SeatID{Row: "A", Number: 1}},
		{raw: " j-10 ", want: SeatID{Row: "J", Number: 10}},
		{raw: "AA-3", want: SeatID{Row: "AA", Number: 3}},
		{raw: "A1", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "A-0", wantErr: true},
		{raw: "A--1", wantErr: true},
		{raw: "1-1", wantErr: true},
		{raw: "A-x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseSeatID(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedSeatID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, raw string) SeatID {
	t.Helper()
	id, err := ParseSeatID(raw)
	require.NoError(t, err)
	return id
}

func TestDefaultSeatGridHasUniqueSeats(t *testing.T) {
	grid := DefaultSeatGrid()
	require.Len(t, grid, 100)
	seen := make(map[SeatID]bool, len(grid))
	for _, s := range grid {
		assert.False(t, seen[s.ID()], "duplicate %s", s.ID())
		seen[s.ID()] = true
		assert.Equal(t, SeatAvailable, s.Status)
	}
	assert.Equal(t, "A-1", grid[0].ID().String())
	assert.Equal(t, "J-10", grid[99].ID().String())
	assert.Empty(t, GenerateSeatGrid(0, 10))
}

func TestIndexToRowLabel(t *testing.T) {
	assert.Equal(t, "A", IndexToRowLabel(0))
	assert.Equal(t, "Z", IndexToRowLabel(25))
	assert.Equal(t, "AA", IndexToRowLabel(26))
	assert.Equal(t, "AB", IndexToRowLabel(27))
	assert.Equal(t, "", IndexToRowLabel(-1))
}

func TestBookingTransitions(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		ok       bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCancelled, BookingPending, false},
		{BookingPending, BookingPending, false},
	}
	for _, tt := range tests {
		b := Booking{Status: tt.from}
		assert.Equal(t, tt.ok, b.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestShowIsPastComparesDatesOnly(t *testing.T) {
	show := Show{Date: NewDate(2030, 5, 10), Time: "09:00"}
	morning := time.Date(2030, 5, 10, 23, 30, 0, 0, time.UTC)
	assert.False(t, show.IsPast(morning, time.UTC), "a show today is never past")
	assert.True(t, show.IsPast(morning.Add(time.Hour), time.UTC))
	assert.False(t, show.IsPast(time.Date(2030, 5, 9, 0, 0, 0, 0, time.UTC), time.UTC))

	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	// 20:00 UTC on the 9th is already the 10th in Kolkata.
	assert.False(t, show.IsPast(time.Date(2030, 5, 9, 20, 0, 0, 0, time.UTC), ist))
	assert.True(t, show.IsPast(time.Date(2030, 5, 10, 20, 0, 0, 0, time.UTC), ist))
}

func TestShowStartsAt(t *testing.T) {
	show := Show{Date: NewDate(2030, 5, 10), Time: "18:30"}
	assert.Equal(t, time.Date(2030, 5, 10, 18, 30, 0, 0, time.UTC), show.StartsAt(nil))
	show.Time = "bogus"
	assert.Equal(t, time.Date(2030, 5, 10, 0, 0, 0, 0, time.UTC), show.StartsAt(time.UTC))
}

func TestBookingJSON(t *testing.T) {
	b := Booking{
		BookingID: "BK1",
		Seats:     []BookingSeat{{SeatNumber: "A-1", Price: decimal.NewFromInt(200)}},
		ShowDate:  NewDate(2030, 5, 10),
		ShowTime:  "18:30",
		Status:    BookingConfirmed,
	}
	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"showDate":"2030-05-10"`)
	assert.Contains(t, string(raw), `"seatNumber":"A-1"`)
	assert.Contains(t, string(raw), `"price":"200"`)

	var back Booking
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "2030-05-10", back.ShowDate.String())
}

func TestBookingSeatIDsAndClone(t *testing.T) {
	b := &Booking{Seats: []BookingSeat{{SeatNumber: "A-1"}, {SeatNumber: "junk"}, {SeatNumber: "b-2"}}}
	assert.Equal(t, []SeatID{{Row: "A", Number: 1}, {Row: "B", Number: 2}}, b.SeatIDs())

	c := b.Clone()
	c.Seats[0].SeatNumber = "Z-9"
	assert.Equal(t, "A-1", b.Seats[0].SeatNumber)
}
