package model

import "time"

// Theater is a screening venue.  Every theater owns exactly one seat
// map which is shared by all shows scheduled in it.
//
// Fields:
//
//	ID        – primary key identifier.
//	Name      – display name of the theater.
//	Location  – free-form location shown to customers.
//	CreatedAt – creation timestamp.
type Theater struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"-"`
}

// SeatStatus is the booked state of a physical seat.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatBooked    SeatStatus = "booked"
)

// SeatRecord is one element of a theater's seat map.  Identity is the
// (Row, Number) pair which is unique within a theater.
type SeatRecord struct {
	Row    string     `json:"row"`
	Number int        `json:"number"`
	Status SeatStatus `json:"status"`
}

// ID returns the seat identifier of the record.
func (s SeatRecord) ID() SeatID { return SeatID{Row: s.Row, Number: s.Number} }

// DefaultSeatRows and DefaultSeatsPerRow describe the grid generated for a
// freshly provisioned theater: rows A–J with seats 1–10.
const (
	DefaultSeatRows    = 10
	DefaultSeatsPerRow = 10
)

// GenerateSeatGrid builds a seat map of rows × perRow available seats.
// Rows are labelled A, B, ... Z, AA, AB and so on.
func GenerateSeatGrid(rows, perRow int) []SeatRecord {
	if rows <= 0 || perRow <= 0 {
		return []SeatRecord{}
	}
	grid := make([]SeatRecord, 0, rows*perRow)
	for r := 0; r < rows; r++ {
		label := IndexToRowLabel(r)
		for n := 1; n <= perRow; n++ {
			grid = append(grid, SeatRecord{Row: label, Number: n, Status: SeatAvailable})
		}
	}
	return grid
}

// DefaultSeatGrid returns the 100 seat A-1 … J-10 grid.
func DefaultSeatGrid() []SeatRecord {
	return GenerateSeatGrid(DefaultSeatRows, DefaultSeatsPerRow)
}

// IndexToRowLabel converts a zero-based index to an alphabetical row
// label like A, B, AA.
func IndexToRowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		rem := i % 26
		res = append(res, rune('A'+rem))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}
