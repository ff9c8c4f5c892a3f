package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// seatPredicate renders "(row_label = ? AND seat_number = ?) OR ..." for
// the given seats together with its arguments.
func seatPredicate(seats []model.SeatID) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(seats)*2)
	for i, s := range seats {
		if i > 0 {
			b.WriteString(" OR ")
		}
		b.WriteString("(row_label = ? AND seat_number = ?)")
		args = append(args, s.Row, s.Number)
	}
	return b.String(), args
}

func theaterExists(ctx context.Context, q querier, theaterID uint64, lock bool) error {
	query := `SELECT id FROM theaters WHERE id = ?`
	if lock {
		query += " FOR UPDATE"
	}
	var id uint64
	err := q.QueryRowContext(ctx, query, theaterID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTheaterNotFound
	}
	if err != nil {
		return fmt.Errorf("load theater %d: %w", theaterID, err)
	}
	return nil
}

// seatMap returns the seat map of a theater ordered by row then number.
func seatMap(ctx context.Context, q querier, theaterID uint64) ([]model.SeatRecord, error) {
	const query = `SELECT row_label, seat_number, status FROM seat_records
WHERE theater_id = ?
ORDER BY CHAR_LENGTH(row_label), row_label, seat_number`
	rows, err := q.QueryContext(ctx, query, theaterID)
	if err != nil {
		return nil, fmt.Errorf("load seat map %d: %w", theaterID, err)
	}
	defer rows.Close()

	seats := make([]model.SeatRecord, 0, model.DefaultSeatRows*model.DefaultSeatsPerRow)
	for rows.Next() {
		var rec model.SeatRecord
		var status string
		if err := rows.Scan(&rec.Row, &rec.Number, &status); err != nil {
			return nil, err
		}
		rec.Status = model.SeatStatus(status)
		seats = append(seats, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		if err := theaterExists(ctx, q, theaterID, false); err != nil {
			return nil, err
		}
	}
	return seats, nil
}

// claimSeats locks the requested seats, verifies that each exists and is
// available, then books all of them with a conditional update.  The
// caller's transaction is expected to roll back on error so a failed claim
// never leaves a seat mutated.  seats must not contain duplicates.
func claimSeats(ctx context.Context, q querier, theaterID uint64, seats []model.SeatID) error {
	if len(seats) == 0 {
		return nil
	}
	cond, condArgs := seatPredicate(seats)
	args := append([]any{theaterID}, condArgs...)

	rows, err := q.QueryContext(ctx,
		`SELECT row_label, seat_number, status FROM seat_records WHERE theater_id = ? AND (`+cond+`) FOR UPDATE`,
		args...)
	if err != nil {
		return fmt.Errorf("lock seats: %w", err)
	}
	current := make(map[model.SeatID]model.SeatStatus, len(seats))
	for rows.Next() {
		var id model.SeatID
		var status string
		if err := rows.Scan(&id.Row, &id.Number, &status); err != nil {
			rows.Close()
			return err
		}
		current[id] = model.SeatStatus(status)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, s := range seats {
		status, ok := current[s]
		if !ok {
			return &SeatUnavailableError{Seat: s, Missing: true}
		}
		if status != model.SeatAvailable {
			return &SeatUnavailableError{Seat: s}
		}
	}

	res, err := q.ExecContext(ctx,
		`UPDATE seat_records SET status = 'booked', version = version + 1 WHERE theater_id = ? AND status = 'available' AND (`+cond+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("claim seats: %w", err)
	}
	if affected, _ := res.RowsAffected(); int(affected) != len(seats) {
		return fmt.Errorf("%w: claimed %d of %d seats", ErrConflict, affected, len(seats))
	}
	return nil
}

// releaseSeats makes booked seats available again.
func releaseSeats(ctx context.Context, q querier, theaterID uint64, seats []model.SeatID) error {
	if len(seats) == 0 {
		return nil
	}
	cond, condArgs := seatPredicate(seats)
	args := append([]any{theaterID}, condArgs...)
	_, err := q.ExecContext(ctx,
		`UPDATE seat_records SET status = 'available', version = version + 1 WHERE theater_id = ? AND status = 'booked' AND (`+cond+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("release seats: %w", err)
	}
	return nil
}

// provisionSeats inserts the grid for a theater, ignoring seats that
// already exist.  The unique key on (theater_id, row_label, seat_number)
// guarantees the map never holds duplicates.
func provisionSeats(ctx context.Context, q querier, theaterID uint64, grid []model.SeatRecord) (int, error) {
	if err := theaterExists(ctx, q, theaterID, true); err != nil {
		return 0, err
	}
	if len(grid) == 0 {
		return 0, nil
	}
	var b strings.Builder
	b.WriteString(`INSERT IGNORE INTO seat_records (theater_id, row_label, seat_number, status) VALUES `)
	args := make([]any, 0, len(grid)*4)
	for i, s := range grid {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?)")
		status := s.Status
		if status == "" {
			status = model.SeatAvailable
		}
		args = append(args, theaterID, s.Row, s.Number, string(status))
	}
	res, err := q.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("provision seats: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
