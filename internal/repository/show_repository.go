package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const showDetailQuery = `SELECT s.id, s.movie_id, s.theater_id, s.screen_number, s.show_date, s.show_time,
       s.price, s.total_seats, s.available_seats, s.is_active,
       m.title, t.name, t.location
FROM shows s
JOIN movies m ON m.id = s.movie_id
JOIN theaters t ON t.id = s.theater_id
WHERE s.id = ?`

// getShow loads a show with its movie and theater.  With lock set the show
// and theater rows stay locked until the transaction ends; locking the
// theater serialises claims on its seat map across all of its shows.
func getShow(ctx context.Context, q querier, showID uint64, lock bool) (*ShowDetail, error) {
	query := showDetailQuery
	if lock {
		query += " FOR UPDATE OF s, t"
	}
	var d ShowDetail
	err := q.QueryRowContext(ctx, query, showID).Scan(
		&d.Show.ID, &d.Show.MovieID, &d.Show.TheaterID, &d.Show.ScreenNumber, &d.Show.Date.Time, &d.Show.Time,
		&d.Show.Price, &d.Show.TotalSeats, &d.Show.AvailableSeats, &d.Show.IsActive,
		&d.Movie.Title, &d.Theater.Name, &d.Theater.Location,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load show %d: %w", showID, err)
	}
	d.Movie.ID = d.Show.MovieID
	d.Theater.ID = d.Show.TheaterID
	return &d, nil
}

// decrementAvailable lowers the show counter by n, refusing to go below zero.
func decrementAvailable(ctx context.Context, q querier, showID uint64, n int) error {
	if n <= 0 {
		return nil
	}
	const stmt = `UPDATE shows SET available_seats = available_seats - ? WHERE id = ? AND available_seats >= ?`
	res, err := q.ExecContext(ctx, stmt, n, showID, n)
	if err != nil {
		return fmt.Errorf("decrement show %d: %w", showID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrInsufficientSeats
	}
	return nil
}

// incrementAvailable raises the show counter by n, refusing to exceed
// total_seats.
func incrementAvailable(ctx context.Context, q querier, showID uint64, n int) error {
	if n <= 0 {
		return nil
	}
	const stmt = `UPDATE shows SET available_seats = available_seats + ? WHERE id = ? AND available_seats + ? <= total_seats`
	res, err := q.ExecContext(ctx, stmt, n, showID, n)
	if err != nil {
		return fmt.Errorf("increment show %d: %w", showID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrCounterOverflow
	}
	return nil
}
