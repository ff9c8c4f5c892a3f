package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
)

const bookingColumns = `id, booking_id, user_id, show_id, movie_id, theater_id, total_amount,
       status, payment_status, show_date, show_time, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(r rowScanner) (*model.Booking, error) {
	var b model.Booking
	var status, payment string
	if err := r.Scan(
		&b.ID, &b.BookingID, &b.UserID, &b.ShowID, &b.MovieID, &b.TheaterID, &b.TotalAmount,
		&status, &payment, &b.ShowDate.Time, &b.ShowTime, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	b.PaymentStatus = model.PaymentStatus(payment)
	return &b, nil
}

// insertBooking writes the booking row and its seats.  A duplicate
// booking_id is reported as ErrDuplicateBookingID.
func insertBooking(ctx context.Context, q querier, b *model.Booking) error {
	const stmt = `INSERT INTO bookings (booking_id, user_id, show_id, movie_id, theater_id, total_amount,
       status, payment_status, show_date, show_time, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := q.ExecContext(ctx, stmt,
		b.BookingID, b.UserID, b.ShowID, b.MovieID, b.TheaterID, b.TotalAmount,
		string(b.Status), string(b.PaymentStatus), b.ShowDate.Format(model.DateLayout), b.ShowTime,
		b.CreatedAt.UTC(), b.UpdatedAt.UTC(),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateBookingID
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	if len(b.Seats) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO booking_seats (booking_pk, position, seat_number, price) VALUES `)
	args := make([]any, 0, len(b.Seats)*4)
	for i, s := range b.Seats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args, b.ID, i, s.SeatNumber, s.Price)
	}
	if _, err := q.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert booking seats: %w", err)
	}
	return nil
}

func getBooking(ctx context.Context, q querier, bookingID string, lock bool) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = ?`
	if lock {
		query += " FOR UPDATE"
	}
	b, err := scanBooking(q.QueryRowContext(ctx, query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", bookingID, err)
	}
	if err := loadBookingSeats(ctx, q, []*model.Booking{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// listBookings returns bookings matching where, newest first.
func listBookings(ctx context.Context, q querier, where string, args ...any) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if where != "" {
		query += " " + where
	}
	query += " ORDER BY created_at DESC, id DESC"
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	var list []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadBookingSeats(ctx, q, list); err != nil {
		return nil, err
	}
	out := make([]model.Booking, 0, len(list))
	for _, b := range list {
		out = append(out, *b)
	}
	return out, nil
}

// loadBookingSeats fills Seats for every booking with one query.
func loadBookingSeats(ctx context.Context, q querier, bookings []*model.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	byPK := make(map[uint64]*model.Booking, len(bookings))
	args := make([]any, 0, len(bookings))
	for _, b := range bookings {
		b.Seats = []model.BookingSeat{}
		byPK[b.ID] = b
		args = append(args, b.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	rows, err := q.QueryContext(ctx,
		`SELECT booking_pk, seat_number, price FROM booking_seats WHERE booking_pk IN (`+placeholders+`) ORDER BY booking_pk, position`,
		args...)
	if err != nil {
		return fmt.Errorf("load booking seats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pk uint64
		var s model.BookingSeat
		if err := rows.Scan(&pk, &s.SeatNumber, &s.Price); err != nil {
			return err
		}
		if b, ok := byPK[pk]; ok {
			b.Seats = append(b.Seats, s)
		}
	}
	return rows.Err()
}

func updateBookingStatus(ctx context.Context, q querier, b *model.Booking) error {
	const stmt = `UPDATE bookings SET status = ?, payment_status = ?, updated_at = ? WHERE booking_id = ?`
	res, err := q.ExecContext(ctx, stmt, string(b.Status), string(b.PaymentStatus), b.UpdatedAt.UTC(), b.BookingID)
	if err != nil {
		return fmt.Errorf("update booking %s: %w", b.BookingID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrBookingNotFound
	}
	return nil
}
