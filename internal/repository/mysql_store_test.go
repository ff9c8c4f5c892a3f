package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
)

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLStore(db, WithTxTimeout(time.Second)), mock
}

var (
	lockSeatsSQL  = regexp.QuoteMeta(`SELECT row_label, seat_number, status FROM seat_records WHERE theater_id = ? AND ((row_label = ? AND seat_number = ?) OR (row_label = ? AND seat_number = ?)) FOR UPDATE`)
	claimSeatsSQL = regexp.QuoteMeta(`UPDATE seat_records SET status = 'booked', version = version + 1 WHERE theater_id = ? AND status = 'available'`)
)

func TestMySQLClaimSeats(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockSeatsSQL).
		WithArgs(1, "A", 1, "A", 2).
		WillReturnRows(sqlmock.NewRows([]string{"row_label", "seat_number", "status"}).
			AddRow("A", 1, "available").
			AddRow("A", 2, "available"))
	mock.ExpectExec(claimSeatsSQL).
		WithArgs(1, "A", 1, "A", 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := store.RunInTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.ClaimSeats(ctx, 1, []model.SeatID{seat("A", 1), seat("A", 2)})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLClaimSeatsConflictRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockSeatsSQL).
		WithArgs(1, "A", 1, "A", 2).
		WillReturnRows(sqlmock.NewRows([]string{"row_label", "seat_number", "status"}).
			AddRow("A", 1, "available").
			AddRow("A", 2, "booked"))
	mock.ExpectRollback()

	err := store.RunInTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.ClaimSeats(ctx, 1, []model.SeatID{seat("A", 1), seat("A", 2)})
	})
	var unavailable *SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "A-2", unavailable.Seat.String())
	assert.False(t, unavailable.Missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLClaimSeatsMissingSeat(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockSeatsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"row_label", "seat_number", "status"}).
			AddRow("A", 1, "available"))
	mock.ExpectRollback()

	err := store.RunInTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.ClaimSeats(ctx, 1, []model.SeatID{seat("A", 1), seat("K", 1)})
	})
	var unavailable *SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.True(t, unavailable.Missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLDecrementRefusesNegative(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE shows SET available_seats = available_seats - ? WHERE id = ? AND available_seats >= ?`)).
		WithArgs(3, 10, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.RunInTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.DecrementAvailable(ctx, 10, 3)
	})
	assert.ErrorIs(t, err, ErrInsufficientSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLRetriesDeadlock(t *testing.T) {
	store, mock := newMockStore(t)
	incr := regexp.QuoteMeta(`UPDATE shows SET available_seats = available_seats + ?`)

	mock.ExpectBegin()
	mock.ExpectExec(incr).WillReturnError(&mysql.MySQLError{Number: mysqlErrDeadlock, Message: "Deadlock found"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(incr).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	attempts := 0
	err := store.RunInTx(context.Background(), func(ctx context.Context, tx Tx) error {
		attempts++
		return tx.IncrementAvailable(ctx, 10, 2)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLInsertBooking(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	b := &model.Booking{
		BookingID: "BK1", UserID: 7, ShowID: 10, MovieID: 1, TheaterID: 1,
		Seats: []model.BookingSeat{
			{SeatNumber: "A-1", Price: decimal.NewFromInt(200)},
			{SeatNumber: "A-2", Price: decimal.NewFromInt(200)},
		},
		TotalAmount: decimal.NewFromInt(400),
		Status:      model.BookingConfirmed, PaymentStatus: model.PaymentCompleted,
		ShowDate: model.Date{Time: now}, ShowTime: "18:00", CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bookings`)).
		WithArgs("BK1", 7, 10, 1, 1, sqlmock.AnyArg(), "confirmed", "completed", "2030-01-01", "18:00", now, now).
		WillReturnResult(sqlmock.NewResult(55, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO booking_seats (booking_pk, position, seat_number, price) VALUES (?, ?, ?, ?),(?, ?, ?, ?)`)).
		WithArgs(55, 0, "A-1", sqlmock.AnyArg(), 55, 1, "A-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := store.RunInTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.InsertBooking(ctx, b)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(55), b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLInsertBookingDuplicateID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bookings`)).
		WillReturnError(&mysql.MySQLError{Number: mysqlErrDuplicateKey, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := store.RunInTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.InsertBooking(ctx, &model.Booking{BookingID: "BK1"})
	})
	assert.ErrorIs(t, err, ErrDuplicateBookingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLGetShowNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM shows s`)).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetShow(context.Background(), 99)
	assert.ErrorIs(t, err, ErrShowNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLGetShow(t *testing.T) {
	store, mock := newMockStore(t)
	date := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM shows s`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "movie_id", "theater_id", "screen_number", "show_date", "show_time",
			"price", "total_seats", "available_seats", "is_active", "title", "name", "location",
		}).AddRow(10, 1, 2, 3, date, "18:00", "200.00", 100, 98, true, "Arrival", "Downtown", "Main St"))

	d, err := store.GetShow(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Arrival", d.Movie.Title)
	assert.Equal(t, uint64(2), d.Theater.ID)
	assert.True(t, d.Show.Price.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 98, d.Show.AvailableSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLGetBooking(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE booking_id = ?`)).
		WithArgs("BK1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_id", "user_id", "show_id", "movie_id", "theater_id", "total_amount",
			"status", "payment_status", "show_date", "show_time", "created_at", "updated_at",
		}).AddRow(55, "BK1", 7, 10, 1, 1, "400.00", "pending", "pending", now, "18:00", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT booking_pk, seat_number, price FROM booking_seats WHERE booking_pk IN (?)`)).
		WithArgs(55).
		WillReturnRows(sqlmock.NewRows([]string{"booking_pk", "seat_number", "price"}).
			AddRow(55, "A-1", "200.00").
			AddRow(55, "A-2", "200.00"))

	b, err := store.GetBooking(context.Background(), "BK1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
	require.Len(t, b.Seats, 2)
	assert.Equal(t, "A-2", b.Seats[1].SeatNumber)
	assert.True(t, b.TotalAmount.Equal(decimal.NewFromInt(400)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLProvisionSeatMap(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM theaters WHERE id = ? FOR UPDATE`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT IGNORE INTO seat_records`)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	n, err := store.ProvisionSeatMap(context.Background(), 1, model.GenerateSeatGrid(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
