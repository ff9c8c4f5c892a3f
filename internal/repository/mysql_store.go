package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// MySQL server error numbers the store reacts to.
const (
	mysqlErrDuplicateKey    = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// querier is satisfied by both *sql.DB and *sql.Tx so that read helpers
// can run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MySQLStore implements Store on top of database/sql and the MySQL driver.
// Bookings for one show serialise on the show row lock; seats are claimed
// with a conditional update so a seat can never be booked twice.
type MySQLStore struct {
	db          *sql.DB
	txTimeout   time.Duration
	maxAttempts int
	log         *zap.Logger
}

// MySQLOption customises a MySQLStore.
type MySQLOption func(*MySQLStore)

// WithTxTimeout bounds every transaction attempt.
func WithTxTimeout(d time.Duration) MySQLOption {
	return func(s *MySQLStore) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

// WithLockRetries sets how many times a transaction is attempted when
// MySQL reports a deadlock or lock wait timeout.
func WithLockRetries(n int) MySQLOption {
	return func(s *MySQLStore) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithLogger attaches a logger used for retry diagnostics.
func WithLogger(l *zap.Logger) MySQLOption {
	return func(s *MySQLStore) {
		if l != nil {
			s.log = l
		}
	}
}

// NewMySQLStore returns a store bound to db.
func NewMySQLStore(db *sql.DB, opts ...MySQLOption) *MySQLStore {
	s := &MySQLStore{db: db, txTimeout: 5 * time.Second, maxAttempts: 3, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DB exposes the underlying handle for migrations and health checks.
func (s *MySQLStore) DB() *sql.DB { return s.db }

// RunInTx implements Store.
func (s *MySQLStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &mysqlTx{tx: tx})
	})
}

// withTx runs fn in a READ COMMITTED transaction, retrying a bounded number
// of times on deadlocks and lock wait timeouts.
func (s *MySQLStore) withTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.runOnce(ctx, fn)
		if err == nil || !isRetryableLockError(err) {
			return err
		}
		s.log.Warn("retrying transaction after lock failure", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 20 * time.Millisecond):
		}
	}
	return err
}

func (s *MySQLStore) runOnce(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func (s *MySQLStore) GetShow(ctx context.Context, showID uint64) (*ShowDetail, error) {
	return getShow(ctx, s.db, showID, false)
}

func (s *MySQLStore) SeatMap(ctx context.Context, theaterID uint64) ([]model.SeatRecord, error) {
	return seatMap(ctx, s.db, theaterID)
}

func (s *MySQLStore) GetBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	return getBooking(ctx, s.db, bookingID, false)
}

func (s *MySQLStore) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return listBookings(ctx, s.db, "WHERE user_id = ?", userID)
}

func (s *MySQLStore) ListBookingsByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error) {
	if status == "" {
		return listBookings(ctx, s.db, "")
	}
	return listBookings(ctx, s.db, "WHERE status = ?", string(status))
}

func (s *MySQLStore) ProvisionSeatMap(ctx context.Context, theaterID uint64, grid []model.SeatRecord) (int, error) {
	var inserted int
	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		n, err := provisionSeats(ctx, tx, theaterID, grid)
		inserted = n
		return err
	})
	return inserted, err
}

// mysqlTx implements Tx on a *sql.Tx.
type mysqlTx struct {
	tx *sql.Tx
}

func (t *mysqlTx) ShowForUpdate(ctx context.Context, showID uint64) (*ShowDetail, error) {
	return getShow(ctx, t.tx, showID, true)
}

func (t *mysqlTx) ClaimSeats(ctx context.Context, theaterID uint64, seats []model.SeatID) error {
	return claimSeats(ctx, t.tx, theaterID, seats)
}

func (t *mysqlTx) ReleaseSeats(ctx context.Context, theaterID uint64, seats []model.SeatID) error {
	return releaseSeats(ctx, t.tx, theaterID, seats)
}

func (t *mysqlTx) DecrementAvailable(ctx context.Context, showID uint64, n int) error {
	return decrementAvailable(ctx, t.tx, showID, n)
}

func (t *mysqlTx) IncrementAvailable(ctx context.Context, showID uint64, n int) error {
	return incrementAvailable(ctx, t.tx, showID, n)
}

func (t *mysqlTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	return insertBooking(ctx, t.tx, b)
}

func (t *mysqlTx) BookingForUpdate(ctx context.Context, bookingID string) (*model.Booking, error) {
	return getBooking(ctx, t.tx, bookingID, true)
}

func (t *mysqlTx) UpdateBookingStatus(ctx context.Context, b *model.Booking) error {
	return updateBookingStatus(ctx, t.tx, b)
}

func mysqlErrorNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isRetryableLockError(err error) bool {
	switch mysqlErrorNumber(err) {
	case mysqlErrDeadlock, mysqlErrLockWaitTimeout:
		return true
	}
	return false
}

func isDuplicateKey(err error) bool { return mysqlErrorNumber(err) == mysqlErrDuplicateKey }
