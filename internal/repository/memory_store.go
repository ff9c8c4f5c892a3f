package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// MemoryStore implements Store in process memory.  All access is
// serialised by one mutex; a transaction snapshots the mutable state and
// restores it when fn fails, which gives the same all-or-nothing behaviour
// as the MySQL store.  It backs STORE_DRIVER=memory and the tests.
type MemoryStore struct {
	mu sync.Mutex

	movies   map[uint64]model.Movie
	theaters map[uint64]model.Theater
	seats    map[uint64]map[model.SeatID]model.SeatStatus
	shows    map[uint64]model.Show
	bookings map[string]*model.Booking
	nextPK   uint64

	// failInsert, when set, is consulted before every booking insert.
	failInsert func(b *model.Booking) error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		movies:   map[uint64]model.Movie{},
		theaters: map[uint64]model.Theater{},
		seats:    map[uint64]map[model.SeatID]model.SeatStatus{},
		shows:    map[uint64]model.Show{},
		bookings: map[string]*model.Booking{},
	}
}

// AddMovie registers a movie.
func (s *MemoryStore) AddMovie(m model.Movie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies[m.ID] = m
}

// AddTheater registers a theater without a seat map.
func (s *MemoryStore) AddTheater(t model.Theater) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theaters[t.ID] = t
}

// AddShow registers a show.  The movie and theater must be added first.
func (s *MemoryStore) AddShow(sh model.Show) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shows[sh.ID] = sh
}

// SetInsertHook installs a function consulted before every booking insert;
// a non-nil return aborts the insert with that error.
func (s *MemoryStore) SetInsertHook(fn func(b *model.Booking) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failInsert = fn
}

type memorySnapshot struct {
	seats    map[uint64]map[model.SeatID]model.SeatStatus
	shows    map[uint64]model.Show
	bookings map[string]*model.Booking
	nextPK   uint64
}

func (s *MemoryStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		seats:    make(map[uint64]map[model.SeatID]model.SeatStatus, len(s.seats)),
		shows:    make(map[uint64]model.Show, len(s.shows)),
		bookings: make(map[string]*model.Booking, len(s.bookings)),
		nextPK:   s.nextPK,
	}
	for tid, m := range s.seats {
		cp := make(map[model.SeatID]model.SeatStatus, len(m))
		for k, v := range m {
			cp[k] = v
		}
		snap.seats[tid] = cp
	}
	for id, sh := range s.shows {
		snap.shows[id] = sh
	}
	for id, b := range s.bookings {
		snap.bookings[id] = b.Clone()
	}
	return snap
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.seats = snap.seats
	s.shows = snap.shows
	s.bookings = snap.bookings
	s.nextPK = snap.nextPK
}

// RunInTx implements Store.  fn must not call other MemoryStore methods.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(ctx, &memoryTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *MemoryStore) GetShow(ctx context.Context, showID uint64) (*ShowDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showDetail(showID)
}

func (s *MemoryStore) showDetail(showID uint64) (*ShowDetail, error) {
	sh, ok := s.shows[showID]
	if !ok {
		return nil, ErrShowNotFound
	}
	return &ShowDetail{Show: sh, Movie: s.movies[sh.MovieID], Theater: s.theaters[sh.TheaterID]}, nil
}

func (s *MemoryStore) SeatMap(ctx context.Context, theaterID uint64) ([]model.SeatRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.theaters[theaterID]; !ok {
		return nil, ErrTheaterNotFound
	}
	m := s.seats[theaterID]
	out := make([]model.SeatRecord, 0, len(m))
	for id, st := range m {
		out = append(out, model.SeatRecord{Row: id.Row, Number: id.Number, Status: st})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if len(a.Row) != len(b.Row) {
			return len(a.Row) < len(b.Row)
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Number < b.Number
	})
	return out, nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (s *MemoryStore) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.listBookings(func(b *model.Booking) bool { return b.UserID == userID }), nil
}

func (s *MemoryStore) ListBookingsByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error) {
	return s.listBookings(func(b *model.Booking) bool { return status == "" || b.Status == status }), nil
}

func (s *MemoryStore) listBookings(keep func(*model.Booking) bool) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, *b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *MemoryStore) ProvisionSeatMap(ctx context.Context, theaterID uint64, grid []model.SeatRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.theaters[theaterID]; !ok {
		return 0, ErrTheaterNotFound
	}
	m, ok := s.seats[theaterID]
	if !ok {
		m = make(map[model.SeatID]model.SeatStatus, len(grid))
		s.seats[theaterID] = m
	}
	inserted := 0
	for _, rec := range grid {
		if _, exists := m[rec.ID()]; exists {
			continue
		}
		status := rec.Status
		if status == "" {
			status = model.SeatAvailable
		}
		m[rec.ID()] = status
		inserted++
	}
	return inserted, nil
}

// memoryTx runs with MemoryStore.mu held.
type memoryTx struct {
	s *MemoryStore
}

func (t *memoryTx) ShowForUpdate(ctx context.Context, showID uint64) (*ShowDetail, error) {
	return t.s.showDetail(showID)
}

func (t *memoryTx) ClaimSeats(ctx context.Context, theaterID uint64, seats []model.SeatID) error {
	m := t.s.seats[theaterID]
	for _, id := range seats {
		status, ok := m[id]
		if !ok {
			return &SeatUnavailableError{Seat: id, Missing: true}
		}
		if status != model.SeatAvailable {
			return &SeatUnavailableError{Seat: id}
		}
	}
	for _, id := range seats {
		m[id] = model.SeatBooked
	}
	return nil
}

func (t *memoryTx) ReleaseSeats(ctx context.Context, theaterID uint64, seats []model.SeatID) error {
	m := t.s.seats[theaterID]
	for _, id := range seats {
		if _, ok := m[id]; ok {
			m[id] = model.SeatAvailable
		}
	}
	return nil
}

func (t *memoryTx) DecrementAvailable(ctx context.Context, showID uint64, n int) error {
	if n <= 0 {
		return nil
	}
	sh, ok := t.s.shows[showID]
	if !ok {
		return ErrShowNotFound
	}
	if sh.AvailableSeats < n {
		return ErrInsufficientSeats
	}
	sh.AvailableSeats -= n
	t.s.shows[showID] = sh
	return nil
}

func (t *memoryTx) IncrementAvailable(ctx context.Context, showID uint64, n int) error {
	if n <= 0 {
		return nil
	}
	sh, ok := t.s.shows[showID]
	if !ok {
		return ErrShowNotFound
	}
	if sh.AvailableSeats+n > sh.TotalSeats {
		return ErrCounterOverflow
	}
	sh.AvailableSeats += n
	t.s.shows[showID] = sh
	return nil
}

func (t *memoryTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	if t.s.failInsert != nil {
		if err := t.s.failInsert(b); err != nil {
			return err
		}
	}
	if _, dup := t.s.bookings[b.BookingID]; dup {
		return ErrDuplicateBookingID
	}
	t.s.nextPK++
	b.ID = t.s.nextPK
	t.s.bookings[b.BookingID] = b.Clone()
	return nil
}

func (t *memoryTx) BookingForUpdate(ctx context.Context, bookingID string) (*model.Booking, error) {
	b, ok := t.s.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (t *memoryTx) UpdateBookingStatus(ctx context.Context, b *model.Booking) error {
	cur, ok := t.s.bookings[b.BookingID]
	if !ok {
		return ErrBookingNotFound
	}
	cur.Status = b.Status
	cur.PaymentStatus = b.PaymentStatus
	cur.UpdatedAt = b.UpdatedAt
	return nil
}
