// Package service implements the booking engine: seat claiming, the
// booking ledger lifecycle, cancellation and admin adjudication.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/metrics"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint64
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == utils.RoleAdmin }

// SeatMaps reads theater seat maps, typically through a cache, and is told
// when a seat map changed.
type SeatMaps interface {
	SeatMap(ctx context.Context, theaterID uint64) ([]model.SeatRecord, error)
	Invalidate(ctx context.Context, theaterID uint64)
}

// EventPublisher delivers booking events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Options tune the booking rules.
type Options struct {
	// RequireApproval keeps new bookings pending until an admin approves
	// or rejects them.  Otherwise bookings are confirmed on creation.
	RequireApproval bool
	// CancellationWindow is the minimum lead time before the show for a
	// customer cancellation.
	CancellationWindow time.Duration
	// Location is the zone show dates and times are interpreted in.
	Location *time.Location
	// BookingIDAttempts bounds inserts retried on a booking id collision.
	BookingIDAttempts int
	// MaxSeatsPerBooking caps one request.  Zero means DefaultMaxSeatsPerBooking.
	MaxSeatsPerBooking int

	Now   func() time.Time
	NewID func(time.Time) (string, error)
}

// DefaultMaxSeatsPerBooking matches one row of the default seat grid.
const DefaultMaxSeatsPerBooking = 10

// SeatRequest is one requested seat with the price the client expects
// to pay for it.
type SeatRequest struct {
	SeatNumber string           `json:"seatNumber"`
	Price      *decimal.Decimal `json:"price"`
}

// ShowSummary is the part of a show denormalised into booking views.
type ShowSummary struct {
	ID           uint64          `json:"id"`
	Date         model.Date      `json:"date"`
	Time         string          `json:"time"`
	ScreenNumber int             `json:"screenNumber"`
	Price        decimal.Decimal `json:"price"`
}

// BookingDetail is a booking populated with movie, theater and show
// summaries.
type BookingDetail struct {
	model.Booking
	Movie   model.Movie   `json:"movie"`
	Theater model.Theater `json:"theater"`
	Show    ShowSummary   `json:"show"`
}

// ShowDetail is a show with its summaries and the current seat map of its
// theater.
type ShowDetail struct {
	model.Show
	Movie      model.Movie        `json:"movie"`
	Theater    model.Theater      `json:"theater"`
	SeatMatrix []model.SeatRecord `json:"seatMatrix"`
}

// CancelResult is returned by CancelBooking.
type CancelResult struct {
	Message string         `json:"message"`
	Booking *model.Booking `json:"booking"`
}

// BookingService coordinates the Store, the seat map cache and the event
// publisher.  All seat and counter mutations happen inside one store
// transaction together with the ledger write they belong to.
type BookingService struct {
	store    repository.Store
	seatMaps SeatMaps
	events   EventPublisher
	log      *zap.Logger

	requireApproval bool
	window          time.Duration
	loc             *time.Location
	idAttempts      int
	maxSeats        int
	now             func() time.Time
	newID           func(time.Time) (string, error)
}

// NewBookingService wires a service.  seatMaps and events may be nil.
func NewBookingService(store repository.Store, seatMaps SeatMaps, events EventPublisher, log *zap.Logger, opts Options) *BookingService {
	if seatMaps == nil {
		seatMaps = storeSeatMaps{store: store}
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &BookingService{
		store:           store,
		seatMaps:        seatMaps,
		events:          events,
		log:             log,
		requireApproval: opts.RequireApproval,
		window:          opts.CancellationWindow,
		loc:             opts.Location,
		idAttempts:      opts.BookingIDAttempts,
		maxSeats:        opts.MaxSeatsPerBooking,
		now:             opts.Now,
		newID:           opts.NewID,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.idAttempts < 1 {
		s.idAttempts = 5
	}
	if s.maxSeats < 1 {
		s.maxSeats = DefaultMaxSeatsPerBooking
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = utils.NewBookingID
	}
	return s
}

type storeSeatMaps struct{ store repository.Store }

func (m storeSeatMaps) SeatMap(ctx context.Context, theaterID uint64) ([]model.SeatRecord, error) {
	return m.store.SeatMap(ctx, theaterID)
}

func (storeSeatMaps) Invalidate(context.Context, uint64) {}

// GetShowDetail returns a show with the seat map of its theater.
func (s *BookingService) GetShowDetail(ctx context.Context, showID uint64) (*ShowDetail, error) {
	sd, err := s.store.GetShow(ctx, showID)
	if err != nil {
		return nil, translate(err)
	}
	seats, err := s.seatMaps.SeatMap(ctx, sd.Show.TheaterID)
	if err != nil {
		return nil, translate(err)
	}
	return &ShowDetail{Show: sd.Show, Movie: sd.Movie, Theater: sd.Theater, SeatMatrix: seats}, nil
}

// CreateBooking validates the request, claims the seats, lowers the show
// counter and writes the ledger entry in one transaction.  Nothing is
// mutated when any step fails.
func (s *BookingService) CreateBooking(ctx context.Context, actor Actor, showID uint64, seats []SeatRequest) (*BookingDetail, error) {
	if actor.UserID == 0 {
		return nil, newError(KindAuthorization, "Authentication required")
	}
	if showID == 0 {
		return nil, newError(KindValidation, "Show is required")
	}
	ids, err := parseSeatRequests(seats, s.maxSeats)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		id, err := s.newID(s.now())
		if err != nil {
			return nil, fmt.Errorf("generate booking id: %w", err)
		}
		detail, err := s.createOnce(ctx, actor, showID, ids, seats, id)
		if errors.Is(err, repository.ErrDuplicateBookingID) {
			metrics.BookingIDCollision()
			if attempt < s.idAttempts {
				s.log.Warn("booking id collision, retrying", zap.String("booking_id", id), zap.Int("attempt", attempt))
				continue
			}
			return nil, fmt.Errorf("no unique booking id after %d attempts: %w", attempt, err)
		}
		if err != nil {
			var seatErr *repository.SeatUnavailableError
			if errors.As(err, &seatErr) || errors.Is(err, repository.ErrInsufficientSeats) {
				metrics.SeatConflict()
			}
			return nil, translate(err)
		}

		s.invalidate(ctx, detail.TheaterID)
		metrics.BookingCreated(string(detail.Status))
		s.publish(ctx, queue.EventBookingCreated, &detail.Booking, detail.Movie.Title)
		s.log.Info("booking created",
			zap.String("booking_id", detail.BookingID),
			zap.Uint64("user_id", actor.UserID),
			zap.Uint64("show_id", showID),
			zap.Int("seats", len(detail.Seats)),
			zap.String("status", string(detail.Status)))
		return detail, nil
	}
}

func (s *BookingService) createOnce(ctx context.Context, actor Actor, showID uint64, ids []model.SeatID, seats []SeatRequest, bookingID string) (*BookingDetail, error) {
	now := s.now()
	var out *BookingDetail
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		sd, err := tx.ShowForUpdate(ctx, showID)
		if err != nil {
			return err
		}
		show := sd.Show
		if show.IsPast(now, s.loc) {
			return newError(KindPolicy, "Cannot book past shows")
		}
		if !show.IsActive {
			return newError(KindPolicy, "Show is not open for booking")
		}
		priced, total, err := priceSeats(show.Price, ids, seats)
		if err != nil {
			return err
		}
		if err := tx.ClaimSeats(ctx, show.TheaterID, ids); err != nil {
			return err
		}
		if err := tx.DecrementAvailable(ctx, show.ID, len(ids)); err != nil {
			return err
		}

		b := &model.Booking{
			BookingID:     bookingID,
			UserID:        actor.UserID,
			ShowID:        show.ID,
			MovieID:       show.MovieID,
			TheaterID:     show.TheaterID,
			Seats:         priced,
			TotalAmount:   total,
			Status:        model.BookingConfirmed,
			PaymentStatus: model.PaymentCompleted,
			ShowDate:      show.Date,
			ShowTime:      show.Time,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if s.requireApproval {
			b.Status = model.BookingPending
			b.PaymentStatus = model.PaymentPending
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		out = newBookingDetail(b, sd)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parseSeatRequests validates the requested seats and returns their
// identifiers in request order.
func parseSeatRequests(seats []SeatRequest, limit int) ([]model.SeatID, error) {
	if len(seats) == 0 {
		return nil, newError(KindValidation, "At least one seat is required")
	}
	if len(seats) > limit {
		return nil, newError(KindValidation, "At most %d seats can be booked at once", limit)
	}
	ids := make([]model.SeatID, 0, len(seats))
	seen := make(map[model.SeatID]bool, len(seats))
	for _, r := range seats {
		id, err := model.ParseSeatID(r.SeatNumber)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Message: fmt.Sprintf("Invalid seat %q", r.SeatNumber), Err: err}
		}
		if r.Price == nil {
			return nil, newError(KindValidation, "Seat %s is missing a price", id)
		}
		if seen[id] {
			return nil, newError(KindValidation, "Seat %s is requested more than once", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// priceSeats re-prices every seat from the show and rejects requests whose
// client price disagrees.
func priceSeats(price decimal.Decimal, ids []model.SeatID, seats []SeatRequest) ([]model.BookingSeat, decimal.Decimal, error) {
	out := make([]model.BookingSeat, 0, len(ids))
	total := decimal.Zero
	for i, id := range ids {
		if !seats[i].Price.Equal(price) {
			return nil, decimal.Zero, newError(KindValidation,
				"Price for seat %s must be %s", id, price.StringFixed(2))
		}
		out = append(out, model.BookingSeat{SeatNumber: id.String(), Price: price})
		total = total.Add(price)
	}
	return out, total, nil
}

// CancelBooking cancels the caller's booking and returns its seats to the
// theater and the show counter.  Cancelling an already cancelled booking
// changes nothing.
func (s *BookingService) CancelBooking(ctx context.Context, actor Actor, bookingID string) (*CancelResult, error) {
	now := s.now()
	var (
		out       *model.Booking
		title     string
		cancelled bool
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		cancelled = false
		b, err := tx.BookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != actor.UserID {
			return newError(KindAuthorization, "You can only cancel your own bookings")
		}
		out = b
		if b.Status == model.BookingCancelled {
			return nil
		}
		if err := s.checkCancellationWindow(b, now); err != nil {
			return err
		}
		sd, err := s.releaseBooking(ctx, tx, b)
		if err != nil {
			return err
		}
		title = sd.Movie.Title
		b.Status = model.BookingCancelled
		b.PaymentStatus = cancelledPayment(b.PaymentStatus)
		b.UpdatedAt = now
		cancelled = true
		return tx.UpdateBookingStatus(ctx, b)
	})
	if err != nil {
		return nil, translate(err)
	}
	if !cancelled {
		return &CancelResult{Message: "Booking already cancelled", Booking: out}, nil
	}

	s.invalidate(ctx, out.TheaterID)
	metrics.BookingCancelled("owner")
	s.publish(ctx, queue.EventBookingCancelled, out, title)
	return &CancelResult{Message: "Booking cancelled successfully", Booking: out}, nil
}

// UpdateStatus changes the status and/or payment status of a booking.
// Owners may cancel their own bookings within the usual window rules;
// admins may confirm pending bookings, cancel at any time and set the
// payment status.  Only legal lifecycle transitions are accepted.
func (s *BookingService) UpdateStatus(ctx context.Context, actor Actor, bookingID string, status model.BookingStatus, payment model.PaymentStatus) (*model.Booking, error) {
	if status == "" && payment == "" {
		return nil, newError(KindValidation, "status or paymentStatus is required")
	}
	if status != "" && !status.Valid() {
		return nil, newError(KindValidation, "Invalid status %q", status)
	}
	if payment != "" && !payment.Valid() {
		return nil, newError(KindValidation, "Invalid paymentStatus %q", payment)
	}

	now := s.now()
	var (
		out     *model.Booking
		title   string
		evType  queue.EventType
		changed bool
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		evType, changed, title = "", false, ""
		b, err := tx.BookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != actor.UserID && !actor.IsAdmin() {
			return newError(KindAuthorization, "You can only update your own bookings")
		}
		out = b

		if status != "" && status != b.Status {
			if !b.CanTransition(status) {
				return newError(KindConflict, "Cannot change booking status from %s to %s", b.Status, status)
			}
			switch status {
			case model.BookingConfirmed:
				if !actor.IsAdmin() {
					return newError(KindAuthorization, "Only admins can confirm bookings")
				}
				sd, err := tx.ShowForUpdate(ctx, b.ShowID)
				if err != nil {
					return err
				}
				title = sd.Movie.Title
				b.Status = model.BookingConfirmed
				b.PaymentStatus = model.PaymentCompleted
				evType = queue.EventBookingConfirmed
			case model.BookingCancelled:
				if !actor.IsAdmin() {
					if err := s.checkCancellationWindow(b, now); err != nil {
						return err
					}
				}
				sd, err := s.releaseBooking(ctx, tx, b)
				if err != nil {
					return err
				}
				title = sd.Movie.Title
				b.Status = model.BookingCancelled
				b.PaymentStatus = cancelledPayment(b.PaymentStatus)
				evType = queue.EventBookingCancelled
			}
			changed = true
		}
		if payment != "" && payment != b.PaymentStatus {
			if !actor.IsAdmin() {
				return newError(KindAuthorization, "Only admins can change the payment status")
			}
			b.PaymentStatus = payment
			changed = true
		}
		if !changed {
			return nil
		}
		b.UpdatedAt = now
		return tx.UpdateBookingStatus(ctx, b)
	})
	if err != nil {
		return nil, translate(err)
	}

	switch evType {
	case queue.EventBookingCancelled:
		s.invalidate(ctx, out.TheaterID)
		role := "owner"
		if actor.IsAdmin() {
			role = "admin"
		}
		metrics.BookingCancelled(role)
		s.publish(ctx, evType, out, title)
	case queue.EventBookingConfirmed:
		metrics.Adjudicated("approved")
		s.publish(ctx, evType, out, title)
	}
	return out, nil
}

// Approve confirms a pending booking and marks its payment completed.
func (s *BookingService) Approve(ctx context.Context, actor Actor, bookingID string) (*model.Booking, error) {
	return s.adjudicate(ctx, actor, bookingID, true)
}

// Reject cancels a pending booking, marks its payment failed and releases
// its seats.
func (s *BookingService) Reject(ctx context.Context, actor Actor, bookingID string) (*model.Booking, error) {
	return s.adjudicate(ctx, actor, bookingID, false)
}

func (s *BookingService) adjudicate(ctx context.Context, actor Actor, bookingID string, approve bool) (*model.Booking, error) {
	if !actor.IsAdmin() {
		return nil, newError(KindAuthorization, "Admin privileges required")
	}
	verb := "rejected"
	if approve {
		verb = "approved"
	}
	now := s.now()
	var (
		out   *model.Booking
		title string
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := tx.BookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != model.BookingPending {
			return newError(KindConflict, "Only pending bookings can be %s (current status: %s)", verb, b.Status)
		}
		var sd *repository.ShowDetail
		if approve {
			sd, err = tx.ShowForUpdate(ctx, b.ShowID)
			b.Status = model.BookingConfirmed
			b.PaymentStatus = model.PaymentCompleted
		} else {
			sd, err = s.releaseBooking(ctx, tx, b)
			b.Status = model.BookingCancelled
			b.PaymentStatus = model.PaymentFailed
		}
		if err != nil {
			return err
		}
		title = sd.Movie.Title
		b.UpdatedAt = now
		out = b
		return tx.UpdateBookingStatus(ctx, b)
	})
	if err != nil {
		return nil, translate(err)
	}

	metrics.Adjudicated(verb)
	if approve {
		s.publish(ctx, queue.EventBookingConfirmed, out, title)
	} else {
		s.invalidate(ctx, out.TheaterID)
		s.publish(ctx, queue.EventBookingRejected, out, title)
	}
	s.log.Info("booking adjudicated", zap.String("booking_id", bookingID), zap.String("decision", verb), zap.Uint64("admin_id", actor.UserID))
	return out, nil
}

// GetBooking returns one booking to its owner or an admin.
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, bookingID string) (*BookingDetail, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, translate(err)
	}
	if b.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, newError(KindAuthorization, "You can only view your own bookings")
	}
	sd, err := s.store.GetShow(ctx, b.ShowID)
	if err != nil {
		return nil, translate(err)
	}
	return newBookingDetail(b, sd), nil
}

// ListMyBookings returns the caller's bookings, newest first.
func (s *BookingService) ListMyBookings(ctx context.Context, actor Actor) ([]model.Booking, error) {
	if actor.UserID == 0 {
		return nil, newError(KindAuthorization, "Authentication required")
	}
	list, err := s.store.ListBookingsByUser(ctx, actor.UserID)
	return list, translate(err)
}

// ListPending returns the bookings awaiting adjudication.
func (s *BookingService) ListPending(ctx context.Context, actor Actor) ([]model.Booking, error) {
	return s.listByStatus(ctx, actor, model.BookingPending)
}

// ListAll returns every booking.
func (s *BookingService) ListAll(ctx context.Context, actor Actor) ([]model.Booking, error) {
	return s.listByStatus(ctx, actor, "")
}

func (s *BookingService) listByStatus(ctx context.Context, actor Actor, status model.BookingStatus) ([]model.Booking, error) {
	if !actor.IsAdmin() {
		return nil, newError(KindAuthorization, "Admin privileges required")
	}
	list, err := s.store.ListBookingsByStatus(ctx, status)
	return list, translate(err)
}

// ProvisionSeatMap creates the default seat grid of a theater.  Seats that
// already exist are kept, so the call is idempotent.
func (s *BookingService) ProvisionSeatMap(ctx context.Context, actor Actor, theaterID uint64) (int, error) {
	if !actor.IsAdmin() {
		return 0, newError(KindAuthorization, "Admin privileges required")
	}
	n, err := s.store.ProvisionSeatMap(ctx, theaterID, model.DefaultSeatGrid())
	if err != nil {
		return 0, translate(err)
	}
	s.invalidate(ctx, theaterID)
	return n, nil
}

// releaseBooking locks the booking's show, then returns its seats to the
// seat map and the show counter.
func (s *BookingService) releaseBooking(ctx context.Context, tx repository.Tx, b *model.Booking) (*repository.ShowDetail, error) {
	sd, err := tx.ShowForUpdate(ctx, b.ShowID)
	if err != nil {
		return nil, err
	}
	if err := tx.ReleaseSeats(ctx, b.TheaterID, b.SeatIDs()); err != nil {
		return nil, err
	}
	if err := tx.IncrementAvailable(ctx, b.ShowID, len(b.Seats)); err != nil {
		return nil, fmt.Errorf("restore seats of booking %s: %w", b.BookingID, err)
	}
	return sd, nil
}

func (s *BookingService) checkCancellationWindow(b *model.Booking, now time.Time) error {
	if b.StartsAt(s.loc).Sub(now) < s.window {
		return newError(KindPolicy, "Cannot cancel booking less than %s before the show", humanDuration(s.window))
	}
	return nil
}

// cancelledPayment is the payment status of a booking after cancellation.
// A completed payment stays completed; refunds are handled elsewhere.
func cancelledPayment(p model.PaymentStatus) model.PaymentStatus {
	if p == model.PaymentPending {
		return model.PaymentFailed
	}
	return p
}

// invalidate runs after a commit, so it must not fail because the client
// went away.
func (s *BookingService) invalidate(ctx context.Context, theaterID uint64) {
	s.seatMaps.Invalidate(context.WithoutCancel(ctx), theaterID)
}

func (s *BookingService) publish(ctx context.Context, typ queue.EventType, b *model.Booking, movieTitle string) {
	if s.events == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.events.Publish(pctx, queue.NewBookingEvent(typ, b, movieTitle, s.now())); err != nil {
		s.log.Warn("publish booking event failed",
			zap.String("type", string(typ)), zap.String("booking_id", b.BookingID), zap.Error(err))
	}
}

func newBookingDetail(b *model.Booking, sd *repository.ShowDetail) *BookingDetail {
	return &BookingDetail{
		Booking: *b,
		Movie:   sd.Movie,
		Theater: sd.Theater,
		Show: ShowSummary{
			ID:           sd.Show.ID,
			Date:         sd.Show.Date,
			Time:         sd.Show.Time,
			ScreenNumber: sd.Show.ScreenNumber,
			Price:        sd.Show.Price,
		},
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d > 0 && d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d > 0 && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	}
	return d.String()
}
