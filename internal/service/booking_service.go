package service // booking engine: seat reservation, overlap checks, cancellation, completion

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/tourly/tourly-api/internal/apperr"
	"github.com/tourly/tourly-api/internal/model"
	"github.com/tourly/tourly-api/internal/repository"
)

// EventPublisher emits booking events to the message broker. Publishing
// is best-effort: the booking has already committed when it runs, and a
// broker failure is logged, never surfaced.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, b model.Booking, t model.Tour) error
}

// BookingService owns every mutation of the available_spots counter.
// All capacity decisions happen inside a transaction that holds the
// tour's row lock, so concurrent reservations against one tour are
// serialized by the database.
type BookingService struct {
	DB        *sql.DB
	Users     *repository.UserRepo
	Tours     *repository.TourRepo
	Bookings  *repository.BookingRepo
	Notifier  *NotificationService
	Publisher EventPublisher // may be nil when the broker is down

	Now func() time.Time
}

func NewBookingService(db *sql.DB, users *repository.UserRepo, tours *repository.TourRepo,
	bookings *repository.BookingRepo, notifier *NotificationService, pub EventPublisher) *BookingService {
	return &BookingService{
		DB:        db,
		Users:     users,
		Tours:     tours,
		Bookings:  bookings,
		Notifier:  notifier,
		Publisher: pub,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// BookTour reserves spots on a tour for the traveler. The capacity
// check, the spot decrement and the booking insert commit in one
// transaction under the tour's row lock.
func (s *BookingService) BookTour(ctx context.Context, travelerEmail string, tourID uint64, participants int) (model.Booking, error) {
	u, err := resolveUser(ctx, s.Users, travelerEmail)
	if err != nil {
		return model.Booking{}, err
	}
	if u.Role != model.RoleTraveler {
		return model.Booking{}, apperr.New(apperr.Forbidden, "only travelers can book tours")
	}
	if participants < 1 {
		return model.Booking{}, apperr.New(apperr.InvalidInput, "number of participants must be at least 1")
	}

	exists, err := s.Bookings.ExistsConfirmed(ctx, u.ID, tourID)
	if err != nil {
		return model.Booking{}, err
	}
	if exists {
		return model.Booking{}, apperr.New(apperr.Conflict, "you already have a confirmed booking for this tour")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	tour, err := s.Tours.GetForUpdateTx(ctx, tx, tourID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Booking{}, apperr.New(apperr.NotFound, "tour not found")
		}
		return model.Booking{}, err
	}
	if !tour.Bookable() {
		return model.Booking{}, apperr.New(apperr.InvalidState, "tour is not open for booking")
	}

	// Re-check behind the tour row lock: a concurrent reservation by the
	// same user may have committed after the check above.
	dup, err := s.Bookings.ExistsConfirmedTx(ctx, tx, u.ID, tour.ID)
	if err != nil {
		return model.Booking{}, err
	}
	if dup {
		return model.Booking{}, apperr.New(apperr.Conflict, "you already have a confirmed booking for this tour")
	}

	if err := s.checkOverlapTx(ctx, tx, u.ID, tour); err != nil {
		return model.Booking{}, err
	}

	if tour.AvailableSpots <= 0 {
		return model.Booking{}, apperr.New(apperr.InvalidState, "tour is fully booked")
	}
	if participants > tour.AvailableSpots {
		return model.Booking{}, apperr.Newf(apperr.InvalidInput,
			"only %d spots left on this tour", tour.AvailableSpots)
	}

	if err := s.Tours.SetAvailableSpotsTx(ctx, tx, tour.ID, tour.AvailableSpots-participants); err != nil {
		return model.Booking{}, err
	}

	b := model.Booking{UserID: u.ID, TourID: tour.ID, NumberOfParticipants: participants}
	if err := s.Bookings.CreateTx(ctx, tx, &b); err != nil {
		return model.Booking{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	committed = true

	s.Notifier.Notify(ctx, tour.GuideID, "New booking",
		fmt.Sprintf("%s booked %d spot(s) on %q", u.FullName(), participants, tour.Title),
		model.NotificationNewBooking, b.ID)

	if s.Publisher != nil {
		if err := s.Publisher.PublishBookingConfirmed(ctx, b, tour); err != nil {
			log.Printf("booking: publish confirmed event for booking %d: %v", b.ID, err)
		}
	}

	return b, nil
}

// checkOverlapTx rejects the reservation when the tour's interval
// intersects any of the traveler's other confirmed bookings. Intervals
// are half-open, so back-to-back tours are allowed.
func (s *BookingService) checkOverlapTx(ctx context.Context, tx *sql.Tx, userID uint64, tour model.Tour) error {
	start, end, ok := tourInterval(tour)
	if !ok {
		return apperr.New(apperr.InvalidState, "tour has no scheduled date or start time")
	}
	others, err := s.Bookings.ListConfirmedWithToursTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	for _, bt := range others {
		if bt.TourID == tour.ID {
			continue
		}
		os, oe, ok := tourInterval(bt.Tour)
		if !ok {
			continue
		}
		if intervalsOverlap(start, end, os, oe) {
			return apperr.Newf(apperr.Conflict,
				"this tour overlaps with your booking for %q", bt.Tour.Title)
		}
	}
	return nil
}

// CancelBooking moves a traveler's booking to CANCELLED and releases
// its spots back to the tour. The status change is a compare-and-set
// from CONFIRMED, so a booking the completion sweep already promoted
// cannot be cancelled afterwards.
func (s *BookingService) CancelBooking(ctx context.Context, travelerEmail string, bookingID uint64) error {
	u, err := resolveUser(ctx, s.Users, travelerEmail)
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	b, err := s.Bookings.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperr.New(apperr.NotFound, "booking not found")
		}
		return err
	}
	if b.UserID != u.ID {
		return apperr.New(apperr.Forbidden, "booking belongs to another user")
	}
	switch b.Status {
	case model.BookingStatusCancelled:
		return apperr.New(apperr.InvalidState, "booking is already cancelled")
	case model.BookingStatusCompleted:
		return apperr.New(apperr.InvalidState, "completed bookings cannot be cancelled")
	}

	ok, err := s.Bookings.UpdateStatusTx(ctx, tx, b.ID, model.BookingStatusConfirmed, model.BookingStatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.InvalidState, "booking is no longer cancellable")
	}

	tour, err := s.Tours.GetForUpdateTx(ctx, tx, b.TourID)
	if err != nil {
		return err
	}
	spots := tour.AvailableSpots + b.NumberOfParticipants
	if spots > tour.MaxGroupSize {
		spots = tour.MaxGroupSize
	}
	if err := s.Tours.SetAvailableSpotsTx(ctx, tx, tour.ID, spots); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	s.Notifier.Notify(ctx, u.ID, "Booking cancelled",
		fmt.Sprintf("Your booking for %q has been cancelled", tour.Title),
		model.NotificationBookingCancelledByUser, b.ID)
	s.Notifier.Notify(ctx, tour.GuideID, "Booking cancelled",
		fmt.Sprintf("%s cancelled their booking for %q", u.FullName(), tour.Title),
		model.NotificationBookingCancelledToGuide, b.ID)
	return nil
}

// CompleteBooking promotes one past-due booking from CONFIRMED to
// COMPLETED. The compare-and-set makes it idempotent and safe against a
// concurrent cancellation: if the row is no longer CONFIRMED nothing
// happens and the method reports false.
func (s *BookingService) CompleteBooking(ctx context.Context, bt model.BookingWithTour) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	ok, err := s.Bookings.UpdateStatusTx(ctx, tx, bt.ID, model.BookingStatusConfirmed, model.BookingStatusCompleted)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true

	if ok {
		s.Notifier.Notify(ctx, bt.UserID, "Tour completed",
			fmt.Sprintf("Your tour %q is complete. Leave a review!", bt.Tour.Title),
			model.NotificationBookingCompleted, bt.ID)
	}
	return ok, nil
}

// CompletionCandidates returns the confirmed bookings whose tour ended
// before now, ready for promotion by the sweep.
func (s *BookingService) CompletionCandidates(ctx context.Context) ([]model.BookingWithTour, error) {
	all, err := s.Bookings.ListCompletionCandidates(ctx)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	due := make([]model.BookingWithTour, 0, len(all))
	for _, bt := range all {
		_, end, ok := tourInterval(bt.Tour)
		if ok && end.Before(now) {
			due = append(due, bt)
		}
	}
	return due, nil
}

// ListUserBookings returns the caller's bookings with tour details.
func (s *BookingService) ListUserBookings(ctx context.Context, email string) ([]model.BookingWithTour, error) {
	u, err := resolveUser(ctx, s.Users, email)
	if err != nil {
		return nil, err
	}
	return s.Bookings.ListByUser(ctx, u.ID)
}

// ListGuideBookings returns the bookings made against the guide's
// tours.
func (s *BookingService) ListGuideBookings(ctx context.Context, email string) ([]model.BookingWithTour, error) {
	u, err := resolveUser(ctx, s.Users, email)
	if err != nil {
		return nil, err
	}
	if u.Role != model.RoleGuide {
		return nil, apperr.New(apperr.Forbidden, "only guides can view tour bookings")
	}
	return s.Bookings.ListByGuide(ctx, u.ID)
}

// resolveUser loads the account behind an authenticated email claim.
func resolveUser(ctx context.Context, users *repository.UserRepo, email string) (model.User, error) {
	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, apperr.New(apperr.NotFound, "account not found")
		}
		return model.User{}, err
	}
	return u, nil
}
