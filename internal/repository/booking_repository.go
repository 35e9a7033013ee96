package repository

import (
	"context"
	"database/sql"

	"github.com/tourly/tourly-api/internal/model"
)

// BookingRepo provides CRUD over the bookings table. Status transitions
// are guarded with compare-and-set updates (WHERE status=?) so that the
// completion sweep and a concurrent cancellation cannot both win.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingColumns = "id, user_id, tour_id, number_of_participants, booking_date, status"

func scanBooking(row interface{ Scan(...interface{}) error }) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.TourID, &b.NumberOfParticipants, &b.BookingDate, &b.Status)
	return b, err
}

// ExistsConfirmed reports whether the user already holds a CONFIRMED
// booking for the tour.
func (r *BookingRepo) ExistsConfirmed(ctx context.Context, userID, tourID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM bookings WHERE user_id=? AND tour_id=? AND status=? LIMIT 1",
		userID, tourID, model.BookingStatusConfirmed).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExistsConfirmedTx re-checks the one-confirmed-booking rule inside
// the reservation transaction. The pre-transaction check can race with
// a concurrent reservation by the same user; this one runs behind the
// tour row lock, so at most one of the racers sees false.
func (r *BookingRepo) ExistsConfirmedTx(ctx context.Context, tx *sql.Tx, userID, tourID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		"SELECT 1 FROM bookings WHERE user_id=? AND tour_id=? AND status=? LIMIT 1",
		userID, tourID, model.BookingStatusConfirmed).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx inserts a booking inside the reservation transaction and
// populates the generated ID and defaults.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO bookings (user_id, tour_id, number_of_participants, status) VALUES (?,?,?,?)",
		b.UserID, b.TourID, b.NumberOfParticipants, model.BookingStatusConfirmed)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=?", b.ID).
		Scan(&b.ID, &b.UserID, &b.TourID, &b.NumberOfParticipants, &b.BookingDate, &b.Status)
}

// GetByID fetches a booking by id.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBooking(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", id))
}

// GetForUpdateTx loads a booking under a row lock for the cancellation
// transaction.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Booking, error) {
	return scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? FOR UPDATE", id))
}

// UpdateStatusTx transitions a booking from one status to another and
// reports whether the row actually changed. A false return means a
// concurrent transition got there first.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE id=? AND status=?", to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListConfirmedWithToursTx returns the user's CONFIRMED bookings joined
// to their tours' schedules, inside the reservation transaction, for
// the overlap check.
func (r *BookingRepo) ListConfirmedWithToursTx(ctx context.Context, tx *sql.Tx, userID uint64) ([]model.BookingWithTour, error) {
	rows, err := tx.QueryContext(ctx, withTourQuery+" WHERE b.user_id=? AND b.status=?",
		userID, model.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	return collectWithTours(rows)
}

// ListByUser returns all of a traveler's bookings with tour details,
// newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingWithTour, error) {
	rows, err := r.DB.QueryContext(ctx,
		withTourQuery+" WHERE b.user_id=? ORDER BY b.booking_date DESC", userID)
	if err != nil {
		return nil, err
	}
	return collectWithTours(rows)
}

// ListByGuide returns all bookings made against a guide's tours, newest
// first.
func (r *BookingRepo) ListByGuide(ctx context.Context, guideID uint64) ([]model.BookingWithTour, error) {
	rows, err := r.DB.QueryContext(ctx,
		withTourQuery+" WHERE t.guide_id=? ORDER BY b.booking_date DESC", guideID)
	if err != nil {
		return nil, err
	}
	return collectWithTours(rows)
}

// ListConfirmedByTourTx returns the CONFIRMED bookings of a tour inside
// the tour-deletion cascade transaction.
func (r *BookingRepo) ListConfirmedByTourTx(ctx context.Context, tx *sql.Tx, tourID uint64) ([]model.Booking, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE tour_id=? AND status=?",
		tourID, model.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListCompletionCandidates returns every CONFIRMED booking joined to a
// tour that carries a schedule. The sweep computes end times in Go and
// promotes past-due rows one by one with a compare-and-set.
func (r *BookingRepo) ListCompletionCandidates(ctx context.Context) ([]model.BookingWithTour, error) {
	rows, err := r.DB.QueryContext(ctx,
		withTourQuery+" WHERE b.status=? AND t.scheduled_date IS NOT NULL AND t.start_time IS NOT NULL",
		model.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	return collectWithTours(rows)
}

const withTourQuery = `SELECT b.id, b.user_id, b.tour_id, b.number_of_participants, b.booking_date, b.status,
	t.id, t.guide_id, t.title, t.description, t.location, t.duration,
	t.max_group_size, t.available_spots, t.price_per_person,
	t.scheduled_date, t.start_time, t.status, t.rating, t.reviews_count, t.created_at
	FROM bookings b JOIN tours t ON t.id = b.tour_id`

func collectWithTours(rows *sql.Rows) ([]model.BookingWithTour, error) {
	defer rows.Close()
	out := make([]model.BookingWithTour, 0)
	for rows.Next() {
		var bt model.BookingWithTour
		var date sql.NullTime
		var start sql.NullString
		err := rows.Scan(
			&bt.ID, &bt.UserID, &bt.TourID, &bt.NumberOfParticipants, &bt.BookingDate, &bt.Booking.Status,
			&bt.Tour.ID, &bt.Tour.GuideID, &bt.Tour.Title, &bt.Tour.Description, &bt.Tour.Location,
			&bt.Tour.Duration, &bt.Tour.MaxGroupSize, &bt.Tour.AvailableSpots, &bt.Tour.PricePerPerson,
			&date, &start, &bt.Tour.Status, &bt.Tour.Rating, &bt.Tour.ReviewsCount, &bt.Tour.CreatedAt)
		if err != nil {
			return nil, err
		}
		if date.Valid {
			d := date.Time
			bt.Tour.ScheduledDate = &d
		}
		if start.Valid {
			s := start.String
			bt.Tour.StartTime = &s
		}
		out = append(out, bt)
	}
	return out, rows.Err()
}
