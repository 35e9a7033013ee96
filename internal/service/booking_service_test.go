package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourly/tourly-api/internal/apperr"
	"github.com/tourly/tourly-api/internal/model"
	"github.com/tourly/tourly-api/internal/repository"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var (
	userCols = []string{"id", "email", "first_name", "last_name", "password_hash",
		"role", "is_verified", "rating", "reviews_count", "created_at"}
	tourCols = []string{"id", "guide_id", "title", "description", "location", "duration",
		"max_group_size", "available_spots", "price_per_person",
		"scheduled_date", "start_time", "status", "rating", "reviews_count", "created_at"}
	bookingCols = []string{"id", "user_id", "tour_id", "number_of_participants", "booking_date", "status"}
	// bookings joined to tours, as the overlap and sweep queries return them
	withTourCols = []string{"id", "user_id", "tour_id", "number_of_participants", "booking_date", "status",
		"t_id", "guide_id", "title", "description", "location", "duration",
		"max_group_size", "available_spots", "price_per_person",
		"scheduled_date", "start_time", "t_status", "rating", "reviews_count", "created_at"}
)

func travelerRow() *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(1, "lena@example.com", "Lena", "Berzina", "hash", "TRAVELER", true, 0.0, 0, time.Now())
}

func guideRow() *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(3, "anna@example.com", "Anna", "Ozola", "hash", "GUIDE", true, 0.0, 0, time.Now())
}

// tour 7 owned by guide 3, scheduled far in the future.
func tourRow(spots, max int) *sqlmock.Rows {
	return sqlmock.NewRows(tourCols).
		AddRow(7, 3, "Old Town Walk", "A stroll", "Riga", "02:00", max, spots, 50.0,
			time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC), "10:00",
			model.TourStatusActive, 0.0, 0, time.Now())
}

func newBookingFixture(t *testing.T) (*BookingService, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	svc := NewBookingService(db,
		repository.NewUserRepo(db),
		repository.NewTourRepo(db),
		repository.NewBookingRepo(db),
		NewNotificationService(repository.NewNotificationRepo(db)),
		nil)
	return svc, mock
}

// A booking that commits between the unlocked pre-check and the tour
// row lock must still be caught: the second uniqueness check runs
// inside the transaction and wins.
func TestBookTourRejectsDuplicateUnderLock(t *testing.T) {
	svc, mock := newBookingFixture(t)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(travelerRow())
	mock.ExpectQuery("SELECT 1 FROM bookings").WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM tours WHERE id=. FOR UPDATE").WillReturnRows(tourRow(5, 10))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.BookTour(context.Background(), "lena@example.com", 7, 2)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTourRejectsOversubscription(t *testing.T) {
	svc, mock := newBookingFixture(t)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(travelerRow())
	mock.ExpectQuery("SELECT 1 FROM bookings").WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM tours WHERE id=. FOR UPDATE").WillReturnRows(tourRow(1, 10))
	mock.ExpectQuery("SELECT 1 FROM bookings").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM bookings b JOIN tours t").WillReturnRows(sqlmock.NewRows(withTourCols))
	mock.ExpectRollback()

	_, err := svc.BookTour(context.Background(), "lena@example.com", 7, 2)
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTourDecrementsSpots(t *testing.T) {
	svc, mock := newBookingFixture(t)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(travelerRow())
	mock.ExpectQuery("SELECT 1 FROM bookings").WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM tours WHERE id=. FOR UPDATE").WillReturnRows(tourRow(5, 10))
	mock.ExpectQuery("SELECT 1 FROM bookings").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM bookings b JOIN tours t").WillReturnRows(sqlmock.NewRows(withTourCols))
	mock.ExpectExec("UPDATE tours SET available_spots=").
		WithArgs(3, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(55, 1))
	mock.ExpectQuery("FROM bookings WHERE id=").WillReturnRows(
		sqlmock.NewRows(bookingCols).
			AddRow(55, 1, 7, 2, time.Now(), model.BookingStatusConfirmed))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))

	b, err := svc.BookTour(context.Background(), "lena@example.com", 7, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(55), b.ID)
	assert.Equal(t, model.BookingStatusConfirmed, b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingRestoresSpots(t *testing.T) {
	svc, mock := newBookingFixture(t)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(travelerRow())
	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id=. FOR UPDATE").WillReturnRows(
		sqlmock.NewRows(bookingCols).
			AddRow(9, 1, 7, 2, time.Now(), model.BookingStatusConfirmed))
	mock.ExpectExec("UPDATE bookings SET status=").
		WithArgs(model.BookingStatusCancelled, 9, model.BookingStatusConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM tours WHERE id=. FOR UPDATE").WillReturnRows(tourRow(3, 10))
	mock.ExpectExec("UPDATE tours SET available_spots=").
		WithArgs(5, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(2, 1))

	err := svc.CancelBooking(context.Background(), "lena@example.com", 9)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The sweep promoted the booking first: the compare-and-set touches
// zero rows and the cancellation reports the state conflict instead of
// resurrecting capacity.
func TestCancelBookingLosesRaceToCompletion(t *testing.T) {
	svc, mock := newBookingFixture(t)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(travelerRow())
	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id=. FOR UPDATE").WillReturnRows(
		sqlmock.NewRows(bookingCols).
			AddRow(9, 1, 7, 2, time.Now(), model.BookingStatusConfirmed))
	mock.ExpectExec("UPDATE bookings SET status=").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.CancelBooking(context.Background(), "lena@example.com", 9)
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteBookingIdempotent(t *testing.T) {
	svc, mock := newBookingFixture(t)
	bt := model.BookingWithTour{
		Booking: model.Booking{ID: 9, UserID: 1, TourID: 7, Status: model.BookingStatusConfirmed},
		Tour:    model.Tour{ID: 7, Title: "Old Town Walk"},
	}

	// First pass transitions the row and notifies the traveler.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings SET status=").
		WithArgs(model.BookingStatusCompleted, 9, model.BookingStatusConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))

	ok, err := svc.CompleteBooking(context.Background(), bt)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second pass finds no CONFIRMED row and stays silent.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings SET status=").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err = svc.CompleteBooking(context.Background(), bt)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
