package service

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourly/tourly-api/internal/apperr"
	"github.com/tourly/tourly-api/internal/model"
	"github.com/tourly/tourly-api/internal/repository"
)

func newTourFixture(t *testing.T) (*TourService, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	svc := NewTourService(db,
		repository.NewUserRepo(db),
		repository.NewTourRepo(db),
		repository.NewBookingRepo(db),
		repository.NewFollowRepo(db),
		NewNotificationService(repository.NewNotificationRepo(db)))
	return svc, mock
}

func TestPlanTourDeletionCascade(t *testing.T) {
	tour := model.Tour{ID: 7, GuideID: 3, Title: "Old Town Walk"}
	confirmed := []model.Booking{
		{ID: 100, UserID: 41, TourID: 7, Status: model.BookingStatusConfirmed},
		{ID: 101, UserID: 42, TourID: 7, Status: model.BookingStatusConfirmed},
	}

	plan := planTourDeletion(tour, confirmed)

	assert.Equal(t, uint64(7), plan.TourID)
	assert.Equal(t, []uint64{100, 101}, plan.CancelBookingIDs)

	require.Len(t, plan.Notifications, 2)
	for i, n := range plan.Notifications {
		assert.Equal(t, confirmed[i].UserID, n.UserID)
		assert.Equal(t, confirmed[i].ID, n.RelatedID)
		assert.Equal(t, model.NotificationTourCancelled, n.Type)
		assert.Contains(t, n.Message, "Old Town Walk")
	}
}

func TestPlanTourDeletionNoBookings(t *testing.T) {
	plan := planTourDeletion(model.Tour{ID: 9}, nil)
	assert.Equal(t, uint64(9), plan.TourID)
	assert.Empty(t, plan.CancelBookingIDs)
	assert.Empty(t, plan.Notifications)
}

// Resizing recomputes available_spots from the locked row: 7 of 10
// spots are taken, so growing the group to 8 leaves exactly 1 free.
func TestUpdateTourRecomputesSpotsUnderLock(t *testing.T) {
	svc, mock := newTourFixture(t)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(guideRow())
	mock.ExpectBegin()
	mock.ExpectQuery("FROM tours WHERE id=. FOR UPDATE").WillReturnRows(tourRow(3, 10))
	mock.ExpectExec("UPDATE tours SET title=").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := svc.UpdateTour(context.Background(), "anna@example.com", 7, TourInput{
		Title:          "City Lights",
		Duration:       "02:00",
		MaxGroupSize:   8,
		PricePerPerson: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, out.MaxGroupSize)
	assert.Equal(t, 1, out.AvailableSpots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTourRejectsShrinkBelowBooked(t *testing.T) {
	svc, mock := newTourFixture(t)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(guideRow())
	mock.ExpectBegin()
	mock.ExpectQuery("FROM tours WHERE id=. FOR UPDATE").WillReturnRows(tourRow(3, 10))
	mock.ExpectRollback()

	_, err := svc.UpdateTour(context.Background(), "anna@example.com", 7, TourInput{
		Title:        "City Lights",
		Duration:     "02:00",
		MaxGroupSize: 5,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The cascade opens with the tour row lock, so the booking list it
// reads is settled before any status flips happen.
func TestDeleteTourLocksRowAndCancelsBookings(t *testing.T) {
	svc, mock := newTourFixture(t)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(guideRow())
	mock.ExpectBegin()
	mock.ExpectQuery("FROM tours WHERE id=. FOR UPDATE").WillReturnRows(tourRow(3, 10))
	mock.ExpectQuery("FROM bookings WHERE tour_id=").WillReturnRows(
		sqlmock.NewRows(bookingCols).
			AddRow(100, 41, 7, 2, time.Now(), model.BookingStatusConfirmed).
			AddRow(101, 42, 7, 3, time.Now(), model.BookingStatusConfirmed))
	mock.ExpectExec("UPDATE bookings SET status=").
		WithArgs(model.BookingStatusCancelled, 100, model.BookingStatusConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET status=").
		WithArgs(model.BookingStatusCancelled, 101, model.BookingStatusConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tours SET status=").
		WithArgs(model.TourStatusDeleted, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(2, 1))

	err := svc.DeleteTour(context.Background(), "anna@example.com", 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
