package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tourly/tourly-api/internal/apperr"
	"github.com/tourly/tourly-api/internal/model"
	"github.com/tourly/tourly-api/internal/repository"
)

// TourInput carries the guide-editable fields of a tour.
type TourInput struct {
	Title          string
	Description    string
	Location       string
	Duration       string
	MaxGroupSize   int
	PricePerPerson float64
	ScheduledDate  *time.Time
	StartTime      *string
}

// TourService manages the tour lifecycle. Capacity mutation during
// booking stays in BookingService; this service only touches spots when
// a guide resizes the group.
type TourService struct {
	DB       *sql.DB
	Users    *repository.UserRepo
	Tours    *repository.TourRepo
	Bookings *repository.BookingRepo
	Follows  *repository.FollowRepo
	Notifier *NotificationService
}

func NewTourService(db *sql.DB, users *repository.UserRepo, tours *repository.TourRepo,
	bookings *repository.BookingRepo, follows *repository.FollowRepo, notifier *NotificationService) *TourService {
	return &TourService{DB: db, Users: users, Tours: tours, Bookings: bookings, Follows: follows, Notifier: notifier}
}

// CreateTour publishes a new tour and notifies the guide's followers.
func (s *TourService) CreateTour(ctx context.Context, guideEmail string, in TourInput) (model.Tour, error) {
	u, err := resolveUser(ctx, s.Users, guideEmail)
	if err != nil {
		return model.Tour{}, err
	}
	if u.Role != model.RoleGuide {
		return model.Tour{}, apperr.New(apperr.Forbidden, "only guides can create tours")
	}
	if in.MaxGroupSize < 1 {
		return model.Tour{}, apperr.New(apperr.InvalidInput, "group size must be at least 1")
	}

	t := model.Tour{
		GuideID:        u.ID,
		Title:          in.Title,
		Description:    in.Description,
		Location:       in.Location,
		Duration:       in.Duration,
		MaxGroupSize:   in.MaxGroupSize,
		AvailableSpots: in.MaxGroupSize,
		PricePerPerson: in.PricePerPerson,
		ScheduledDate:  in.ScheduledDate,
		StartTime:      in.StartTime,
		Status:         model.TourStatusActive,
	}
	if err := s.Tours.Create(ctx, &t); err != nil {
		return model.Tour{}, err
	}

	followers, err := s.Follows.FollowerIDs(ctx, u.ID)
	if err == nil {
		for _, fid := range followers {
			s.Notifier.Notify(ctx, fid, "New tour",
				fmt.Sprintf("%s published a new tour: %q", u.FullName(), t.Title),
				model.NotificationNewTour, t.ID)
		}
	}
	return t, nil
}

// GetTour returns an active tour; deleted tours read as not found.
func (s *TourService) GetTour(ctx context.Context, id uint64) (model.Tour, error) {
	t, err := s.Tours.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Tour{}, apperr.New(apperr.NotFound, "tour not found")
		}
		return model.Tour{}, err
	}
	if t.Status == model.TourStatusDeleted {
		return model.Tour{}, apperr.New(apperr.NotFound, "tour not found")
	}
	return t, nil
}

// ListActive returns all bookable tours.
func (s *TourService) ListActive(ctx context.Context) ([]model.Tour, error) {
	return s.Tours.ListActive(ctx)
}

// ListByGuide returns a guide's own tours.
func (s *TourService) ListByGuide(ctx context.Context, guideEmail string) ([]model.Tour, error) {
	u, err := resolveUser(ctx, s.Users, guideEmail)
	if err != nil {
		return nil, err
	}
	return s.Tours.ListByGuide(ctx, u.ID)
}

// UpdateTour overwrites the editable fields of an owned tour. The group
// size may not shrink below the spots already reserved. The read, the
// occupied-spots computation and the write all run under the tour row
// lock: available_spots is part of the write, and a reservation
// committing between an unlocked read and this write would have its
// decrement silently undone.
func (s *TourService) UpdateTour(ctx context.Context, guideEmail string, tourID uint64, in TourInput) (model.Tour, error) {
	u, err := resolveUser(ctx, s.Users, guideEmail)
	if err != nil {
		return model.Tour{}, err
	}
	if in.MaxGroupSize < 1 {
		return model.Tour{}, apperr.New(apperr.InvalidInput, "group size must be at least 1")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Tour{}, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	t, err := s.Tours.GetForUpdateTx(ctx, tx, tourID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Tour{}, apperr.New(apperr.NotFound, "tour not found")
		}
		return model.Tour{}, err
	}
	if t.Status == model.TourStatusDeleted {
		return model.Tour{}, apperr.New(apperr.NotFound, "tour not found")
	}
	if t.GuideID != u.ID {
		return model.Tour{}, apperr.New(apperr.Forbidden, "tour belongs to another guide")
	}

	occupied := t.MaxGroupSize - t.AvailableSpots
	if in.MaxGroupSize < occupied {
		return model.Tour{}, apperr.Newf(apperr.InvalidInput,
			"group size cannot go below the %d spots already booked", occupied)
	}

	t.Title = in.Title
	t.Description = in.Description
	t.Location = in.Location
	t.Duration = in.Duration
	t.MaxGroupSize = in.MaxGroupSize
	t.AvailableSpots = in.MaxGroupSize - occupied
	t.PricePerPerson = in.PricePerPerson
	t.ScheduledDate = in.ScheduledDate
	t.StartTime = in.StartTime

	if err := s.Tours.UpdateTx(ctx, tx, &t); err != nil {
		return model.Tour{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Tour{}, err
	}
	committed = true
	return t, nil
}

// DeletionPlan is the effect set of deleting a tour: the bookings to
// cancel and the notifications to emit after commit. Computing it as a
// value keeps the cascade testable without a database.
type DeletionPlan struct {
	TourID           uint64
	CancelBookingIDs []uint64
	Notifications    []model.Notification
}

// planTourDeletion builds the cascade for soft-deleting a tour: every
// confirmed booking is cancelled and its traveler notified.
func planTourDeletion(tour model.Tour, confirmed []model.Booking) DeletionPlan {
	plan := DeletionPlan{TourID: tour.ID}
	for _, b := range confirmed {
		plan.CancelBookingIDs = append(plan.CancelBookingIDs, b.ID)
		plan.Notifications = append(plan.Notifications, model.Notification{
			UserID:    b.UserID,
			Title:     "Tour cancelled",
			Message:   fmt.Sprintf("The tour %q has been cancelled by the guide", tour.Title),
			Type:      model.NotificationTourCancelled,
			RelatedID: b.ID,
		})
	}
	return plan
}

// DeleteTour soft-deletes an owned tour and cancels its confirmed
// bookings in one transaction. The tour row survives because historical
// bookings keep referencing it.
func (s *TourService) DeleteTour(ctx context.Context, guideEmail string, tourID uint64) error {
	u, err := resolveUser(ctx, s.Users, guideEmail)
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

	// The tour lock comes first so a reservation in flight either
	// commits before the booking list is read, and gets cancelled by
	// the cascade, or blocks until the tour is already DELETED.
	t, err := s.Tours.GetForUpdateTx(ctx, tx, tourID)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperr.New(apperr.NotFound, "tour not found")
		}
		return err
	}
	if t.Status == model.TourStatusDeleted {
		return apperr.New(apperr.NotFound, "tour not found")
	}
	if t.GuideID != u.ID {
		return apperr.New(apperr.Forbidden, "tour belongs to another guide")
	}

	confirmed, err := s.Bookings.ListConfirmedByTourTx(ctx, tx, t.ID)
	if err != nil {
		return err
	}
	plan := planTourDeletion(t, confirmed)

	for _, id := range plan.CancelBookingIDs {
		if _, err := s.Bookings.UpdateStatusTx(ctx, tx, id,
			model.BookingStatusConfirmed, model.BookingStatusCancelled); err != nil {
			return err
		}
	}
	if err := s.Tours.SoftDeleteTx(ctx, tx, plan.TourID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	for _, n := range plan.Notifications {
		s.Notifier.Notify(ctx, n.UserID, n.Title, n.Message, n.Type, n.RelatedID)
	}
	return nil
}
