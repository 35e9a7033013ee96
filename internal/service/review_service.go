package service

import (
	"context"

	"github.com/tourly/tourly-api/internal/apperr"
	"github.com/tourly/tourly-api/internal/model"
	"github.com/tourly/tourly-api/internal/repository"
)

// ReviewInput carries the ratings and comment for one completed
// booking.
type ReviewInput struct {
	BookingID   uint64
	TourRating  int
	GuideRating int
	Comment     string
}

// ReviewService creates reviews and maintains the derived rating
// aggregates. Aggregates are recomputed in full from the reviews table
// on every insert rather than adjusted incrementally, so they cannot
// drift.
type ReviewService struct {
	Users    *repository.UserRepo
	Tours    *repository.TourRepo
	Bookings *repository.BookingRepo
	Reviews  *repository.ReviewRepo
}

func NewReviewService(users *repository.UserRepo, tours *repository.TourRepo,
	bookings *repository.BookingRepo, reviews *repository.ReviewRepo) *ReviewService {
	return &ReviewService{Users: users, Tours: tours, Bookings: bookings, Reviews: reviews}
}

// CreateReview records a review for the caller's completed booking and
// refreshes the tour and guide aggregates.
func (s *ReviewService) CreateReview(ctx context.Context, reviewerEmail string, in ReviewInput) (model.Review, error) {
	if in.TourRating < 1 || in.TourRating > 5 || in.GuideRating < 1 || in.GuideRating > 5 {
		return model.Review{}, apperr.New(apperr.InvalidInput, "ratings must be between 1 and 5")
	}

	u, err := resolveUser(ctx, s.Users, reviewerEmail)
	if err != nil {
		return model.Review{}, err
	}

	b, err := s.Bookings.GetByID(ctx, in.BookingID)
	if err != nil {
		return model.Review{}, apperr.New(apperr.NotFound, "booking not found")
	}
	if b.UserID != u.ID {
		return model.Review{}, apperr.New(apperr.Forbidden, "booking belongs to another user")
	}
	if b.Status != model.BookingStatusCompleted {
		return model.Review{}, apperr.New(apperr.InvalidState, "only completed bookings can be reviewed")
	}

	t, err := s.Tours.GetByID(ctx, b.TourID)
	if err != nil {
		return model.Review{}, err
	}

	rev := model.Review{
		BookingID:   b.ID,
		ReviewerID:  u.ID,
		GuideID:     t.GuideID,
		TourID:      t.ID,
		TourRating:  in.TourRating,
		GuideRating: in.GuideRating,
		Comment:     in.Comment,
	}
	if err := s.Reviews.Create(ctx, &rev); err != nil {
		if err == repository.ErrDuplicate {
			return model.Review{}, apperr.New(apperr.Conflict, "this booking has already been reviewed")
		}
		return model.Review{}, err
	}

	if err := s.recomputeStats(ctx, t.ID, t.GuideID); err != nil {
		return model.Review{}, err
	}
	return rev, nil
}

// recomputeStats overwrites both aggregates from the reviews table.
func (s *ReviewService) recomputeStats(ctx context.Context, tourID, guideID uint64) error {
	avg, count, err := s.Reviews.TourStats(ctx, tourID)
	if err != nil {
		return err
	}
	if err := s.Tours.UpdateStats(ctx, tourID, avg, count); err != nil {
		return err
	}
	avg, count, err = s.Reviews.GuideStats(ctx, guideID)
	if err != nil {
		return err
	}
	return s.Users.UpdateStats(ctx, guideID, avg, count)
}

// ListTourReviews returns a tour's reviews, newest first.
func (s *ReviewService) ListTourReviews(ctx context.Context, tourID uint64) ([]model.Review, error) {
	return s.Reviews.ListByTour(ctx, tourID)
}
