package repository

import (
	"context"
	"database/sql"

	"github.com/tourly/tourly-api/internal/model"
)

// ReviewRepo provides CRUD over the reviews table and the aggregate
// queries behind rating recomputation.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

// Create inserts a review. The unique constraint on booking_id enforces
// one review per booking; violations surface as ErrDuplicate.
func (r *ReviewRepo) Create(ctx context.Context, rev *model.Review) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO reviews (booking_id, reviewer_id, guide_id, tour_id, tour_rating, guide_rating, comment)
		 VALUES (?,?,?,?,?,?,?)`,
		rev.BookingID, rev.ReviewerID, rev.GuideID, rev.TourID,
		rev.TourRating, rev.GuideRating, rev.Comment)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rev.ID = uint64(id)
	return nil
}

// ExistsByBookingID reports whether the booking has already been
// reviewed.
func (r *ReviewRepo) ExistsByBookingID(ctx context.Context, bookingID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM reviews WHERE booking_id=? LIMIT 1", bookingID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TourStats recomputes the full rating aggregate for a tour.
func (r *ReviewRepo) TourStats(ctx context.Context, tourID uint64) (float64, int, error) {
	return r.stats(ctx,
		"SELECT COALESCE(AVG(tour_rating),0), COUNT(*) FROM reviews WHERE tour_id=?", tourID)
}

// GuideStats recomputes the full rating aggregate for a guide.
func (r *ReviewRepo) GuideStats(ctx context.Context, guideID uint64) (float64, int, error) {
	return r.stats(ctx,
		"SELECT COALESCE(AVG(guide_rating),0), COUNT(*) FROM reviews WHERE guide_id=?", guideID)
}

func (r *ReviewRepo) stats(ctx context.Context, query string, id uint64) (float64, int, error) {
	var avg float64
	var count int
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&avg, &count)
	return avg, count, err
}

// ListByTour returns a tour's reviews, newest first.
func (r *ReviewRepo) ListByTour(ctx context.Context, tourID uint64) ([]model.Review, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, booking_id, reviewer_id, guide_id, tour_id, tour_rating, guide_rating, comment, created_at
		 FROM reviews WHERE tour_id=? ORDER BY created_at DESC`, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Review, 0)
	for rows.Next() {
		var rev model.Review
		if err := rows.Scan(&rev.ID, &rev.BookingID, &rev.ReviewerID, &rev.GuideID,
			&rev.TourID, &rev.TourRating, &rev.GuideRating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}
