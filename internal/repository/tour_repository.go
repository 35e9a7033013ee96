package repository

import (
	"context"
	"database/sql"

	"github.com/tourly/tourly-api/internal/model"
)

// TourRepo provides CRUD over the tours table. The available_spots
// counter is the shared resource of the booking engine: every mutation
// goes through a *sql.Tx that first locked the row with
// GetForUpdateTx, so two concurrent bookings against the same tour are
// serialized by the database.
type TourRepo struct{ DB *sql.DB }

func NewTourRepo(db *sql.DB) *TourRepo { return &TourRepo{DB: db} }

const tourColumns = `id, guide_id, title, description, location, duration,
	max_group_size, available_spots, price_per_person,
	scheduled_date, start_time, status, rating, reviews_count, created_at`

func scanTour(row interface{ Scan(...interface{}) error }) (model.Tour, error) {
	var t model.Tour
	var date sql.NullTime
	var start sql.NullString
	err := row.Scan(&t.ID, &t.GuideID, &t.Title, &t.Description, &t.Location,
		&t.Duration, &t.MaxGroupSize, &t.AvailableSpots, &t.PricePerPerson,
		&date, &start, &t.Status, &t.Rating, &t.ReviewsCount, &t.CreatedAt)
	if err != nil {
		return model.Tour{}, err
	}
	if date.Valid {
		d := date.Time
		t.ScheduledDate = &d
	}
	if start.Valid {
		s := start.String
		t.StartTime = &s
	}
	return t, nil
}

// Create inserts a tour and populates the generated ID. New tours start
// ACTIVE with available_spots = max_group_size.
func (r *TourRepo) Create(ctx context.Context, t *model.Tour) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO tours (guide_id, title, description, location, duration,
			max_group_size, available_spots, price_per_person, scheduled_date, start_time, status)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		t.GuideID, t.Title, t.Description, t.Location, t.Duration,
		t.MaxGroupSize, t.AvailableSpots, t.PricePerPerson,
		t.ScheduledDate, t.StartTime, t.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID fetches a tour regardless of status; callers filter DELETED
// where appropriate.
func (r *TourRepo) GetByID(ctx context.Context, id uint64) (model.Tour, error) {
	return scanTour(r.DB.QueryRowContext(ctx,
		"SELECT "+tourColumns+" FROM tours WHERE id=? LIMIT 1", id))
}

// GetForUpdateTx loads a tour row under an exclusive row lock. All
// capacity checks and the subsequent spot mutation must happen inside
// the same transaction.
func (r *TourRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Tour, error) {
	return scanTour(tx.QueryRowContext(ctx,
		"SELECT "+tourColumns+" FROM tours WHERE id=? FOR UPDATE", id))
}

// SetAvailableSpotsTx writes the new spot count inside the transaction
// that holds the row lock.
func (r *TourRepo) SetAvailableSpotsTx(ctx context.Context, tx *sql.Tx, id uint64, spots int) error {
	_, err := tx.ExecContext(ctx, "UPDATE tours SET available_spots=? WHERE id=?", spots, id)
	return err
}

// UpdateTx overwrites the editable fields of a tour inside a
// transaction that already holds the row lock. available_spots is part
// of the write, so callers must have computed it from the locked read.
func (r *TourRepo) UpdateTx(ctx context.Context, tx *sql.Tx, t *model.Tour) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE tours SET title=?, description=?, location=?, duration=?,
			max_group_size=?, available_spots=?, price_per_person=?,
			scheduled_date=?, start_time=? WHERE id=?`,
		t.Title, t.Description, t.Location, t.Duration,
		t.MaxGroupSize, t.AvailableSpots, t.PricePerPerson,
		t.ScheduledDate, t.StartTime, t.ID)
	return err
}

// SoftDeleteTx flips the tour status to DELETED inside the cascade
// transaction. The row is never removed while bookings reference it.
func (r *TourRepo) SoftDeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE tours SET status=? WHERE id=?", model.TourStatusDeleted, id)
	return err
}

// ListByGuide returns a guide's tours, newest first, excluding deleted
// ones.
func (r *TourRepo) ListByGuide(ctx context.Context, guideID uint64) ([]model.Tour, error) {
	return r.list(ctx,
		"SELECT "+tourColumns+" FROM tours WHERE guide_id=? AND status<>? ORDER BY created_at DESC",
		guideID, model.TourStatusDeleted)
}

// ListActive returns all bookable tours, newest first.
func (r *TourRepo) ListActive(ctx context.Context) ([]model.Tour, error) {
	return r.list(ctx,
		"SELECT "+tourColumns+" FROM tours WHERE status=? ORDER BY created_at DESC",
		model.TourStatusActive)
}

func (r *TourRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Tour, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tours := make([]model.Tour, 0)
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, t)
	}
	return tours, rows.Err()
}

// UpdateStats overwrites a tour's derived rating aggregate.
func (r *TourRepo) UpdateStats(ctx context.Context, tourID uint64, rating float64, reviews int) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tours SET rating=?, reviews_count=? WHERE id=?", rating, reviews, tourID)
	return err
}
