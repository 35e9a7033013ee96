package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tourly/tourly-api/internal/model"
)

// VerificationRepo persists one-time email verification codes. At most
// one active code exists per user: issuing a new one deletes any
// outstanding codes first.
type VerificationRepo struct{ DB *sql.DB }

func NewVerificationRepo(db *sql.DB) *VerificationRepo { return &VerificationRepo{DB: db} }

// Create inserts a code row. ErrDuplicate is returned on the (unlikely)
// collision with another user's outstanding code; callers regenerate.
func (r *VerificationRepo) Create(ctx context.Context, userID uint64, code string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO verification_tokens (user_id, code, expires_at) VALUES (?,?,?)",
		userID, code, exp)
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// FindByCode looks a code up by its value. sql.ErrNoRows passes through
// when the code is unknown.
func (r *VerificationRepo) FindByCode(ctx context.Context, code string) (model.VerificationCode, error) {
	var v model.VerificationCode
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, code, expires_at FROM verification_tokens WHERE code=? LIMIT 1",
		code).Scan(&v.ID, &v.UserID, &v.Code, &v.ExpiresAt)
	return v, err
}

// LatestForUser returns the most recently issued code for a user, used
// to enforce the resend throttle.
func (r *VerificationRepo) LatestForUser(ctx context.Context, userID uint64) (model.VerificationCode, error) {
	var v model.VerificationCode
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, code, expires_at FROM verification_tokens WHERE user_id=? ORDER BY expires_at DESC LIMIT 1",
		userID).Scan(&v.ID, &v.UserID, &v.Code, &v.ExpiresAt)
	return v, err
}

// DeleteByID removes a stale code.
func (r *VerificationRepo) DeleteByID(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM verification_tokens WHERE id=?", id)
	return err
}

// DeleteByIDTx removes a consumed code inside the verification
// transaction, so the code cannot be replayed if the flag write
// committed.
func (r *VerificationRepo) DeleteByIDTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM verification_tokens WHERE id=?", id)
	return err
}

// DeleteByUserID removes all outstanding codes for a user before a new
// one is issued.
func (r *VerificationRepo) DeleteByUserID(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM verification_tokens WHERE user_id=?", userID)
	return err
}
