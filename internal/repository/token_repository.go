package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tourly/tourly-api/internal/model"
)

// TokenRepo persists the refresh-token ledger. Tokens are single-use:
// a successful refresh consumes the row and inserts a replacement in
// the same transaction.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token row outside any transaction (login,
// register, email verification).
func (r *TokenRepo) Store(ctx context.Context, userID uint64, token string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES (?,?,?)",
		userID, token, exp)
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// StoreTx inserts the replacement token inside the rotation transaction.
func (r *TokenRepo) StoreTx(ctx context.Context, tx *sql.Tx, userID uint64, token string, exp time.Time) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES (?,?,?)",
		userID, token, exp)
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// ConsumeTx loads a token row under a lock and deletes it, returning
// the record so the caller can check ownership and expiry. The delete
// and the subsequent replacement insert commit atomically, which closes
// the window where an old and a new refresh token are both valid.
// ErrTokenNotFound is returned when the token was never issued or was
// already rotated.
func (r *TokenRepo) ConsumeTx(ctx context.Context, tx *sql.Tx, token string) (model.RefreshToken, error) {
	var rec model.RefreshToken
	err := tx.QueryRowContext(ctx,
		"SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens WHERE token=? FOR UPDATE",
		token).Scan(&rec.ID, &rec.UserID, &rec.Token, &rec.ExpiresAt, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return model.RefreshToken{}, ErrTokenNotFound
	}
	if err != nil {
		return model.RefreshToken{}, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE id=?", rec.ID); err != nil {
		return model.RefreshToken{}, err
	}
	return rec, nil
}

// DeleteAllForUser removes every refresh token owned by the user
// (logout, account deletion).
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}
