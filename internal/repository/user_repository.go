package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tourly/tourly-api/internal/model"
)

// UserRepo provides CRUD over the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,first_name,last_name,password_hash,role,is_verified,rating,reviews_count,created_at"

// Create inserts an unverified user and returns its ID. The password
// must already be hashed.
func (r *UserRepo) Create(ctx context.Context, email, firstName, lastName, passwordHash string, role model.Role) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, first_name, last_name, password_hash, role, is_verified) VALUES (?,?,?,?,?,0)",
		email, firstName, lastName, passwordHash, string(role))
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var u model.User
	var role string
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&role, &u.IsVerified, &u.Rating, &u.ReviewsCount, &u.CreatedAt)
	u.Role = model.Role(role)
	return u, err
}

// ExistsByEmail reports whether a user row exists for the email.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE email=? LIMIT 1", email).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetVerifiedTx flips the verification flag inside the verification
// transaction, which also consumes the code.
func (r *UserRepo) SetVerifiedTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx, "UPDATE users SET is_verified=1 WHERE id=?", userID)
	return err
}

// UpdateStats overwrites a guide's derived rating aggregate. The values
// are recomputed in full by the review service, never incremented.
func (r *UserRepo) UpdateStats(ctx context.Context, userID uint64, rating float64, reviews int) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET rating=?, reviews_count=? WHERE id=?", rating, reviews, userID)
	return err
}

// isDuplicateKey detects MySQL error 1062 (duplicate entry) without
// depending on the driver's error type.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
