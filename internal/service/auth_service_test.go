package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourly/tourly-api/internal/apperr"
	"github.com/tourly/tourly-api/internal/mail"
	"github.com/tourly/tourly-api/internal/repository"
	"github.com/tourly/tourly-api/internal/utils"
)

const authTestSecret = "auth-test-secret"

func newAuthFixture(t *testing.T) (*AuthService, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	svc := NewAuthService(db,
		repository.NewUserRepo(db),
		repository.NewTokenRepo(db),
		repository.NewVerificationRepo(db),
		mail.LogSender{},
		authTestSecret, 15, 7, 4, 15, 60)
	return svc, mock
}

func userRowWith(hash string, verified bool) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(1, "lena@example.com", "Lena", "Berzina", hash, "TRAVELER", verified, 0.0, 0, time.Now())
}

// Presenting the same refresh token twice: the first use consumes the
// ledger row inside the rotation transaction, the second finds nothing
// and is rejected.
func TestRefreshRotationIsSingleUse(t *testing.T) {
	svc, mock := newAuthFixture(t)
	signed, err := utils.NewRefreshToken(authTestSecret, "lena@example.com", 7)
	require.NoError(t, err)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(userRowWith("hash", true))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM refresh_tokens WHERE token=. FOR UPDATE").WillReturnRows(
		sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}).
			AddRow(11, 1, signed.Token, time.Now().Add(24*time.Hour), time.Now()))
	mock.ExpectExec("DELETE FROM refresh_tokens WHERE id=").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectCommit()

	pair, err := svc.RefreshAccessToken(context.Background(), signed.Token)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(userRowWith("hash", true))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM refresh_tokens WHERE token=. FOR UPDATE").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err = svc.RefreshAccessToken(context.Background(), signed.Token)
	require.Error(t, err)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRejectsUnverifiedAccount(t *testing.T) {
	svc, mock := newAuthFixture(t)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(userRowWith("hash", false))

	_, _, err := svc.Login(context.Background(), "lena@example.com", "travel-pw")
	require.Error(t, err)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
	assert.Equal(t, "email not verified", apperr.MessageOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginVerifiedAccountGetsTokenPair(t *testing.T) {
	svc, mock := newAuthFixture(t)
	hash, err := utils.HashPassword("travel-pw", 4)
	require.NoError(t, err)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(userRowWith(hash, true))
	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	pair, u, err := svc.Login(context.Background(), "lena@example.com", "travel-pw")
	require.NoError(t, err)
	assert.Equal(t, "lena@example.com", u.Email)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Wrong password on the same verified account.
	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(userRowWith(hash, true))
	_, _, err = svc.Login(context.Background(), "lena@example.com", "nope")
	require.Error(t, err)
	assert.Equal(t, "invalid password", apperr.MessageOf(err))
}

// The verification flag and the code deletion commit in one
// transaction; the first token pair is issued only afterwards.
func TestVerifyEmailConsumesCodeAtomically(t *testing.T) {
	svc, mock := newAuthFixture(t)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(userRowWith("hash", false))
	mock.ExpectQuery("FROM verification_tokens WHERE code=").WillReturnRows(
		sqlmock.NewRows([]string{"id", "user_id", "code", "expires_at"}).
			AddRow(5, 1, "483920", time.Now().Add(10*time.Minute)))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET is_verified=1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM verification_tokens WHERE id=").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	pair, err := svc.VerifyEmail(context.Background(), "lena@example.com", "483920")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueCodeRetriesOnCollision(t *testing.T) {
	svc, mock := newAuthFixture(t)

	mock.ExpectExec("INSERT INTO verification_tokens").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
	mock.ExpectExec("INSERT INTO verification_tokens").WillReturnResult(sqlmock.NewResult(9, 1))

	err := svc.issueCode(context.Background(), 1, "lena@example.com")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResendThrottledInsideWindow(t *testing.T) {
	svc, mock := newAuthFixture(t)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(userRowWith("hash", false))
	// Issued just now: expiry is a full code TTL away.
	mock.ExpectQuery("FROM verification_tokens WHERE user_id=").WillReturnRows(
		sqlmock.NewRows([]string{"id", "user_id", "code", "expires_at"}).
			AddRow(5, 1, "483920", time.Now().UTC().Add(svc.CodeTTL)))

	err := svc.ResendVerificationCode(context.Background(), "lena@example.com")
	require.Error(t, err)
	assert.Equal(t, apperr.RateLimited, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
