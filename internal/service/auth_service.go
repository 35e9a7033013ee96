package service // authentication: registration, login, verification, token rotation

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/tourly/tourly-api/internal/apperr"
	"github.com/tourly/tourly-api/internal/mail"
	"github.com/tourly/tourly-api/internal/model"
	"github.com/tourly/tourly-api/internal/repository"
	"github.com/tourly/tourly-api/internal/utils"
)

// TokenPair is what successful login, verification and refresh return.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthService orchestrates the account lifecycle: an account starts
// unverified, admits only verification and resend until the emailed
// code is confirmed, and only then can log in.
type AuthService struct {
	DB     *sql.DB
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Codes  *repository.VerificationRepo
	Mailer mail.Sender

	Secret         string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
	CodeTTL        time.Duration
	ResendThrottle time.Duration

	// Now is the injectable clock used by expiry and throttle checks.
	Now func() time.Time
}

// NewAuthService wires the service with the production clock.
func NewAuthService(db *sql.DB, users *repository.UserRepo, tokens *repository.TokenRepo,
	codes *repository.VerificationRepo, mailer mail.Sender,
	secret string, accessTTLMin, refreshTTLDays, bcryptCost, codeTTLMin, resendThrottleS int) *AuthService {
	return &AuthService{
		DB:             db,
		Users:          users,
		Tokens:         tokens,
		Codes:          codes,
		Mailer:         mailer,
		Secret:         secret,
		AccessTTLMin:   accessTTLMin,
		RefreshTTLDays: refreshTTLDays,
		BcryptCost:     bcryptCost,
		CodeTTL:        time.Duration(codeTTLMin) * time.Minute,
		ResendThrottle: time.Duration(resendThrottleS) * time.Second,
		Now:            func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an unverified account and emails a verification
// code. No tokens are issued; the first token pair comes from
// VerifyEmail. A failed mail send is logged but does not undo the
// registration, the user can ask for a resend.
func (s *AuthService) Register(ctx context.Context, email, firstName, lastName, password, role string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if strings.TrimSpace(password) == "" {
		return model.User{}, apperr.New(apperr.InvalidInput, "password must not be blank")
	}
	r, ok := model.ParseRole(role)
	if !ok {
		return model.User{}, apperr.New(apperr.InvalidInput, "role must be TRAVELER or GUIDE")
	}

	hash, err := utils.HashPassword(password, s.BcryptCost)
	if err != nil {
		return model.User{}, err
	}

	id, err := s.Users.Create(ctx, email, firstName, lastName, hash, r)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, apperr.New(apperr.Conflict, "email already registered")
		}
		return model.User{}, err
	}

	if err := s.issueCode(ctx, id, email); err != nil {
		log.Printf("auth: issuing verification code for %s failed: %v", email, err)
	}

	return s.Users.GetByID(ctx, id)
}

// Login verifies credentials and returns a token pair. Unverified
// accounts are rejected before the password is checked; the two
// failure messages are intentionally distinct.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, model.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return TokenPair{}, model.User{}, apperr.New(apperr.NotFound, "account not found")
		}
		return TokenPair{}, model.User{}, err
	}
	if !u.IsVerified {
		return TokenPair{}, model.User{}, apperr.New(apperr.Unauthorized, "email not verified")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, model.User{}, apperr.New(apperr.Unauthorized, "invalid password")
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return TokenPair{}, model.User{}, err
	}
	return pair, u, nil
}

// VerifyEmail confirms the emailed code, marks the account verified and
// returns the account's first token pair. Stale codes are deleted on
// sight so the user's next resend starts clean.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (TokenPair, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return TokenPair{}, apperr.New(apperr.NotFound, "account not found")
		}
		return TokenPair{}, err
	}

	rec, err := s.Codes.FindByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return TokenPair{}, apperr.New(apperr.InvalidInput, "invalid verification code")
		}
		return TokenPair{}, err
	}
	if rec.UserID != u.ID {
		return TokenPair{}, apperr.New(apperr.InvalidInput, "invalid verification code")
	}
	if s.Now().After(rec.ExpiresAt) {
		if err := s.Codes.DeleteByID(ctx, rec.ID); err != nil {
			log.Printf("auth: deleting expired code %d: %v", rec.ID, err)
		}
		return TokenPair{}, apperr.New(apperr.InvalidInput, "verification code expired")
	}

	// Flag flip and code consumption commit together: a surviving code
	// after a committed flip could be replayed for extra token pairs.
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return TokenPair{}, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()
	if err := s.Users.SetVerifiedTx(ctx, tx, u.ID); err != nil {
		return TokenPair{}, err
	}
	if err := s.Codes.DeleteByIDTx(ctx, tx, rec.ID); err != nil {
		return TokenPair{}, err
	}
	if err := tx.Commit(); err != nil {
		return TokenPair{}, err
	}
	committed = true

	u.IsVerified = true
	return s.issuePair(ctx, u)
}

// ResendVerificationCode replaces any outstanding code with a fresh
// one. At most one resend per throttle window; and unlike at
// registration, a failed delivery here is surfaced to the caller.
func (s *AuthService) ResendVerificationCode(ctx context.Context, email string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperr.New(apperr.NotFound, "account not found")
		}
		return err
	}
	if u.IsVerified {
		return apperr.New(apperr.InvalidState, "email already verified")
	}

	last, err := s.Codes.LatestForUser(ctx, u.ID)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if err == nil {
		// Issue time is recovered from the expiry since the ledger does
		// not store created_at for codes.
		issuedAt := last.ExpiresAt.Add(-s.CodeTTL)
		if s.Now().Sub(issuedAt) < s.ResendThrottle {
			return apperr.New(apperr.RateLimited, "verification code was sent recently, try again later")
		}
	}

	if err := s.Codes.DeleteByUserID(ctx, u.ID); err != nil {
		return err
	}
	if err := s.issueCode(ctx, u.ID, u.Email); err != nil {
		return apperr.Wrap(apperr.DeliveryFailed, "could not deliver verification code", err)
	}
	return nil
}

// RefreshAccessToken rotates a refresh token: the presented token is
// verified, consumed from the ledger and replaced with a brand-new pair
// in one transaction. A token that fails any check, including having
// already been rotated, yields the same Unauthorized answer.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := utils.VerifyToken(s.Secret, refreshToken)
	if err != nil || !claims.IsRefresh() {
		return TokenPair{}, apperr.New(apperr.Unauthorized, "invalid refresh token")
	}

	u, err := s.Users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if err == sql.ErrNoRows {
			return TokenPair{}, apperr.New(apperr.Unauthorized, "invalid refresh token")
		}
		return TokenPair{}, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return TokenPair{}, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	rec, err := s.Tokens.ConsumeTx(ctx, tx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return TokenPair{}, apperr.New(apperr.Unauthorized, "invalid refresh token")
		}
		return TokenPair{}, err
	}
	if rec.UserID != u.ID || s.Now().After(rec.ExpiresAt) {
		return TokenPair{}, apperr.New(apperr.Unauthorized, "invalid refresh token")
	}

	access, err := utils.NewAccessToken(s.Secret, u.Email, string(u.Role), s.AccessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(s.Secret, u.Email, s.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Tokens.StoreTx(ctx, tx, u.ID, refresh.Token, refresh.Exp); err != nil {
		return TokenPair{}, err
	}

	if err := tx.Commit(); err != nil {
		return TokenPair{}, err
	}
	committed = true

	return TokenPair{AccessToken: access.Token, RefreshToken: refresh.Token, ExpiresAt: access.Exp}, nil
}

// Logout revokes every refresh token the account holds. Outstanding
// access tokens stay valid until their short expiry.
func (s *AuthService) Logout(ctx context.Context, email string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperr.New(apperr.NotFound, "account not found")
		}
		return err
	}
	return s.Tokens.DeleteAllForUser(ctx, u.ID)
}

// issuePair signs an access+refresh pair and persists the refresh side.
func (s *AuthService) issuePair(ctx context.Context, u model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.Secret, u.Email, string(u.Role), s.AccessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(s.Secret, u.Email, s.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Tokens.Store(ctx, u.ID, refresh.Token, refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access.Token, RefreshToken: refresh.Token, ExpiresAt: access.Exp}, nil
}

// issueCode generates, persists and mails a fresh verification code.
// A collision with another user's outstanding code is regenerated a
// couple of times before giving up.
func (s *AuthService) issueCode(ctx context.Context, userID uint64, email string) error {
	var code string
	for attempt := 0; ; attempt++ {
		c, err := utils.NewVerificationCode()
		if err != nil {
			return err
		}
		err = s.Codes.Create(ctx, userID, c, s.Now().Add(s.CodeTTL))
		if err == nil {
			code = c
			break
		}
		if errors.Is(err, repository.ErrDuplicate) && attempt < 2 {
			continue
		}
		return err
	}
	return s.Mailer.SendVerificationCode(ctx, email, code)
}
