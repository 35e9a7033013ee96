package service

import (
	"context"
	"database/sql"

	"github.com/tourly/tourly-api/internal/apperr"
	"github.com/tourly/tourly-api/internal/model"
	"github.com/tourly/tourly-api/internal/repository"
)

// Profile is a user record enriched with the derived follow counts.
type Profile struct {
	model.User
	Followers int
	Following int
}

// UserService serves profiles and the follow graph.
type UserService struct {
	Users   *repository.UserRepo
	Follows *repository.FollowRepo
}

func NewUserService(users *repository.UserRepo, follows *repository.FollowRepo) *UserService {
	return &UserService{Users: users, Follows: follows}
}

// GetProfile returns the caller's own profile.
func (s *UserService) GetProfile(ctx context.Context, email string) (Profile, error) {
	u, err := resolveUser(ctx, s.Users, email)
	if err != nil {
		return Profile{}, err
	}
	return s.withCounts(ctx, u)
}

// GetProfileByID returns any user's public profile.
func (s *UserService) GetProfileByID(ctx context.Context, id uint64) (Profile, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return Profile{}, apperr.New(apperr.NotFound, "user not found")
		}
		return Profile{}, err
	}
	return s.withCounts(ctx, u)
}

func (s *UserService) withCounts(ctx context.Context, u model.User) (Profile, error) {
	followers, following, err := s.Follows.Counts(ctx, u.ID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: u, Followers: followers, Following: following}, nil
}

// Follow records that the caller follows another user.
func (s *UserService) Follow(ctx context.Context, followerEmail string, followeeID uint64) error {
	u, err := resolveUser(ctx, s.Users, followerEmail)
	if err != nil {
		return err
	}
	if u.ID == followeeID {
		return apperr.New(apperr.InvalidInput, "you cannot follow yourself")
	}
	if _, err := s.Users.GetByID(ctx, followeeID); err != nil {
		if err == sql.ErrNoRows {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return err
	}
	if err := s.Follows.Follow(ctx, u.ID, followeeID); err != nil {
		if err == repository.ErrDuplicate {
			return apperr.New(apperr.Conflict, "already following this user")
		}
		return err
	}
	return nil
}

// Unfollow removes a follow relationship; unfollowing someone not
// followed is a no-op.
func (s *UserService) Unfollow(ctx context.Context, followerEmail string, followeeID uint64) error {
	u, err := resolveUser(ctx, s.Users, followerEmail)
	if err != nil {
		return err
	}
	return s.Follows.Unfollow(ctx, u.ID, followeeID)
}
