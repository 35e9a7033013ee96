package repository

import (
	"context"
	"database/sql"
)

// FollowRepo persists follower relationships. Counts on a profile are
// derived from this table; new-tour notifications fan out to follower
// ids.
type FollowRepo struct{ DB *sql.DB }

func NewFollowRepo(db *sql.DB) *FollowRepo { return &FollowRepo{DB: db} }

// Follow records that follower follows followee. ErrDuplicate is
// returned when the pair already exists.
func (r *FollowRepo) Follow(ctx context.Context, followerID, followeeID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO follows (follower_id, followee_id) VALUES (?,?)", followerID, followeeID)
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// Unfollow removes the relationship; removing a non-existent pair is
// not an error.
func (r *FollowRepo) Unfollow(ctx context.Context, followerID, followeeID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM follows WHERE follower_id=? AND followee_id=?", followerID, followeeID)
	return err
}

// FollowerIDs returns the ids of everyone following the given user.
func (r *FollowRepo) FollowerIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT follower_id FROM follows WHERE followee_id=?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Counts returns (followers, following) for a user.
func (r *FollowRepo) Counts(ctx context.Context, userID uint64) (int, int, error) {
	var followers, following int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM follows WHERE followee_id=?", userID).Scan(&followers)
	if err != nil {
		return 0, 0, err
	}
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM follows WHERE follower_id=?", userID).Scan(&following)
	return followers, following, err
}

// IsFollowing reports whether follower currently follows followee.
func (r *FollowRepo) IsFollowing(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM follows WHERE follower_id=? AND followee_id=? LIMIT 1",
		followerID, followeeID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
