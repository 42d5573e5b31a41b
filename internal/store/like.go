package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// LikeStore handles the (user_id, post_id) likes relation.
type LikeStore struct {
	db *sql.DB
}

// NewLikeStore creates a new LikeStore with the given database connection.
func NewLikeStore(db *sql.DB) *LikeStore {
	return &LikeStore{db: db}
}

// Like records that userID likes postID. Liking twice is a no-op.
func (s *LikeStore) Like(ctx context.Context, userID, postID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO likes (user_id, post_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
	`, userID, postID)
	return wrapErr("like post", err)
}

// Unlike removes a like. Removing a missing like is a no-op.
func (s *LikeStore) Unlike(ctx context.Context, userID, postID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
	return wrapErr("unlike post", err)
}

// Exists reports whether userID likes postID.
func (s *LikeStore) Exists(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND post_id = $2)
	`, userID, postID).Scan(&ok)
	if err != nil {
		return false, wrapErr("like exists", err)
	}
	return ok, nil
}

// Count returns the number of likes on a post.
func (s *LikeStore) Count(ctx context.Context, postID uuid.UUID) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&n); err != nil {
		return 0, wrapErr("count likes", err)
	}
	return n, nil
}

// Toggle flips the like state of userID on postID and returns the new state
// together with the post's like count.
func (s *LikeStore) Toggle(ctx context.Context, userID, postID uuid.UUID) (liked bool, count int, err error) {
	liked, err = s.Exists(ctx, userID, postID)
	if err != nil {
		return false, 0, err
	}
	if liked {
		err = s.Unlike(ctx, userID, postID)
	} else {
		err = s.Like(ctx, userID, postID)
	}
	if err != nil {
		return liked, 0, err
	}
	count, err = s.Count(ctx, postID)
	return !liked, count, err
}
