package repository

import (
	"context"
	"fmt"

	"github.com/reelsense/taste-engine/internal/domain"
)

// UpsertRating appends a rating to the log; re-rating the same content
// replaces the earlier entry.
func (r *Repository) UpsertRating(ctx context.Context, userID int64, rating domain.UserRating) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_ratings (user_id, content_id, rating, media_type, rated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, content_id)
		 DO UPDATE SET rating = EXCLUDED.rating, media_type = EXCLUDED.media_type, rated_at = EXCLUDED.rated_at`,
		userID, rating.ContentID, int(rating.Rating), string(rating.MediaType), rating.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert rating user=%d content=%d: %w", userID, rating.ContentID, err)
	}
	return nil
}

// GetRatings returns the user's full rating log in rating order.
func (r *Repository) GetRatings(ctx context.Context, userID int64) ([]domain.UserRating, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT content_id, rating, media_type, rated_at
		 FROM user_ratings
		 WHERE user_id = $1
		 ORDER BY rated_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query ratings for user %d: %w", userID, err)
	}
	defer rows.Close()

	var ratings []domain.UserRating
	for rows.Next() {
		var (
			rating    domain.UserRating
			rawRating int
			rawMedia  string
		)
		if err := rows.Scan(&rating.ContentID, &rawRating, &rawMedia, &rating.Timestamp); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		rating.Rating = domain.Rating(rawRating)
		rating.MediaType = domain.MediaType(rawMedia)
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

// DeleteRatings performs the full data reset for a user.
func (r *Repository) DeleteRatings(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM user_ratings WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete ratings for user %d: %w", userID, err)
	}
	return nil
}
