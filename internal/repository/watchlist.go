package repository

import (
	"context"
	"fmt"
)

// GetWatchlistIDs returns the content ids the user has watchlisted.
func (r *Repository) GetWatchlistIDs(ctx context.Context, userID int64) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT content_id FROM watchlist WHERE user_id = $1 ORDER BY added_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query watchlist for user %d: %w", userID, err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan watchlist id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %w", err)
	}
	return ids, nil
}

// AddToWatchlist records a watchlist entry, idempotently.
func (r *Repository) AddToWatchlist(ctx context.Context, userID int64, contentID int, mediaType string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO watchlist (user_id, content_id, media_type, added_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, content_id) DO NOTHING`,
		userID, contentID, mediaType,
	)
	if err != nil {
		return fmt.Errorf("add watchlist entry user=%d content=%d: %w", userID, contentID, err)
	}
	return nil
}

// RemoveFromWatchlist drops a watchlist entry.
func (r *Repository) RemoveFromWatchlist(ctx context.Context, userID int64, contentID int) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM watchlist WHERE user_id = $1 AND content_id = $2`,
		userID, contentID,
	); err != nil {
		return fmt.Errorf("remove watchlist entry user=%d content=%d: %w", userID, contentID, err)
	}
	return nil
}
