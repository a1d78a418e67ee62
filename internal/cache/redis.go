package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/reelsense/taste-engine/internal/domain"
)

const defaultTTL = 10 * time.Minute

// Cache stores the latest generated recommendation list and the current
// profile snapshot per user. A new generation cycle overwrites the
// stored list: last write wins, in-flight cycles are never cancelled.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Lists are keyed per requested size: a 20-item list must never be
// served verbatim for a 5-item request.
func recKey(userID int64, size int) string {
	return fmt.Sprintf("rec:user:%d:limit:%d", userID, size)
}

func recKeyPattern(userID int64) string {
	return fmt.Sprintf("rec:user:%d:limit:*", userID)
}

func profileKey(userID int64) string {
	return fmt.Sprintf("profile:user:%d", userID)
}

// GetRecommendations returns the list cached for this size,
// (nil, false, nil) on miss.
func (c *Cache) GetRecommendations(ctx context.Context, userID int64, size int) ([]domain.Recommendation, bool, error) {
	val, err := c.client.Get(ctx, recKey(userID, size)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached recommendations: %w", err)
	}

	var recs []domain.Recommendation
	if err := json.Unmarshal([]byte(val), &recs); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached recommendations: %w", err)
	}
	return recs, true, nil
}

// SetRecommendations stores a cycle's output under its size,
// superseding any previous result of that size.
func (c *Cache) SetRecommendations(ctx context.Context, userID int64, size int, recs []domain.Recommendation) error {
	val, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	if err := c.client.Set(ctx, recKey(userID, size), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached recommendations: %w", err)
	}
	return nil
}

// ClearRecommendations drops the stored lists of every size, used when
// the profile is still in its initial phase or new evidence arrives.
func (c *Cache) ClearRecommendations(ctx context.Context, userID int64) error {
	iter := c.client.Scan(ctx, 0, recKeyPattern(userID), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("clear cached recommendations: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cached recommendations: %w", err)
	}
	return nil
}

// GetProfile returns the cached profile snapshot, (nil, nil) on miss.
// The snapshot feeds incremental rebuilds; the rating log remains the
// source of truth.
func (c *Cache) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	val, err := c.client.Get(ctx, profileKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached profile: %w", err)
	}

	p := &domain.UserProfile{}
	if err := json.Unmarshal([]byte(val), p); err != nil {
		return nil, fmt.Errorf("unmarshal cached profile: %w", err)
	}
	return p, nil
}

// SetProfile stores the current profile snapshot. Profiles do not
// expire with the recommendation TTL; they are replaced on recompute.
func (c *Cache) SetProfile(ctx context.Context, userID int64, p *domain.UserProfile) error {
	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := c.client.Set(ctx, profileKey(userID), val, 0).Err(); err != nil {
		return fmt.Errorf("set cached profile: %w", err)
	}
	return nil
}

// ClearUser drops all cached state for a user.
func (c *Cache) ClearUser(ctx context.Context, userID int64) error {
	if err := c.ClearRecommendations(ctx, userID); err != nil {
		return err
	}
	if err := c.client.Del(ctx, profileKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear user cache: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
