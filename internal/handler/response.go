package handler

import "github.com/reelsense/taste-engine/internal/domain"

type RecommendationResponse struct {
	UserID          int64                   `json:"user_id"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	Metadata        RecommendationMeta      `json:"metadata"`
}

type RecommendationMeta struct {
	CacheHit    bool   `json:"cache_hit"`
	GeneratedAt string `json:"generated_at"`
	TotalCount  int    `json:"total_count"`
}

type RatingResponse struct {
	UserID           int64               `json:"user_id"`
	Profile          *domain.UserProfile `json:"profile"`
	ShouldRegenerate bool                `json:"should_regenerate"`
	Warning          string              `json:"warning,omitempty"`
}

type ProfileResponse struct {
	UserID  int64               `json:"user_id"`
	Profile *domain.UserProfile `json:"profile"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
