package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/reelsense/taste-engine/internal/domain"
)

// GET /users/{userID}/recommendations
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := userIDParam(r)
	if userID == 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}

	// Parse and validate limit
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	filters, err := parseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	if err := h.validate.Struct(filters); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	result, err := h.service.GetRecommendations(r.Context(), userID, filters, limit)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			writeError(w, http.StatusServiceUnavailable, "request_timeout", "Request timed out, please try again")
			return
		}
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("recommendation request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	writeJSON(w, http.StatusOK, RecommendationResponse{
		UserID:          userID,
		Recommendations: result.Recommendations,
		Metadata: RecommendationMeta{
			CacheHit:    result.CacheHit,
			GeneratedAt: result.GeneratedAt.Format(time.RFC3339),
			TotalCount:  len(result.Recommendations),
		},
	})
}

// parseFilters reads the filter query parameters, starting from the
// unconstrained defaults.
func parseFilters(r *http.Request) (domain.Filters, error) {
	f := domain.DefaultFilters()
	q := r.URL.Query()

	if v := q.Get("genres"); v != "" {
		for _, part := range strings.Split(v, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || id <= 0 {
				return f, errors.New("Invalid genres parameter")
			}
			f.Genres = append(f.Genres, id)
		}
	}
	var err error
	if f.MinYear, err = intParam(q.Get("min_year"), f.MinYear); err != nil {
		return f, errors.New("Invalid min_year parameter")
	}
	if f.MaxYear, err = intParam(q.Get("max_year"), f.MaxYear); err != nil {
		return f, errors.New("Invalid max_year parameter")
	}
	if f.MinRating, err = floatParam(q.Get("min_rating"), f.MinRating); err != nil {
		return f, errors.New("Invalid min_rating parameter")
	}
	if f.MaxRating, err = floatParam(q.Get("max_rating"), f.MaxRating); err != nil {
		return f, errors.New("Invalid max_rating parameter")
	}
	if f.MinMatchScore, err = floatParam(q.Get("min_match_score"), f.MinMatchScore); err != nil {
		return f, errors.New("Invalid min_match_score parameter")
	}
	if v := q.Get("media_type"); v != "" {
		f.MediaType = domain.MediaFilter(v)
	}
	if v := q.Get("sort_by"); v != "" {
		f.SortBy = domain.SortKey(v)
	}
	if v := q.Get("languages"); v != "" {
		for _, part := range strings.Split(v, ",") {
			f.Languages = append(f.Languages, strings.TrimSpace(part))
		}
	}
	return f, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func floatParam(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}
