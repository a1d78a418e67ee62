package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/reelsense/taste-engine/internal/domain"
)

type ratingRequest struct {
	ContentID int    `json:"content_id" validate:"required,gt=0"`
	Rating    int    `json:"rating" validate:"required"`
	MediaType string `json:"media_type" validate:"required,oneof=movie tv"`
}

// POST /users/{userID}/ratings
func (h *Handler) CreateRating(w http.ResponseWriter, r *http.Request) {
	userID := userIDParam(r)
	if userID == 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	event, err := h.service.OnRatingAdded(r.Context(), userID, domain.UserRating{
		ContentID: req.ContentID,
		Rating:    domain.Rating(req.Rating),
		MediaType: domain.MediaType(req.MediaType),
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRating) {
			writeError(w, http.StatusBadRequest, "invalid_rating", "Rating must be 1-10 or a recognized sentinel")
			return
		}
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("rating event failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	writeJSON(w, http.StatusCreated, RatingResponse{
		UserID:           userID,
		Profile:          event.UpdatedProfile,
		ShouldRegenerate: event.ShouldRegenerate,
		Warning:          event.Warning,
	})
}

// DELETE /users/{userID}/ratings
func (h *Handler) DeleteRatings(w http.ResponseWriter, r *http.Request) {
	userID := userIDParam(r)
	if userID == 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}

	if err := h.service.ResetUser(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("data reset failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
