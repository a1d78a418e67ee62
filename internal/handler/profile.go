package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/reelsense/taste-engine/internal/domain"
)

// GET /users/{userID}/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := userIDParam(r)
	if userID == 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}

	profile, err := h.service.BuildProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found",
				fmt.Sprintf("User with ID %d has no stored data", userID))
			return
		}
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("profile build failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{UserID: userID, Profile: profile})
}

type demographicsRequest struct {
	Age                int    `json:"age" validate:"required,gte=13,lte=120"`
	Gender             string `json:"gender"`
	Country            string `json:"country" validate:"omitempty,len=2"`
	Language           string `json:"language" validate:"omitempty,len=2"`
	Education          string `json:"education"`
	RelationshipStatus string `json:"relationship_status"`
	HasChildren        bool   `json:"has_children"`
	ChildrenAges       []int  `json:"children_ages"`
}

// PUT /users/{userID}/demographics
func (h *Handler) PutDemographics(w http.ResponseWriter, r *http.Request) {
	userID := userIDParam(r)
	if userID == 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}

	var req demographicsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	profile, err := h.service.SetDemographics(r.Context(), userID, domain.Demographics{
		Age:                req.Age,
		Gender:             req.Gender,
		Country:            req.Country,
		Language:           req.Language,
		Education:          req.Education,
		RelationshipStatus: req.RelationshipStatus,
		HasChildren:        req.HasChildren,
		ChildrenAges:       req.ChildrenAges,
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("demographics update failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{UserID: userID, Profile: profile})
}

// POST /users/{userID}/watchlist/{contentID}
func (h *Handler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := userIDParam(r)
	contentID, err := strconv.Atoi(chi.URLParam(r, "contentID"))
	if userID == 0 || err != nil || contentID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid path parameter")
		return
	}
	mediaType := domain.MediaType(r.URL.Query().Get("media_type"))
	if mediaType != domain.MediaTypeMovie && mediaType != domain.MediaTypeTV {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "media_type must be movie or tv")
		return
	}

	if err := h.service.AddToWatchlist(r.Context(), userID, contentID, mediaType); err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("watchlist add failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /users/{userID}/watchlist/{contentID}
func (h *Handler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := userIDParam(r)
	contentID, err := strconv.Atoi(chi.URLParam(r, "contentID"))
	if userID == 0 || err != nil || contentID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid path parameter")
		return
	}

	if err := h.service.RemoveFromWatchlist(r.Context(), userID, contentID); err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("watchlist remove failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
