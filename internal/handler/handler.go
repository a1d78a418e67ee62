package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/reelsense/taste-engine/internal/service"
)

type Handler struct {
	service  *service.Service
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewHandler(svc *service.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		service:  svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("component", "handler").Logger(),
	}
}

// userIDParam parses the {userID} path segment, 0 on failure.
func userIDParam(r *http.Request) int64 {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}
