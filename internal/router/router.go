package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reelsense/taste-engine/internal/handler"
	"github.com/reelsense/taste-engine/internal/metrics"
)

func Setup(h *handler.Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Routes
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Post("/ratings", h.CreateRating)
		r.Delete("/ratings", h.DeleteRatings)
		r.Get("/recommendations", h.GetRecommendations)
		r.Get("/profile", h.GetProfile)
		r.Put("/demographics", h.PutDemographics)
		r.Post("/watchlist/{contentID}", h.AddToWatchlist)
		r.Delete("/watchlist/{contentID}", h.RemoveFromWatchlist)
	})
	r.Get("/health", healthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
