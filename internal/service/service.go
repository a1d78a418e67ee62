// Package service exposes the engine's operations to the transport
// layer: profile building, recommendation generation and the rating
// event flow with its phase-gated triggers.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelsense/taste-engine/internal/config"
	"github.com/reelsense/taste-engine/internal/domain"
	"github.com/reelsense/taste-engine/internal/metrics"
	"github.com/reelsense/taste-engine/internal/neural"
	"github.com/reelsense/taste-engine/internal/profile"
	"github.com/reelsense/taste-engine/internal/recommend"
)

// Store is the persistence surface the service needs. Implemented by
// repository.Repository.
type Store interface {
	GetRatings(ctx context.Context, userID int64) ([]domain.UserRating, error)
	UpsertRating(ctx context.Context, userID int64, rating domain.UserRating) error
	DeleteRatings(ctx context.Context, userID int64) error
	GetWatchlistIDs(ctx context.Context, userID int64) ([]int, error)
	AddToWatchlist(ctx context.Context, userID int64, contentID int, mediaType string) error
	RemoveFromWatchlist(ctx context.Context, userID int64, contentID int) error
	GetDemographics(ctx context.Context, userID int64) (*domain.Demographics, error)
	UpsertDemographics(ctx context.Context, userID int64, d domain.Demographics) error
}

// ResultCache stores generated lists per requested size plus the
// profile snapshot. Implemented by cache.Cache.
type ResultCache interface {
	GetRecommendations(ctx context.Context, userID int64, size int) ([]domain.Recommendation, bool, error)
	SetRecommendations(ctx context.Context, userID int64, size int, recs []domain.Recommendation) error
	ClearRecommendations(ctx context.Context, userID int64) error
	GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error)
	SetProfile(ctx context.Context, userID int64, p *domain.UserProfile) error
	ClearUser(ctx context.Context, userID int64) error
}

// Generator runs one recommendation cycle. Implemented by
// recommend.Pipeline.
type Generator interface {
	Generate(ctx context.Context, req recommend.Request) ([]domain.Recommendation, error)
}

// Retrainer rebuilds the secondary scorer's weights from the rating
// log. Implemented by neural.Scorer.
type Retrainer interface {
	Retrain(ctx context.Context, ratings []domain.UserRating, p *domain.UserProfile, meta profile.MetadataSource) (*neural.Model, error)
}

// Result is one recommendation response with cache provenance.
type Result struct {
	Recommendations []domain.Recommendation
	CacheHit        bool
	GeneratedAt     time.Time
}

// RatingEvent is the outcome of recording one rating.
type RatingEvent struct {
	UpdatedProfile   *domain.UserProfile
	ShouldRegenerate bool
	// Warning carries the recoverable profile-rebuild notice, empty
	// otherwise.
	Warning string
}

type Service struct {
	repo     Store
	cache    ResultCache
	meta     profile.MetadataSource
	builder  *profile.Builder
	pipeline Generator
	scorer   Retrainer
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	defaultSize int
}

func New(repo Store, c ResultCache, meta profile.MetadataSource, builder *profile.Builder, pipeline Generator, scorer Retrainer, cfg config.EngineConfig, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		cache:       c,
		meta:        meta,
		builder:     builder,
		pipeline:    pipeline,
		scorer:      scorer,
		metrics:     m,
		logger:      logger.With().Str("component", "service").Logger(),
		defaultSize: cfg.OutputSize,
	}
}

// BuildProfile derives the user's profile from their full rating log
// and stored demographics, refreshing the cached snapshot.
func (s *Service) BuildProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	ratings, err := s.repo.GetRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch ratings: %w", err)
	}
	demographics, err := s.repo.GetDemographics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch demographics: %w", err)
	}

	if len(ratings) == 0 && demographics == nil {
		return nil, domain.ErrUserNotFound
	}

	p, err := s.builder.Build(ctx, ratings, demographics)
	if err != nil {
		return nil, err
	}
	if cacheErr := s.cache.SetProfile(ctx, userID, p); cacheErr != nil {
		s.logger.Warn().Err(cacheErr).Int64("user_id", userID).Msg("profile snapshot not cached")
	}
	return p, nil
}

// GetRecommendations serves the stored list when an unfiltered request
// of the same size is fresh, otherwise runs a generation cycle.
func (s *Service) GetRecommendations(ctx context.Context, userID int64, filters domain.Filters, size int) (*Result, error) {
	size = s.normalizeSize(size)

	if isDefaultRequest(filters) {
		cached, found, err := s.cache.GetRecommendations(ctx, userID, size)
		if err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("recommendation cache read failed")
		}
		if found {
			s.metrics.CacheHits.Inc()
			return &Result{Recommendations: cached, CacheHit: true, GeneratedAt: time.Now().UTC()}, nil
		}
		s.metrics.CacheMisses.Inc()
	}

	recs, err := s.generate(ctx, userID, filters, size)
	if errors.Is(err, domain.ErrInsufficientData) {
		// Below the learning gate the empty list is the defined answer.
		return &Result{Recommendations: []domain.Recommendation{}, GeneratedAt: time.Now().UTC()}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Recommendations: recs, CacheHit: false, GeneratedAt: time.Now().UTC()}, nil
}

// generate assembles a pipeline request, runs it and stores the result
// under its size. Storing is last-write-wins: a cycle finishing after a
// newer one simply gets overwritten by the next.
func (s *Service) generate(ctx context.Context, userID int64, filters domain.Filters, size int) ([]domain.Recommendation, error) {
	size = s.normalizeSize(size)

	ratings, err := s.repo.GetRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch ratings: %w", err)
	}
	if !profile.CanGenerate(len(domain.NumericRatings(ratings))) {
		return nil, domain.ErrInsufficientData
	}

	p, err := s.currentProfile(ctx, userID, ratings)
	if err != nil {
		return nil, err
	}
	watchlist, err := s.repo.GetWatchlistIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch watchlist: %w", err)
	}

	recs, err := s.pipeline.Generate(ctx, recommend.Request{
		Profile:   p,
		Ratings:   ratings,
		Watchlist: watchlist,
		Filters:   filters,
		Size:      size,
	})
	if err != nil {
		return nil, err
	}

	if isDefaultRequest(filters) {
		if cacheErr := s.cache.SetRecommendations(ctx, userID, size, recs); cacheErr != nil {
			s.logger.Warn().Err(cacheErr).Int64("user_id", userID).Msg("recommendation result not stored")
		}
	}
	return recs, nil
}

// OnRatingAdded records a rating and drives every phase-gated trigger:
// incremental recompute, the first generation at the gate, and retrains
// at the optimizing milestones.
func (s *Service) OnRatingAdded(ctx context.Context, userID int64, rating domain.UserRating) (*RatingEvent, error) {
	if !rating.Rating.Valid() {
		return nil, domain.ErrInvalidRating
	}
	if rating.Timestamp.IsZero() {
		rating.Timestamp = time.Now().UTC()
	}

	prior, err := s.repo.GetRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch ratings: %w", err)
	}
	if err := s.repo.UpsertRating(ctx, userID, rating); err != nil {
		return nil, err
	}
	ratings := applyToLog(prior, rating)

	// Threshold triggers fire on the crossing, not on standing at the
	// count: a sentinel or re-rating while the valid count sits at a
	// milestone must not rerun the first cycle or retrain again.
	prevValid := len(domain.NumericRatings(prior))
	validCount := len(domain.NumericRatings(ratings))
	advanced := validCount > prevValid

	updated, warning := s.recomputeProfile(ctx, userID, ratings, rating)

	event := &RatingEvent{UpdatedProfile: updated, Warning: warning}

	switch {
	case !profile.CanGenerate(validCount):
		// Still initial: any stored output is cleared, nothing runs.
		if err := s.cache.ClearRecommendations(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stored recommendations not cleared")
		}
	case advanced && profile.IsFirstGeneration(validCount):
		// Crossing the gate triggers the first full cycle immediately.
		event.ShouldRegenerate = true
		if _, err := s.generate(ctx, userID, domain.DefaultFilters(), 0); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("first generation cycle failed")
		}
	default:
		event.ShouldRegenerate = true
		// Newer evidence supersedes the stored list on next read.
		if err := s.cache.ClearRecommendations(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stored recommendations not invalidated")
		}
	}

	if advanced && profile.ShouldRetrain(validCount) {
		if _, err := s.scorer.Retrain(ctx, ratings, updated, s.meta); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("secondary scorer retrain failed")
		} else {
			s.metrics.Retrains.Inc()
		}
	}

	return event, nil
}

// applyToLog mirrors the upsert on the already-fetched log so the
// trigger predicates can compare pre- and post-event counts without a
// second query.
func applyToLog(log []domain.UserRating, r domain.UserRating) []domain.UserRating {
	out := append([]domain.UserRating(nil), log...)
	for i := range out {
		if out[i].ContentID == r.ContentID {
			out[i] = r
			return out
		}
	}
	return append(out, r)
}

// recomputeProfile applies the event-time recompute ladder: incremental
// when possible, full rebuild as fallback, previous snapshot as the
// final recoverable state.
func (s *Service) recomputeProfile(ctx context.Context, userID int64, ratings []domain.UserRating, latest domain.UserRating) (*domain.UserProfile, string) {
	validCount := len(domain.NumericRatings(ratings))
	prior, err := s.cache.GetProfile(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("profile snapshot read failed")
	}

	if prior != nil && profile.ShouldRecomputeIncremental(validCount) {
		details := s.detailsForRating(ctx, latest)
		next, err := s.builder.Incremental(prior, latest, details)
		if err == nil {
			if cacheErr := s.cache.SetProfile(ctx, userID, next); cacheErr != nil {
				s.logger.Warn().Err(cacheErr).Int64("user_id", userID).Msg("profile snapshot not cached")
			}
			return next, ""
		}
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("incremental recompute failed, rebuilding")
	}

	rebuilt, err := s.BuildProfile(ctx, userID)
	if err == nil {
		return rebuilt, ""
	}
	s.logger.Error().Err(err).Int64("user_id", userID).Msg("full profile rebuild failed")

	if prior != nil {
		return prior, domain.ErrProfileRebuild.Error()
	}
	// No usable profile at all; synthesize an empty one so callers
	// always get a profile alongside the warning.
	empty, _ := s.builder.Build(ctx, nil, nil)
	return empty, domain.ErrProfileRebuild.Error()
}

func (s *Service) detailsForRating(ctx context.Context, r domain.UserRating) *domain.ItemDetails {
	details, err := s.meta.Details(ctx, r.ContentID, r.MediaType)
	if err != nil {
		s.logger.Warn().Err(err).Int("content_id", r.ContentID).Msg("rated item metadata unavailable for incremental update")
		return nil
	}
	return &details
}

// currentProfile prefers the cached snapshot and rebuilds when absent.
func (s *Service) currentProfile(ctx context.Context, userID int64, ratings []domain.UserRating) (*domain.UserProfile, error) {
	if p, err := s.cache.GetProfile(ctx, userID); err == nil && p != nil {
		return p, nil
	}
	demographics, err := s.repo.GetDemographics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch demographics: %w", err)
	}
	p, err := s.builder.Build(ctx, ratings, demographics)
	if err != nil {
		return nil, err
	}
	if cacheErr := s.cache.SetProfile(ctx, userID, p); cacheErr != nil {
		s.logger.Warn().Err(cacheErr).Int64("user_id", userID).Msg("profile snapshot not cached")
	}
	return p, nil
}

// SetDemographics stores the externally supplied demographics and
// rebuilds the profile so the adjusted scores pick them up.
func (s *Service) SetDemographics(ctx context.Context, userID int64, d domain.Demographics) (*domain.UserProfile, error) {
	if err := s.repo.UpsertDemographics(ctx, userID, d); err != nil {
		return nil, err
	}
	if err := s.cache.ClearRecommendations(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stored recommendations not invalidated")
	}
	return s.BuildProfile(ctx, userID)
}

// AddToWatchlist records an exclusion; watchlisted items never appear
// in generated lists.
func (s *Service) AddToWatchlist(ctx context.Context, userID int64, contentID int, mediaType domain.MediaType) error {
	if err := s.repo.AddToWatchlist(ctx, userID, contentID, string(mediaType)); err != nil {
		return err
	}
	if err := s.cache.ClearRecommendations(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stored recommendations not invalidated")
	}
	return nil
}

// RemoveFromWatchlist lifts the exclusion again.
func (s *Service) RemoveFromWatchlist(ctx context.Context, userID int64, contentID int) error {
	if err := s.repo.RemoveFromWatchlist(ctx, userID, contentID); err != nil {
		return err
	}
	if err := s.cache.ClearRecommendations(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stored recommendations not invalidated")
	}
	return nil
}

// ResetUser performs the full data reset: rating log, watchlist
// exclusions stay (they are not ratings), cached state goes.
func (s *Service) ResetUser(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteRatings(ctx, userID); err != nil {
		return err
	}
	if err := s.cache.ClearUser(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("user cache not fully cleared")
	}
	return nil
}

func (s *Service) normalizeSize(size int) int {
	if size > 0 {
		return size
	}
	if s.defaultSize > 0 {
		return s.defaultSize
	}
	return 20
}

// isDefaultRequest reports whether the request carries no user-chosen
// constraints, making a stored list of the same size valid for it.
func isDefaultRequest(f domain.Filters) bool {
	def := domain.DefaultFilters()
	return len(f.Genres) == 0 &&
		f.MinYear == 0 && f.MaxYear == 0 &&
		f.MinRating == 0 && (f.MaxRating == 0 || f.MaxRating == def.MaxRating) &&
		(f.MediaType == "" || f.MediaType == def.MediaType) &&
		(f.SortBy == "" || f.SortBy == def.SortBy) &&
		(f.MinMatchScore == 0 || f.MinMatchScore == def.MinMatchScore) &&
		len(f.Languages) == 0
}
