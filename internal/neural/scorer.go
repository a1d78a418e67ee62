package neural

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reelsense/taste-engine/internal/domain"
	"github.com/reelsense/taste-engine/internal/scoring"
)

// InferenceError marks a secondary-scorer failure so callers can treat
// it as one more transient source.
type InferenceError struct {
	Msg string
}

func (e *InferenceError) Error() string { return e.Msg }

func IsInferenceError(err error) bool {
	var target *InferenceError
	return errors.As(err, &target)
}

// Scorer predicts a 1-10 rating for a candidate. With no trained weights
// it falls back to the content-affinity score rescaled onto [1,10].
type Scorer struct {
	store   ModelStore
	weights scoring.ScoringWeights
	logger  zerolog.Logger

	mu    sync.RWMutex
	model *Model
}

func NewScorer(store ModelStore, weights scoring.ScoringWeights, logger zerolog.Logger) *Scorer {
	return &Scorer{
		store:   store,
		weights: weights,
		logger:  logger.With().Str("component", "neural").Logger(),
	}
}

// Predict returns the predicted rating in [1,10] and whether a trained
// model produced it.
func (s *Scorer) Predict(ctx context.Context, item domain.CatalogItem, p *domain.UserProfile) (float64, bool, error) {
	model, err := s.currentModel(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrModelNotTrained) {
			return s.fallback(item, p), false, nil
		}
		return 0, false, &InferenceError{Msg: fmt.Sprintf("load model: %v", err)}
	}

	x := Vector(item, p, s.weights)
	if len(model.Weights) != len(x)+1 {
		return 0, false, &InferenceError{Msg: fmt.Sprintf("weight vector has %d entries, want %d", len(model.Weights), len(x)+1)}
	}

	pred := model.Weights[len(x)] // bias
	for i, v := range x {
		pred += model.Weights[i] * v
	}
	return clampRating(pred), true, nil
}

// MatchScore converts a predicted rating into the pipeline's 0-100
// scale.
func MatchScore(predicted float64) float64 {
	return (predicted - 1) / 9 * 100
}

// currentModel returns the cached snapshot, loading it once from the
// store on first use.
func (s *Scorer) currentModel(ctx context.Context) (*Model, error) {
	s.mu.RLock()
	model := s.model
	s.mu.RUnlock()
	if model != nil {
		return model, nil
	}

	loaded, err := s.store.Load(ctx, DefaultModelID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.model = loaded
	s.mu.Unlock()
	return loaded, nil
}

func (s *Scorer) setModel(m *Model) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}

// Trained reports whether a weight snapshot is available.
func (s *Scorer) Trained(ctx context.Context) bool {
	_, err := s.currentModel(ctx)
	return err == nil
}

func (s *Scorer) fallback(item domain.CatalogItem, p *domain.UserProfile) float64 {
	base := scoring.Score(item, p, scoring.ContextSingleGenre, s.weights)
	return clampRating(base/100*9 + 1)
}

func clampRating(r float64) float64 {
	if r < 1 {
		return 1
	}
	if r > 10 {
		return 10
	}
	return r
}
