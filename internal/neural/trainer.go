package neural

import (
	"context"
	"fmt"
	"time"

	"github.com/reelsense/taste-engine/internal/domain"
	"github.com/reelsense/taste-engine/internal/profile"
)

// Training hyperparameters. Fixed so that two retrains over the same
// rating log produce identical weights.
const (
	trainEpochs       = 40
	trainLearningRate = 0.05
)

// Retrain recomputes the weight vector from the full rating log and
// persists it. Rated items without reachable metadata are skipped; the
// retrain fails only when no sample at all can be built.
func (s *Scorer) Retrain(ctx context.Context, ratings []domain.UserRating, p *domain.UserProfile, meta profile.MetadataSource) (*Model, error) {
	numeric := domain.NumericRatings(ratings)
	if len(numeric) < profile.MinRatingsForRetraining {
		return nil, fmt.Errorf("retrain needs at least %d numeric ratings, have %d", profile.MinRatingsForRetraining, len(numeric))
	}

	type sample struct {
		x []float64
		y float64
	}
	samples := make([]sample, 0, len(numeric))
	for _, r := range numeric {
		details, err := meta.Details(ctx, r.ContentID, r.MediaType)
		if err != nil {
			s.logger.Warn().Err(err).Int("content_id", r.ContentID).Msg("skipping training sample without metadata")
			continue
		}
		samples = append(samples, sample{
			x: Vector(details.CatalogItem, p, s.weights),
			y: float64(r.Rating),
		})
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("retrain: no usable training samples from %d ratings", len(numeric))
	}

	// Deterministic error-gradient passes in log order, bias last.
	weights := make([]float64, FeatureDim+1)
	weights[FeatureDim] = 5.5 // start at the scale midpoint
	for epoch := 0; epoch < trainEpochs; epoch++ {
		lr := trainLearningRate / (1 + float64(epoch)/10)
		for _, sm := range samples {
			pred := weights[FeatureDim]
			for i, v := range sm.x {
				pred += weights[i] * v
			}
			err := sm.y - pred
			for i, v := range sm.x {
				weights[i] += lr * err * v
			}
			weights[FeatureDim] += lr * err
		}
	}

	prevVersion := 0
	if prev, err := s.store.Load(ctx, DefaultModelID); err == nil {
		prevVersion = prev.Version
	}

	model := &Model{
		ID:          DefaultModelID,
		Version:     prevVersion + 1,
		Weights:     weights,
		SampleCount: len(samples),
		TrainedAt:   time.Now().UTC(),
	}
	if err := s.store.Save(ctx, model); err != nil {
		return nil, fmt.Errorf("persist model: %w", err)
	}
	s.setModel(model)

	s.logger.Info().
		Int("version", model.Version).
		Int("samples", model.SampleCount).
		Msg("secondary scorer retrained")
	return model, nil
}
