package neural

import (
	"context"
	"time"
)

// DefaultModelID keys the single per-deployment model. Multi-tenant
// setups key one model per user instead.
const DefaultModelID = "taste-v1"

// Model is a persisted weight snapshot. Weights has FeatureDim entries
// plus a trailing bias term.
type Model struct {
	ID          string    `json:"id"`
	Version     int       `json:"version"`
	Weights     []float64 `json:"weights"`
	SampleCount int       `json:"sample_count"`
	TrainedAt   time.Time `json:"trained_at"`
}

// ModelStore persists trained weight vectors. The persistence backend is
// a collaborator, never package-level state.
type ModelStore interface {
	Save(ctx context.Context, m *Model) error
	// Load returns domain.ErrModelNotTrained when no snapshot exists.
	Load(ctx context.Context, modelID string) (*Model, error)
}
