package profile

import "github.com/reelsense/taste-engine/internal/domain"

// Learning-phase thresholds. Product-tuned values, preserved verbatim;
// counts refer to valid numeric ratings only.
const (
	// MinRatingsForRecommendations gates the first pipeline run.
	MinRatingsForRecommendations = 10
	// MinRatingsForRetraining gates the secondary scorer's training.
	MinRatingsForRetraining = 20
	// RetrainEvery retrains on each multiple of this count past the gate.
	RetrainEvery = 10
	// MinRatingsForIncremental enables cheap per-event recomputes.
	MinRatingsForIncremental = 3
)

// PhaseFor maps a valid-rating count onto a learning phase. Phases only
// advance; callers must never regress a stored profile's phase.
func PhaseFor(validCount int) domain.LearningPhase {
	switch {
	case validCount >= MinRatingsForRetraining:
		return domain.PhaseOptimizing
	case validCount >= MinRatingsForRecommendations:
		return domain.PhaseTesting
	default:
		return domain.PhaseInitial
	}
}

// CanGenerate reports whether the pipeline may run at all.
func CanGenerate(validCount int) bool {
	return validCount >= MinRatingsForRecommendations
}

// IsFirstGeneration reports whether the count sits exactly at the
// generation gate. Callers decide whether the triggering event actually
// advanced the count onto it.
func IsFirstGeneration(validCount int) bool {
	return validCount == MinRatingsForRecommendations
}

// ShouldRetrain reports whether the count is a retrain milestone: the
// 20th rating and every 10th after it. Like IsFirstGeneration, the
// caller checks that the event moved the count onto the milestone.
func ShouldRetrain(validCount int) bool {
	return validCount >= MinRatingsForRetraining && validCount%RetrainEvery == 0
}

// ShouldRecomputeIncremental reports whether a rating event warrants the
// cheap local profile update.
func ShouldRecomputeIncremental(validCount int) bool {
	return validCount >= MinRatingsForIncremental
}
