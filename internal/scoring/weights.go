// Package scoring holds the pure scoring math: the content-affinity
// scorer and the demographic adjuster. Every tunable lives in
// ScoringWeights so tests and config can pin or tune them without code
// edits.
package scoring

import "fmt"

// ScoreContext describes how a candidate reached the scorer. Richer
// genre-combination contexts earn a multiplier.
type ScoreContext int

const (
	ContextSingleGenre ScoreContext = iota
	ContextGenrePair
	ContextGenreTriple
	ContextRecommendation
	ContextSimilar
	ContextPerson
	ContextDiversity
	ContextPopular
)

func (c ScoreContext) String() string {
	switch c {
	case ContextSingleGenre:
		return "genre"
	case ContextGenrePair:
		return "genre_pair"
	case ContextGenreTriple:
		return "genre_triple"
	case ContextRecommendation:
		return "recommendation"
	case ContextSimilar:
		return "similar"
	case ContextPerson:
		return "person"
	case ContextDiversity:
		return "diversity"
	case ContextPopular:
		return "popular"
	default:
		return "unknown"
	}
}

// ScoringWeights centralizes every scoring constant. The values are
// product-tuned with no documented derivation; they are preserved
// verbatim and overridable, not re-derived.
type ScoringWeights struct {
	// Weighted-sum terms of the content-affinity score.
	GenreCombination float64 // scales a 0-1 affinity
	GenreAverage     float64 // scales a 0-100 mean genre weight
	Quality          float64 // scales rating/10*100
	Popularity       float64 // scales min(100, votes/PopularityVoteDivisor)
	Period           float64 // scales a 0-100 decade preference

	// Context multipliers for richer genre-combination matches.
	PairContextBoost   float64
	TripleContextBoost float64

	// High-quality boost applied above HighQualityThreshold.
	HighQualityThreshold float64
	HighQualityBoost     float64 // affinity sweeps
	AdapterQualityBoost  float64 // catalog-native adapter

	// Catalog-native adapter bases and seed bonus.
	RecommendationBase float64
	SimilarityBase     float64
	SeedRatingBonus    float64 // per point of the seed item's rating

	// Hard quality floor for adapter candidates.
	QualityFloorRating float64
	QualityFloorVotes  int

	// PopularityVoteDivisor normalizes raw vote counts to 0-100.
	PopularityVoteDivisor float64

	// Demographic blend: base*(1-DemographicBlend) + demo*DemographicBlend.
	DemographicBlend float64
}

// DefaultWeights returns the tuned production values.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		GenreCombination:      35,
		GenreAverage:          0.3,
		Quality:               0.2,
		Popularity:            0.1,
		Period:                0.05,
		PairContextBoost:      1.10,
		TripleContextBoost:    1.25,
		HighQualityThreshold:  8.5,
		HighQualityBoost:      1.15,
		AdapterQualityBoost:   1.2,
		RecommendationBase:    70,
		SimilarityBase:        65,
		SeedRatingBonus:       1.5,
		QualityFloorRating:    6.0,
		QualityFloorVotes:     100,
		PopularityVoteDivisor: 100,
		DemographicBlend:      0.2,
	}
}

// Validate rejects weight sets that cannot produce scores in [0,100].
func (w ScoringWeights) Validate() error {
	if w.DemographicBlend < 0 || w.DemographicBlend > 1 {
		return fmt.Errorf("demographic blend must be in [0,1], got %.2f", w.DemographicBlend)
	}
	if w.PairContextBoost < 1 || w.TripleContextBoost < w.PairContextBoost {
		return fmt.Errorf("context boosts must satisfy 1 <= pair <= triple")
	}
	if w.PopularityVoteDivisor <= 0 {
		return fmt.Errorf("popularity vote divisor must be positive")
	}
	if w.QualityFloorRating < 0 || w.QualityFloorRating > 10 {
		return fmt.Errorf("quality floor rating must be in [0,10], got %.1f", w.QualityFloorRating)
	}
	return nil
}

// contextMultiplier returns the boost for the given source context.
func (w ScoringWeights) contextMultiplier(ctx ScoreContext) float64 {
	switch ctx {
	case ContextGenrePair:
		return w.PairContextBoost
	case ContextGenreTriple:
		return w.TripleContextBoost
	default:
		return 1.0
	}
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
