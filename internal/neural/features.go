// Package neural is the secondary scorer: a fixed-architecture weighted
// feature scorer retrained from the rating log. It is not a statistical
// model and does not try to be one; it exists to add an independent,
// history-calibrated signal to the pipeline.
package neural

import (
	"math"

	"github.com/reelsense/taste-engine/internal/domain"
	"github.com/reelsense/taste-engine/internal/scoring"
)

// FeatureDim is the fixed width of every feature vector. The layout
// below uses the first portion; the rest stays zero-padded so the weight
// vector shape never changes when features are added.
const FeatureDim = 128

// featureGenres is the stable genre ordering used for the one-hot and
// affinity blocks.
var featureGenres = domain.KnownGenres()

// Vector encodes a candidate against a profile as a normalized [0,1]
// feature vector of length FeatureDim.
func Vector(item domain.CatalogItem, p *domain.UserProfile, w scoring.ScoringWeights) []float64 {
	x := make([]float64, FeatureDim)
	i := 0

	// Genre membership block.
	for _, g := range featureGenres {
		if item.HasGenre(g) {
			x[i] = 1
		}
		i++
	}
	// Profile genre-weight block, aligned with the membership block.
	for _, g := range featureGenres {
		x[i] = p.GenreDistribution[g] / 100
		i++
	}

	// Item-derived scalars.
	x[i] = item.VoteAverage / 10
	i++
	x[i] = math.Min(1, float64(item.VoteCount)/10000)
	i++
	x[i] = math.Min(1, item.Popularity/1000)
	i++
	x[i] = normalizeYear(item.ReleaseYear)
	i++
	if item.MediaType == domain.MediaTypeMovie {
		x[i] = 1
	}
	i++

	// Profile-derived scalars.
	x[i] = scoring.GenreCombinationAffinity(item.Genres, p)
	i++
	x[i] = p.PeriodPreference[item.Decade()] / 100
	i++
	x[i] = p.AverageScore / 10
	i++
	x[i] = math.Min(1, float64(p.TotalRatings)/100)
	i++
	x[i] = p.Tempo.Recency
	i++
	x[i] = p.Tempo.Seasonality
	i++
	if p.Demographics != nil && p.Demographics.Language != "" && item.Language == p.Demographics.Language {
		x[i] = 1
	}
	i++
	if item.VoteAverage >= p.QualityTolerance.MinRating {
		x[i] = 1
	}

	return x
}

func normalizeYear(year int) float64 {
	if year == 0 {
		return 0
	}
	v := float64(year-1900) / 150
	return math.Max(0, math.Min(1, v))
}
