package scoring

import (
	"math"

	"github.com/reelsense/taste-engine/internal/domain"
)

// Score rates a candidate against a profile on a 0-100 scale. It is a
// pure function: same item, profile, context and weights always produce
// the same score.
func Score(item domain.CatalogItem, p *domain.UserProfile, ctx ScoreContext, w ScoringWeights) float64 {
	score := w.GenreCombination*GenreCombinationAffinity(item.Genres, p) +
		w.GenreAverage*avgGenreWeight(item.Genres, p.GenreDistribution) +
		w.Quality*(item.VoteAverage/10*100) +
		w.Popularity*math.Min(100, PopularityNorm(item.VoteCount, w)) +
		w.Period*periodPreference(item.Decade(), p)

	score *= w.contextMultiplier(ctx)

	// The adapter's stronger quality boost lives in its own
	// source-weighted score; every Score context shares the sweep boost.
	if item.VoteAverage >= w.HighQualityThreshold {
		score *= w.HighQualityBoost
	}

	return clampScore(score)
}

// GenreCombinationAffinity returns 0-1 preference strength for the
// candidate's genre set. Items matching a learned 2- or 3-genre
// combination beat single-genre matches; larger matched combinations
// beat smaller ones.
func GenreCombinationAffinity(genres []int, p *domain.UserProfile) float64 {
	best := 0.0
	for _, combo := range p.GenreCombinations {
		if !combo.Matches(genres) {
			continue
		}
		strength := combo.Strength
		if len(combo.Genres) == 2 {
			strength *= 0.8
		}
		if strength > best {
			best = strength
		}
	}
	if best > 0 {
		return math.Min(1, best)
	}
	// No learned combination applies: fall back to a dampened
	// single-genre signal so sets the user merely likes still register.
	return math.Min(1, avgGenreWeight(genres, p.GenreDistribution)/100*0.5)
}

// avgGenreWeight is the mean 0-100 profile weight across the item's
// genres. Unknown genres count as zero so broad tag lists earn nothing
// for free.
func avgGenreWeight(genres []int, dist map[int]float64) float64 {
	if len(genres) == 0 {
		return 0
	}
	sum := 0.0
	for _, g := range genres {
		sum += dist[g]
	}
	return sum / float64(len(genres))
}

// PopularityNorm maps a raw vote count onto 0-100.
func PopularityNorm(voteCount int, w ScoringWeights) float64 {
	return float64(voteCount) / w.PopularityVoteDivisor
}

// periodPreference is the profile's 0-100 weight for the item's release
// decade.
func periodPreference(decade int, p *domain.UserProfile) float64 {
	if decade == 0 || len(p.PeriodPreference) == 0 {
		return 0
	}
	return p.PeriodPreference[decade]
}

// Less orders two scored candidates: higher score wins, vote count
// breaks ties.
func Less(scoreI, scoreJ float64, itemI, itemJ domain.CatalogItem) bool {
	if scoreI != scoreJ {
		return scoreI > scoreJ
	}
	return itemI.VoteCount > itemJ.VoteCount
}
