package domain

import (
	"sort"
	"time"
)

// LearningPhase gates which scorers may run. It advances with the
// cumulative valid-rating count and never regresses.
type LearningPhase string

const (
	PhaseInitial    LearningPhase = "initial"
	PhaseTesting    LearningPhase = "testing"
	PhaseOptimizing LearningPhase = "optimizing"
)

// PersonAffinity aggregates a user's history with one actor or director.
type PersonAffinity struct {
	PersonID      int     `json:"person_id"`
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	AverageRating float64 `json:"average_rating"`
}

// GenreCombination is a learned preference for a set of co-occurring
// genre tags, distinct from single-genre preference.
type GenreCombination struct {
	Name     string  `json:"name"`
	Genres   []int   `json:"genres"`
	Strength float64 `json:"strength"`
	Count    int     `json:"count"`
}

// Matches reports whether every genre of the combination appears on the
// candidate's genre set.
func (gc GenreCombination) Matches(genres []int) bool {
	set := make(map[int]struct{}, len(genres))
	for _, g := range genres {
		set[g] = struct{}{}
	}
	for _, g := range gc.Genres {
		if _, ok := set[g]; !ok {
			return false
		}
	}
	return true
}

// QualityTolerance captures how forgiving the user is about low-rated or
// obscure content.
type QualityTolerance struct {
	MinRating        float64 `json:"min_rating"`
	MinVoteCount     int     `json:"min_vote_count"`
	PreferredDecades []int   `json:"preferred_decades"`
}

// TempoPreference captures viewing rhythm signals derived from rating
// timestamps.
type TempoPreference struct {
	Seasonality float64 `json:"seasonality"`
	Recency     float64 `json:"recency"`
}

// Demographics is supplied externally and passed through verbatim; it is
// never inferred from ratings.
type Demographics struct {
	Age                int    `json:"age,omitempty"`
	Gender             string `json:"gender,omitempty"`
	Country            string `json:"country,omitempty"`
	Language           string `json:"language,omitempty"`
	Education          string `json:"education,omitempty"`
	RelationshipStatus string `json:"relationship_status,omitempty"`
	HasChildren        bool   `json:"has_children,omitempty"`
	ChildrenAges       []int  `json:"children_ages,omitempty"`
}

// UserProfile is derived state: always reproducible as a pure function of
// the rating log plus demographics.
type UserProfile struct {
	TotalRatings int           `json:"total_ratings"`
	AverageScore float64       `json:"average_score"`
	Phase        LearningPhase `json:"learning_phase"`

	// Weight maps are normalized to a 0-100 share of rated evidence.
	GenreDistribution        map[int]float64 `json:"genre_distribution"`
	GenreQualityDistribution map[int]float64 `json:"genre_quality_distribution"`
	PeriodPreference         map[int]float64 `json:"period_preference"`
	Tempo                    TempoPreference `json:"tempo_preference"`

	GenreCombinations []GenreCombination     `json:"genre_combinations"`
	FavoriteActors    map[int]PersonAffinity `json:"favorite_actors"`
	FavoriteDirectors map[int]PersonAffinity `json:"favorite_directors"`

	QualityTolerance QualityTolerance `json:"quality_tolerance"`
	Demographics     *Demographics    `json:"demographics,omitempty"`

	LastUpdated   time.Time `json:"last_updated"`
	AccuracyScore *float64  `json:"accuracy_score,omitempty"`
}

// TopGenres returns the profile's genre IDs ordered by descending weight.
func (p *UserProfile) TopGenres(n int) []int {
	type gw struct {
		id int
		w  float64
	}
	all := make([]gw, 0, len(p.GenreDistribution))
	for id, w := range p.GenreDistribution {
		all = append(all, gw{id, w})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].w != all[j].w {
			return all[i].w > all[j].w
		}
		return all[i].id < all[j].id
	})
	if n > len(all) {
		n = len(all)
	}
	out := make([]int, 0, n)
	for _, g := range all[:n] {
		out = append(out, g.id)
	}
	return out
}

// TopPeople returns up to n person affinities ordered by count then mean
// rating.
func TopPeople(people map[int]PersonAffinity, n int) []PersonAffinity {
	all := make([]PersonAffinity, 0, len(people))
	for _, p := range people {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return lessAffinity(all[j], all[i]) })
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

func lessAffinity(a, b PersonAffinity) bool {
	if a.Count != b.Count {
		return a.Count < b.Count
	}
	if a.AverageRating != b.AverageRating {
		return a.AverageRating < b.AverageRating
	}
	return a.PersonID > b.PersonID
}
