package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/reelsense/taste-engine/internal/domain"
	"github.com/reelsense/taste-engine/internal/scoring"
)

const maxReasons = 4

// annotate wraps a scored item into a full Recommendation: reasons,
// explanation, novelty/diversity/confidence and the score-derived type.
func (p *Pipeline) annotate(item domain.CatalogItem, score float64, sctx scoring.ScoreContext, prof *domain.UserProfile) domain.Recommendation {
	rec := domain.Recommendation{
		Item:       item,
		MatchScore: math.Round(score*10) / 10,
		Confidence: confidence(score, prof),
		Novelty:    novelty(item, prof),
		Diversity:  diversity(item, prof),
		Type:       domain.TypeForScore(score),
		Source:     sctx.String(),
	}

	rec.Reasons, rec.Explanation = explain(item, score, sctx, prof)
	return rec
}

func explain(item domain.CatalogItem, score float64, sctx scoring.ScoreContext, prof *domain.UserProfile) ([]string, domain.Explanation) {
	var reasons []string
	var exp domain.Explanation

	if combo := bestCombination(item, prof); combo != nil {
		reasons = append(reasons, "Matches your "+combo.Name+" taste")
		exp.PrimaryFactors = append(exp.PrimaryFactors, fmt.Sprintf("strong %s affinity", combo.Name))
	} else if names := likedGenres(item, prof); len(names) > 0 {
		reasons = append(reasons, "More "+strings.Join(names, " and ")+" for you")
		exp.PrimaryFactors = append(exp.PrimaryFactors, "genre preference match")
	}

	if item.VoteAverage >= 8 {
		reasons = append(reasons, fmt.Sprintf("Critically acclaimed (%.1f/10)", item.VoteAverage))
		exp.SecondaryFactors = append(exp.SecondaryFactors, "high catalog rating")
	} else if item.VoteAverage >= 7 {
		exp.SecondaryFactors = append(exp.SecondaryFactors, "solid catalog rating")
	}

	if decade := item.Decade(); decade > 0 && prof.PeriodPreference[decade] >= 25 {
		reasons = append(reasons, fmt.Sprintf("From the %ds, your favorite era", decade))
		exp.SecondaryFactors = append(exp.SecondaryFactors, "preferred release period")
	}

	if item.VoteCount < 500 {
		exp.RiskFactors = append(exp.RiskFactors, "limited audience data")
	}
	if sctx == scoring.ContextDiversity {
		exp.PrimaryFactors = append(exp.PrimaryFactors, "deliberate variety pick")
	}
	if score < 70 {
		exp.RiskFactors = append(exp.RiskFactors, "weaker profile match")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Picked for your taste profile")
	}
	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons, exp
}

func prependReason(reasons []string, reason string) []string {
	out := append([]string{reason}, reasons...)
	if len(out) > maxReasons {
		out = out[:maxReasons]
	}
	return out
}

func bestCombination(item domain.CatalogItem, prof *domain.UserProfile) *domain.GenreCombination {
	for i := range prof.GenreCombinations {
		if prof.GenreCombinations[i].Matches(item.Genres) {
			return &prof.GenreCombinations[i]
		}
	}
	return nil
}

func likedGenres(item domain.CatalogItem, prof *domain.UserProfile) []string {
	var names []string
	for _, g := range item.Genres {
		if prof.GenreDistribution[g] >= 15 {
			if name := domain.GenreName(g); name != "" {
				names = append(names, name)
			}
		}
		if len(names) == 2 {
			break
		}
	}
	return names
}

// novelty: how far the item sits from what the user already knows.
// Obscure titles in unfamiliar genres score high.
func novelty(item domain.CatalogItem, prof *domain.UserProfile) float64 {
	obscurity := 1 - math.Min(1, float64(item.VoteCount)/10000)
	unfamiliar := 1 - math.Min(1, avgProfileGenreWeight(item.Genres, prof)/100)
	return round2(0.5*obscurity + 0.5*unfamiliar)
}

// diversity: the share of the item's genres with no profile evidence.
func diversity(item domain.CatalogItem, prof *domain.UserProfile) float64 {
	if len(item.Genres) == 0 {
		return 0
	}
	absent := 0
	for _, g := range item.Genres {
		if prof.GenreDistribution[g] == 0 {
			absent++
		}
	}
	return round2(float64(absent) / float64(len(item.Genres)))
}

// confidence grows with both rating evidence and match strength.
func confidence(score float64, prof *domain.UserProfile) float64 {
	evidence := math.Min(1, float64(prof.TotalRatings)/50)
	return round2(0.5*evidence + 0.5*score/100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// applyFilters keeps candidates passing every active user filter plus
// the match-score floor.
func applyFilters(recs []domain.Recommendation, f domain.Filters) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if !f.AllowsItem(rec.Item) {
			continue
		}
		if rec.MatchScore < f.MinMatchScore {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// sortRecommendations orders by the user-chosen key. Match score stays
// the tiebreak for every other key; vote count breaks score ties.
func sortRecommendations(recs []domain.Recommendation, key domain.SortKey) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		switch key {
		case domain.SortByRating:
			if a.Item.VoteAverage != b.Item.VoteAverage {
				return a.Item.VoteAverage > b.Item.VoteAverage
			}
		case domain.SortByYear:
			if a.Item.ReleaseYear != b.Item.ReleaseYear {
				return a.Item.ReleaseYear > b.Item.ReleaseYear
			}
		case domain.SortByTitle:
			if a.Item.Title != b.Item.Title {
				return a.Item.Title < b.Item.Title
			}
		}
		return scoring.Less(a.MatchScore, b.MatchScore, a.Item, b.Item)
	})
}
