package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/reelsense/taste-engine/internal/domain"
	"github.com/reelsense/taste-engine/internal/scoring"
)

// adapterResults runs the catalog-native source: for each top seed item
// it fetches the catalog's own "recommended" and "similar" lists,
// sequentially with a fixed delay to respect the catalog's rate limits.
// Falling short of the seeded floor triggers a genre-driven popularity
// query. Each seed's fetches fail independently.
func (p *Pipeline) adapterResults(ctx context.Context, req Request, cyc *cycle) []SourceResult {
	seeds := p.topSeeds(req.Ratings)
	results := make([]SourceResult, 0, len(seeds)+1)
	admittedEstimate := 0

	for i, seed := range seeds {
		if i > 0 {
			if err := p.sleep(ctx, p.delay); err != nil {
				results = append(results, errResult(sourceAdapter, err))
				return results
			}
		}
		recs, err := p.fetchSeed(ctx, seed, req, cyc)
		if err != nil {
			results = append(results, errResult(sourceAdapter, fmt.Errorf("seed %d: %w", seed.ContentID, err)))
			continue
		}
		admittedEstimate += len(recs)
		results = append(results, okResult(sourceAdapter, recs))
	}

	if admittedEstimate < p.cfg.SeededFloor {
		results = append(results, p.seededBackfill(ctx, req, cyc))
	}
	return results
}

// topSeeds picks the user's highest numeric-rated items, most recent
// first on ties, capped at the configured seed count.
func (p *Pipeline) topSeeds(ratings []domain.UserRating) []domain.UserRating {
	numeric := domain.NumericRatings(ratings)
	sort.SliceStable(numeric, func(i, j int) bool {
		if numeric[i].Rating != numeric[j].Rating {
			return numeric[i].Rating > numeric[j].Rating
		}
		return numeric[i].Timestamp.After(numeric[j].Timestamp)
	})
	limit := p.cfg.TopSeedItems
	if limit > 10 {
		limit = 10
	}
	if len(numeric) > limit {
		numeric = numeric[:limit]
	}
	return numeric
}

// fetchSeed pulls both native result sets for one seed and scores the
// survivors. The two endpoint calls for one seed run together; seeds
// themselves stay sequential.
func (p *Pipeline) fetchSeed(ctx context.Context, seed domain.UserRating, req Request, cyc *cycle) ([]domain.Recommendation, error) {
	var recommended, similar []domain.CatalogItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := p.catalog.RecommendationsFor(gctx, seed.ContentID, seed.MediaType)
		if err != nil {
			return fmt.Errorf("recommendations: %w", err)
		}
		recommended = items
		return nil
	})
	g.Go(func() error {
		items, err := p.catalog.SimilarTo(gctx, seed.ContentID, seed.MediaType)
		if err != nil {
			return fmt.Errorf("similar: %w", err)
		}
		similar = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seedTitle := fmt.Sprintf("a title you rated %d/10", seed.Rating)
	var out []domain.Recommendation
	out = append(out, p.scoreSeedItems(recommended, seed, scoring.ContextRecommendation, seedTitle, req, cyc)...)
	out = append(out, p.scoreSeedItems(similar, seed, scoring.ContextSimilar, seedTitle, req, cyc)...)
	return out, nil
}

func (p *Pipeline) scoreSeedItems(items []domain.CatalogItem, seed domain.UserRating, sctx scoring.ScoreContext, seedTitle string, req Request, cyc *cycle) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(items))
	for _, item := range items {
		if cyc.processed(item.ID) {
			continue
		}
		if item.VoteAverage < p.weights.QualityFloorRating || item.VoteCount < p.weights.QualityFloorVotes {
			continue
		}
		if !req.Filters.AllowsItem(item) {
			continue
		}

		score := p.adapterScore(item, seed, sctx, req.Profile)
		if score < req.Filters.MinMatchScore {
			continue
		}

		rec := p.annotate(item, score, sctx, req.Profile)
		rec.Reasons = prependReason(rec.Reasons, "Because you liked "+seedTitle)
		out = append(out, rec)
	}
	return out
}

// adapterScore is the source-weighted variant of the affinity score:
// a context base, a bonus proportional to the seed's rating, and scaled
// quality/popularity/genre/period terms, demographic-adjusted.
func (p *Pipeline) adapterScore(item domain.CatalogItem, seed domain.UserRating, sctx scoring.ScoreContext, prof *domain.UserProfile) float64 {
	w := p.weights
	base := w.RecommendationBase
	if sctx == scoring.ContextSimilar {
		base = w.SimilarityBase
	}

	score := base + (float64(seed.Rating)-5)*w.SeedRatingBonus
	score += 0.5 * (w.Quality*(item.VoteAverage/10*100) +
		w.Popularity*math.Min(100, scoring.PopularityNorm(item.VoteCount, w)) +
		w.GenreAverage*avgProfileGenreWeight(item.Genres, prof) +
		w.Period*prof.PeriodPreference[item.Decade()])

	if item.VoteAverage >= w.HighQualityThreshold {
		score *= w.AdapterQualityBoost
	}
	return scoring.AdjustDemographic(score, item, prof, w)
}

func avgProfileGenreWeight(genres []int, prof *domain.UserProfile) float64 {
	if len(genres) == 0 {
		return 0
	}
	sum := 0.0
	for _, g := range genres {
		sum += prof.GenreDistribution[g]
	}
	return sum / float64(len(genres))
}

// seededBackfill tops up a thin seeded pool with a popularity query over
// the user's strongest genres. No seed item involved.
func (p *Pipeline) seededBackfill(ctx context.Context, req Request, cyc *cycle) SourceResult {
	topGenres := req.Profile.TopGenres(3)
	if len(topGenres) == 0 {
		return okResult(sourceAdapter, nil)
	}

	items, err := p.discoverBoth(ctx, req, discoverSpec{
		genres:         topGenres,
		minVoteAverage: p.weights.QualityFloorRating,
		minVoteCount:   p.weights.QualityFloorVotes,
	})
	if err != nil {
		return errResult(sourceAdapter, fmt.Errorf("seeded backfill: %w", err))
	}

	out := make([]domain.Recommendation, 0, len(items))
	for _, item := range items {
		if cyc.processed(item.ID) || !req.Filters.AllowsItem(item) {
			continue
		}
		score := scoring.AdjustDemographic(
			scoring.Score(item, req.Profile, scoring.ContextSingleGenre, p.weights),
			item, req.Profile, p.weights)
		if score < req.Filters.MinMatchScore {
			continue
		}
		rec := p.annotate(item, score, scoring.ContextSingleGenre, req.Profile)
		out = append(out, rec)
	}
	return okResult(sourceAdapter, out)
}
