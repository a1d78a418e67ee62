package recommend

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/reelsense/taste-engine/internal/catalog"
	"github.com/reelsense/taste-engine/internal/domain"
	"github.com/reelsense/taste-engine/internal/neural"
	"github.com/reelsense/taste-engine/internal/scoring"
)

// discoverSpec is a media-type-agnostic discovery query; discoverBoth
// fans it out across the movie and show branches.
type discoverSpec struct {
	genres         []int
	withoutGenres  []int
	minVoteAverage float64
	minVoteCount   int
	sortBy         string
}

// discoverBoth issues the query for both media branches concurrently,
// honoring the user's media-type filter. One branch failing does not
// sink the other; it fails only when nothing succeeded.
func (p *Pipeline) discoverBoth(ctx context.Context, req Request, spec discoverSpec) ([]domain.CatalogItem, error) {
	mediaTypes := make([]domain.MediaType, 0, 2)
	if req.Filters.AllowsMediaType(domain.MediaTypeMovie) {
		mediaTypes = append(mediaTypes, domain.MediaTypeMovie)
	}
	if req.Filters.AllowsMediaType(domain.MediaTypeTV) {
		mediaTypes = append(mediaTypes, domain.MediaTypeTV)
	}

	var (
		mu      sync.Mutex
		items   []domain.CatalogItem
		lastErr error
		g       errgroup.Group
	)
	for _, mt := range mediaTypes {
		g.Go(func() error {
			batch, err := p.catalog.Discover(ctx, catalog.DiscoverParams{
				MediaType:      mt,
				Genres:         spec.genres,
				WithoutGenres:  spec.withoutGenres,
				MinVoteAverage: spec.minVoteAverage,
				MinVoteCount:   spec.minVoteCount,
				YearFrom:       req.Filters.MinYear,
				YearTo:         req.Filters.MaxYear,
				SortBy:         spec.sortBy,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lastErr = err
				return nil // branch failures are tolerated
			}
			items = append(items, batch...)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // branches never return errors
	if len(items) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return items, nil
}

// neuralSource scores discovery candidates with the secondary scorer.
// Only invoked once the profile is in the optimizing phase.
func (p *Pipeline) neuralSource(ctx context.Context, req Request, cyc *cycle) SourceResult {
	items, err := p.discoverBoth(ctx, req, discoverSpec{
		genres:       req.Profile.TopGenres(topGenresForSweep),
		minVoteCount: p.weights.QualityFloorVotes,
	})
	if err != nil {
		return errResult(sourceNeural, err)
	}

	out := make([]domain.Recommendation, 0, len(items))
	for _, item := range items {
		if cyc.processed(item.ID) {
			continue
		}
		predicted, trained, err := p.neural.Predict(ctx, item, req.Profile)
		if err != nil {
			return errResult(sourceNeural, err)
		}
		score := scoring.AdjustDemographic(neural.MatchScore(predicted), item, req.Profile, p.weights)
		rec := p.annotate(item, score, scoring.ContextSingleGenre, req.Profile)
		rec.Source = sourceNeural
		if trained {
			rec.Reasons = prependReason(rec.Reasons, fmt.Sprintf("Predicted rating %.1f/10 from your history", predicted))
		}
		out = append(out, rec)
	}
	return okResult(sourceNeural, out)
}

// genreSweep queries the user's strongest single genres and learned
// genre pairs/triples concurrently, scoring with the matching context
// multiplier.
func (p *Pipeline) genreSweep(ctx context.Context, req Request, cyc *cycle) SourceResult {
	type query struct {
		genres []int
		sctx   scoring.ScoreContext
	}

	queries := make([]query, 0, topGenresForSweep+topCombosForSweep)
	for _, g := range req.Profile.TopGenres(topGenresForSweep) {
		queries = append(queries, query{genres: []int{g}, sctx: scoring.ContextSingleGenre})
	}
	combos := req.Profile.GenreCombinations
	if len(combos) > topCombosForSweep {
		combos = combos[:topCombosForSweep]
	}
	for _, combo := range combos {
		sctx := scoring.ContextGenrePair
		if len(combo.Genres) >= 3 {
			sctx = scoring.ContextGenreTriple
		}
		queries = append(queries, query{genres: combo.Genres, sctx: sctx})
	}
	if len(queries) == 0 {
		return okResult(sourceGenres, nil)
	}

	var (
		mu       sync.Mutex
		out      []domain.Recommendation
		failures int
		lastErr  error
		g        errgroup.Group
	)
	for _, q := range queries {
		g.Go(func() error {
			items, err := p.discoverBoth(ctx, req, discoverSpec{
				genres:         q.genres,
				minVoteAverage: req.Profile.QualityTolerance.MinRating,
				minVoteCount:   req.Profile.QualityTolerance.MinVoteCount,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				lastErr = err
				return nil
			}
			for _, item := range items {
				score := scoring.AdjustDemographic(
					scoring.Score(item, req.Profile, q.sctx, p.weights),
					item, req.Profile, p.weights)
				out = append(out, p.annotate(item, score, q.sctx, req.Profile))
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // queries never return errors

	if len(out) == 0 && failures == len(queries) && lastErr != nil {
		return errResult(sourceGenres, lastErr)
	}
	// Dedup happens at fold time; pre-checking cyc here would race with
	// nothing (single control flow) but items from parallel queries
	// overlap heavily, so drop in-batch duplicates early.
	return okResult(sourceGenres, dropBatchDuplicates(out, cyc))
}

// personSweep pulls filmographies for the user's top favorite actors.
func (p *Pipeline) personSweep(ctx context.Context, req Request, cyc *cycle) SourceResult {
	actors := domain.TopPeople(req.Profile.FavoriteActors, topActorsForSweep)
	if len(actors) == 0 {
		return okResult(sourcePeople, nil)
	}

	var out []domain.Recommendation
	failures := 0
	var lastErr error
	for _, actor := range actors {
		credits, err := p.catalog.PersonCredits(ctx, actor.PersonID)
		if err != nil {
			failures++
			lastErr = err
			continue
		}
		for _, item := range credits.Cast {
			if cyc.processed(item.ID) {
				continue
			}
			if item.VoteAverage < p.weights.QualityFloorRating || item.VoteCount < p.weights.QualityFloorVotes {
				continue
			}
			score := scoring.AdjustDemographic(
				scoring.Score(item, req.Profile, scoring.ContextPerson, p.weights),
				item, req.Profile, p.weights)
			rec := p.annotate(item, score, scoring.ContextPerson, req.Profile)
			rec.Reasons = prependReason(rec.Reasons, "Features "+actor.Name)
			out = append(out, rec)
		}
	}
	if len(out) == 0 && failures == len(actors) && lastErr != nil {
		return errResult(sourcePeople, lastErr)
	}
	return okResult(sourcePeople, dropBatchDuplicates(out, cyc))
}

// diversitySweep surfaces genres the profile has no evidence for at
// all, feeding the serendipity end of the list.
func (p *Pipeline) diversitySweep(ctx context.Context, req Request, cyc *cycle) SourceResult {
	absent := make([]int, 0, diversityGenreCount)
	for _, g := range domain.KnownGenres() {
		if req.Profile.GenreDistribution[g] > 0 {
			continue
		}
		if g == domain.GenreTVKids {
			continue
		}
		absent = append(absent, g)
		if len(absent) == diversityGenreCount {
			break
		}
	}
	if len(absent) == 0 {
		return okResult(sourceDiversity, nil)
	}

	items, err := p.discoverBoth(ctx, req, discoverSpec{
		genres:         absent,
		minVoteAverage: 7.0, // unfamiliar territory: only well-received picks
		minVoteCount:   p.weights.QualityFloorVotes,
		sortBy:         catalog.SortVoteAverage,
	})
	if err != nil {
		return errResult(sourceDiversity, err)
	}

	out := make([]domain.Recommendation, 0, len(items))
	for _, item := range items {
		score := scoring.AdjustDemographic(
			scoring.Score(item, req.Profile, scoring.ContextDiversity, p.weights),
			item, req.Profile, p.weights)
		rec := p.annotate(item, score, scoring.ContextDiversity, req.Profile)
		rec.Explanation.RiskFactors = append(rec.Explanation.RiskFactors, "Outside your usual genres")
		out = append(out, rec)
	}
	return okResult(sourceDiversity, dropBatchDuplicates(out, cyc))
}

// popularBackfill is the single relaxed round used when filtering left
// the list short: plain popular endpoints for both media branches.
func (p *Pipeline) popularBackfill(ctx context.Context, req Request, cyc *cycle) SourceResult {
	var (
		mu      sync.Mutex
		items   []domain.CatalogItem
		lastErr error
		g       errgroup.Group
	)
	for _, mt := range []domain.MediaType{domain.MediaTypeMovie, domain.MediaTypeTV} {
		if !req.Filters.AllowsMediaType(mt) {
			continue
		}
		g.Go(func() error {
			batch, err := p.catalog.Popular(ctx, mt, 1)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lastErr = err
				return nil
			}
			items = append(items, batch...)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // branches never return errors
	if len(items) == 0 && lastErr != nil {
		return errResult(sourceBackfill, lastErr)
	}

	out := make([]domain.Recommendation, 0, len(items))
	for _, item := range items {
		if cyc.processed(item.ID) {
			continue
		}
		score := scoring.AdjustDemographic(
			scoring.Score(item, req.Profile, scoring.ContextPopular, p.weights),
			item, req.Profile, p.weights)
		rec := p.annotate(item, score, scoring.ContextPopular, req.Profile)
		rec.Reasons = prependReason(rec.Reasons, "Popular right now")
		out = append(out, rec)
	}
	return okResult(sourceBackfill, out)
}

func dropBatchDuplicates(recs []domain.Recommendation, cyc *cycle) []domain.Recommendation {
	seen := make(map[int]struct{}, len(recs))
	out := recs[:0]
	for _, rec := range recs {
		if _, dup := seen[rec.Item.ID]; dup {
			continue
		}
		if cyc.processed(rec.Item.ID) {
			continue
		}
		seen[rec.Item.ID] = struct{}{}
		out = append(out, rec)
	}
	return out
}
