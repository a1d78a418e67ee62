// Package recommend orchestrates every scorer into a single ranked
// recommendation list: source fan-out, dedup, filtering, sorting,
// backfill and presentation shuffle.
package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reelsense/taste-engine/internal/catalog"
	"github.com/reelsense/taste-engine/internal/config"
	"github.com/reelsense/taste-engine/internal/domain"
	"github.com/reelsense/taste-engine/internal/metrics"
	"github.com/reelsense/taste-engine/internal/neural"
	"github.com/reelsense/taste-engine/internal/profile"
	"github.com/reelsense/taste-engine/internal/scoring"
)

// Source names used in results, logs and metrics.
const (
	sourceAdapter   = "catalog_native"
	sourceNeural    = "neural"
	sourceGenres    = "genre_affinity"
	sourcePeople    = "favorite_people"
	sourceDiversity = "diversity"
	sourceBackfill  = "popular_backfill"
)

// Sweep sizes. Tuned values, named not inferred.
const (
	topGenresForSweep   = 5
	topCombosForSweep   = 4
	topActorsForSweep   = 3
	diversityGenreCount = 2
	shuffleHead         = 10 // entries never reordered by the tail shuffle
)

// Request carries everything one generation cycle needs. The pipeline
// never reaches back into stores; callers assemble the inputs.
type Request struct {
	Profile   *domain.UserProfile
	Ratings   []domain.UserRating
	Watchlist []int
	Filters   domain.Filters
	Size      int
}

// Pipeline generates ranked recommendation lists. Safe for concurrent
// use; each Generate call keeps its own cycle state.
type Pipeline struct {
	catalog catalog.Client
	neural  *neural.Scorer
	weights scoring.ScoringWeights
	cfg     config.EngineConfig
	delay   time.Duration
	metrics *metrics.Metrics
	logger  zerolog.Logger

	// sleep is swapped out by tests to skip real seed-fetch delays.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cat catalog.Client, scorer *neural.Scorer, weights scoring.ScoringWeights, cfg config.EngineConfig, seedDelay time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		catalog: cat,
		neural:  scorer,
		weights: weights,
		cfg:     cfg,
		delay:   seedDelay,
		metrics: m,
		logger:  logger.With().Str("component", "pipeline").Logger(),
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Generate runs one full cycle. Below the learning-phase gate it is a
// defined no-op returning an empty list; unexpected panics surface as a
// single top-level error with no partial state.
func (p *Pipeline) Generate(ctx context.Context, req Request) (recs []domain.Recommendation, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Msg("pipeline cycle panicked")
			recs = []domain.Recommendation{}
			err = fmt.Errorf("recommendation cycle failed: %v", r)
		}
	}()

	start := time.Now()
	numeric := domain.NumericRatings(req.Ratings)
	if !profile.CanGenerate(len(numeric)) {
		return []domain.Recommendation{}, nil
	}

	req.Filters = normalizeFilters(req.Filters, p.cfg)
	if req.Size <= 0 {
		req.Size = p.cfg.OutputSize
	}

	cyc := newCycle(req)
	log := p.logger.With().Str("cycle_id", cyc.id).Logger()

	// Sources run in a fixed order; each folds into the accumulator
	// before the next starts, so dedup stays single-writer.
	for _, res := range p.adapterResults(ctx, req, cyc) {
		cyc.fold(res, p.metrics, log)
	}
	if len(numeric) >= profile.MinRatingsForRetraining {
		cyc.fold(p.neuralSource(ctx, req, cyc), p.metrics, log)
	}
	cyc.fold(p.genreSweep(ctx, req, cyc), p.metrics, log)
	cyc.fold(p.personSweep(ctx, req, cyc), p.metrics, log)
	cyc.fold(p.diversitySweep(ctx, req, cyc), p.metrics, log)

	kept := applyFilters(cyc.recs, req.Filters)

	if len(kept) < req.Size {
		cyc.fold(p.popularBackfill(ctx, req, cyc), p.metrics, log)
		kept = applyFilters(cyc.recs, req.Filters)
	}

	sortRecommendations(kept, req.Filters.SortBy)
	if len(kept) > req.Size {
		kept = kept[:req.Size]
	}
	p.shuffleTail(kept)

	p.metrics.PipelineRuns.Inc()
	p.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	log.Info().
		Int("candidates", len(cyc.recs)).
		Int("returned", len(kept)).
		Int("source_failures", cyc.failures).
		Dur("elapsed", time.Since(start)).
		Msg("generation cycle complete")

	return kept, nil
}

// shuffleTail reorders everything past the first shuffleHead entries so
// repeat visits see variety without disturbing the strongest matches.
func (p *Pipeline) shuffleTail(recs []domain.Recommendation) {
	if len(recs) <= shuffleHead {
		return
	}
	seed := p.cfg.ShuffleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	tail := recs[shuffleHead:]
	rng.Shuffle(len(tail), func(i, j int) {
		tail[i], tail[j] = tail[j], tail[i]
	})
}

func normalizeFilters(f domain.Filters, cfg config.EngineConfig) domain.Filters {
	if f.MediaType == "" {
		f.MediaType = domain.MediaAll
	}
	if f.SortBy == "" {
		f.SortBy = domain.SortByMatchScore
	}
	if f.MaxRating == 0 {
		f.MaxRating = 10
	}
	if f.MinMatchScore == 0 {
		f.MinMatchScore = cfg.MinMatchScore
	}
	return f
}

// cycle is one generation's accumulator. It is only ever touched from
// the control flow driving the pipeline.
type cycle struct {
	id       string
	seen     map[int]struct{}
	excluded map[int]struct{}
	recs     []domain.Recommendation
	failures int
}

func newCycle(req Request) *cycle {
	excluded := make(map[int]struct{}, len(req.Ratings)+len(req.Watchlist))
	for _, r := range req.Ratings {
		excluded[r.ContentID] = struct{}{}
	}
	for _, id := range req.Watchlist {
		excluded[id] = struct{}{}
	}
	return &cycle{
		id:       uuid.NewString(),
		seen:     make(map[int]struct{}),
		excluded: excluded,
	}
}

// fold merges one source's result into the accumulator: failures are
// counted and dropped, candidates admitted first-writer-wins.
func (c *cycle) fold(res SourceResult, m *metrics.Metrics, log zerolog.Logger) {
	if res.Err != nil {
		c.failures++
		m.SourceFailures.WithLabelValues(res.Batch.Source).Inc()
		log.Warn().Err(res.Err).Str("source", res.Batch.Source).Msg("source contributed no candidates")
		return
	}
	admitted := 0
	for _, rec := range res.Batch.Recs {
		if c.admit(rec) {
			admitted++
		}
	}
	m.SourceCandidates.WithLabelValues(res.Batch.Source).Add(float64(admitted))
}

// admit applies the cycle-wide invariants: identity dedup, the rated and
// watchlisted exclusion set, and the unconditional kids-content
// exclusion.
func (c *cycle) admit(rec domain.Recommendation) bool {
	id := rec.Item.ID
	if _, dup := c.seen[id]; dup {
		return false
	}
	if _, ex := c.excluded[id]; ex {
		return false
	}
	if isKidsContent(rec.Item) {
		return false
	}
	c.seen[id] = struct{}{}
	c.recs = append(c.recs, rec)
	return true
}

// processed reports whether an id has already been handled this cycle,
// letting sources skip work before scoring.
func (c *cycle) processed(id int) bool {
	if _, dup := c.seen[id]; dup {
		return true
	}
	_, ex := c.excluded[id]
	return ex
}

// isKidsContent excludes children's programming regardless of filters:
// the Kids TV tag always, animation only when paired with the Family
// tag.
func isKidsContent(item domain.CatalogItem) bool {
	if item.HasGenre(domain.GenreTVKids) {
		return true
	}
	return item.HasGenre(domain.GenreAnimation) && item.HasGenre(domain.GenreFamily)
}
