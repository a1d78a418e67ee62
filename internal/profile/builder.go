// Package profile derives a UserProfile from the rating log. The profile
// is a pure function of the log plus demographics: rebuilding from the
// same log yields identical weight maps.
package profile

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelsense/taste-engine/internal/domain"
)

// Thresholds for derived structures. Tuned values, named not inferred.
const (
	comboMinRating     = 7   // rating floor for combination evidence
	comboMinCount      = 2   // ratings needed before a combination is kept
	comboSaturation    = 5   // count at which strength stops growing
	personMinCount     = 2   // appearances needed before a person is kept
	topBilledCast      = 5   // cast slots counted per item
	recencyWindow      = 90 * 24 * time.Hour
	highRatingEvidence = 8 // rating treated as a strong quality signal
)

// MetadataSource supplies item details for rated content. Implemented by
// the catalog client.
type MetadataSource interface {
	Details(ctx context.Context, id int, mediaType domain.MediaType) (domain.ItemDetails, error)
}

// Builder turns rating logs into profiles.
type Builder struct {
	meta   MetadataSource
	logger zerolog.Logger
}

func NewBuilder(meta MetadataSource, logger zerolog.Logger) *Builder {
	return &Builder{
		meta:   meta,
		logger: logger.With().Str("component", "profile").Logger(),
	}
}

// Build computes a full profile from the rating log. Items whose
// metadata cannot be fetched are skipped for affinity purposes but still
// count toward totals, so one catalog hiccup cannot abort the rebuild.
func (b *Builder) Build(ctx context.Context, ratings []domain.UserRating, demographics *domain.Demographics) (*domain.UserProfile, error) {
	numeric := domain.NumericRatings(ratings)

	p := newEmptyProfile()
	p.TotalRatings = len(numeric)
	p.Phase = PhaseFor(len(numeric))
	p.Demographics = demographics
	p.LastUpdated = time.Now().UTC()

	if len(numeric) == 0 {
		return p, nil
	}

	sum := 0.0
	for _, r := range numeric {
		sum += float64(r.Rating)
	}
	p.AverageScore = sum / float64(len(numeric))

	acc := newAccumulator()
	fetched := 0
	for _, r := range numeric {
		details, err := b.meta.Details(ctx, r.ContentID, r.MediaType)
		if err != nil {
			b.logger.Warn().Err(err).Int("content_id", r.ContentID).Msg("skipping rated item without metadata")
			continue
		}
		acc.add(r, details)
		fetched++
	}
	if fetched == 0 && len(numeric) > 0 {
		return nil, fmt.Errorf("profile build: no metadata available for %d rated items", len(numeric))
	}

	acc.fill(p)
	b.fillTempo(p, numeric)
	b.fillQualityTolerance(p, numeric)
	return p, nil
}

// Incremental folds one new rating into a prior profile without any
// catalog round-trips beyond the details the caller already holds. It
// returns a fresh profile; the prior is never mutated.
func (b *Builder) Incremental(prior *domain.UserProfile, r domain.UserRating, details *domain.ItemDetails) (*domain.UserProfile, error) {
	if prior == nil {
		return nil, fmt.Errorf("incremental update requires a prior profile")
	}
	next := cloneProfile(prior)

	if r.Rating.IsNumeric() {
		oldTotal := float64(next.TotalRatings)
		next.TotalRatings++
		next.AverageScore = (next.AverageScore*oldTotal + float64(r.Rating)) / float64(next.TotalRatings)
	}
	if phase := PhaseFor(next.TotalRatings); phaseRank(phase) > phaseRank(next.Phase) {
		next.Phase = phase
	}
	next.LastUpdated = time.Now().UTC()

	if details == nil || !r.Rating.IsNumeric() {
		return next, nil
	}

	// Nudge the touched genre and period weights toward the new
	// evidence, then re-normalize so no entry outgrows its share.
	ratingWeight := float64(r.Rating) / 10 * 100
	for _, g := range details.Genres {
		next.GenreDistribution[g] = next.GenreDistribution[g]*0.9 + ratingWeight*0.1
		next.GenreQualityDistribution[g] = next.GenreQualityDistribution[g]*0.9 + ratingWeight*0.1
	}
	normalizeShares(next.GenreDistribution)
	if decade := details.Decade(); decade > 0 {
		next.PeriodPreference[decade] = next.PeriodPreference[decade]*0.9 + ratingWeight*0.1
		normalizeShares(next.PeriodPreference)
	}

	mergePeople(next.FavoriteActors, topCast(details.Credits.Cast), r.Rating)
	mergePeople(next.FavoriteDirectors, directorsOf(details.Credits.Crew), r.Rating)
	return next, nil
}

// accumulator gathers per-genre, per-period and per-person evidence over
// one pass of the rated items.
type accumulator struct {
	genreFreq    map[int]float64 // rating-weighted frequency
	genreCount   map[int]int
	genreSum     map[int]float64 // sum of ratings
	genreHigh    map[int]int     // ratings >= highRatingEvidence
	periodFreq   map[int]float64
	comboCount   map[string]int
	comboSum     map[string]float64
	comboGenres  map[string][]int
	actorStats   map[int]*personStat
	directorStat map[int]*personStat
}

type personStat struct {
	name  string
	count int
	sum   float64
}

func newAccumulator() *accumulator {
	return &accumulator{
		genreFreq:    make(map[int]float64),
		genreCount:   make(map[int]int),
		genreSum:     make(map[int]float64),
		genreHigh:    make(map[int]int),
		periodFreq:   make(map[int]float64),
		comboCount:   make(map[string]int),
		comboSum:     make(map[string]float64),
		comboGenres:  make(map[string][]int),
		actorStats:   make(map[int]*personStat),
		directorStat: make(map[int]*personStat),
	}
}

func (a *accumulator) add(r domain.UserRating, details domain.ItemDetails) {
	rating := float64(r.Rating)

	for _, g := range details.Genres {
		a.genreFreq[g] += rating
		a.genreCount[g]++
		a.genreSum[g] += rating
		if r.Rating >= highRatingEvidence {
			a.genreHigh[g]++
		}
	}
	if decade := details.Decade(); decade > 0 {
		a.periodFreq[decade] += rating
	}

	if r.Rating >= comboMinRating {
		for _, combo := range genreCombos(details.Genres) {
			key := comboKey(combo)
			a.comboCount[key]++
			a.comboSum[key] += rating
			a.comboGenres[key] = combo
		}
	}

	for _, person := range topCast(details.Credits.Cast) {
		addPerson(a.actorStats, person, rating)
	}
	for _, person := range directorsOf(details.Credits.Crew) {
		addPerson(a.directorStat, person, rating)
	}
}

func (a *accumulator) fill(p *domain.UserProfile) {
	// Genre weight = rating-weighted frequency scaled by a quality
	// multiplier for consistently high ratings, then normalized to a
	// 0-100 share.
	raw := make(map[int]float64, len(a.genreFreq))
	for g, freq := range a.genreFreq {
		consistency := float64(a.genreHigh[g]) / float64(a.genreCount[g])
		raw[g] = freq * (0.5 + 0.5*consistency)
	}
	p.GenreDistribution = raw
	normalizeShares(p.GenreDistribution)

	for g, s := range a.genreSum {
		p.GenreQualityDistribution[g] = s / float64(a.genreCount[g]) / 10 * 100
	}

	p.PeriodPreference = a.periodFreq
	normalizeShares(p.PeriodPreference)

	for key, count := range a.comboCount {
		if count < comboMinCount {
			continue
		}
		avg := a.comboSum[key] / float64(count)
		strength := (avg / 10) * math.Min(1, float64(count)/comboSaturation)
		p.GenreCombinations = append(p.GenreCombinations, domain.GenreCombination{
			Name:     comboName(a.comboGenres[key]),
			Genres:   a.comboGenres[key],
			Strength: strength,
			Count:    count,
		})
	}
	sort.Slice(p.GenreCombinations, func(i, j int) bool {
		ci, cj := p.GenreCombinations[i], p.GenreCombinations[j]
		if ci.Strength != cj.Strength {
			return ci.Strength > cj.Strength
		}
		return ci.Name < cj.Name
	})

	p.FavoriteActors = collectPeople(a.actorStats)
	p.FavoriteDirectors = collectPeople(a.directorStat)
}

func (b *Builder) fillTempo(p *domain.UserProfile, numeric []domain.UserRating) {
	if len(numeric) == 0 {
		return
	}
	cutoff := time.Now().Add(-recencyWindow)
	recent := 0
	months := make(map[time.Month]int)
	for _, r := range numeric {
		if r.Timestamp.After(cutoff) {
			recent++
		}
		months[r.Timestamp.Month()]++
	}
	p.Tempo.Recency = float64(recent) / float64(len(numeric))

	peak := 0
	for _, c := range months {
		if c > peak {
			peak = c
		}
	}
	p.Tempo.Seasonality = float64(peak) / float64(len(numeric))
}

func (b *Builder) fillQualityTolerance(p *domain.UserProfile, numeric []domain.UserRating) {
	// A generous rater tolerates lower-rated content; a harsh one does
	// not. Anchor the floor just under their own average.
	minRating := p.AverageScore - 2.5
	if minRating < 0 {
		minRating = 0
	}
	if minRating > 8 {
		minRating = 8
	}
	p.QualityTolerance = domain.QualityTolerance{
		MinRating:    math.Round(minRating*10) / 10,
		MinVoteCount: 100,
	}

	decades := make([]int, 0, len(p.PeriodPreference))
	for d := range p.PeriodPreference {
		decades = append(decades, d)
	}
	sort.Slice(decades, func(i, j int) bool {
		if p.PeriodPreference[decades[i]] != p.PeriodPreference[decades[j]] {
			return p.PeriodPreference[decades[i]] > p.PeriodPreference[decades[j]]
		}
		return decades[i] > decades[j]
	})
	if len(decades) > 2 {
		decades = decades[:2]
	}
	p.QualityTolerance.PreferredDecades = decades
}

func newEmptyProfile() *domain.UserProfile {
	return &domain.UserProfile{
		Phase:                    domain.PhaseInitial,
		GenreDistribution:        make(map[int]float64),
		GenreQualityDistribution: make(map[int]float64),
		PeriodPreference:         make(map[int]float64),
		FavoriteActors:           make(map[int]domain.PersonAffinity),
		FavoriteDirectors:        make(map[int]domain.PersonAffinity),
	}
}

func cloneProfile(p *domain.UserProfile) *domain.UserProfile {
	next := *p
	next.GenreDistribution = cloneFloatMap(p.GenreDistribution)
	next.GenreQualityDistribution = cloneFloatMap(p.GenreQualityDistribution)
	next.PeriodPreference = cloneFloatMap(p.PeriodPreference)
	next.GenreCombinations = append([]domain.GenreCombination(nil), p.GenreCombinations...)
	next.FavoriteActors = clonePeople(p.FavoriteActors)
	next.FavoriteDirectors = clonePeople(p.FavoriteDirectors)
	if p.QualityTolerance.PreferredDecades != nil {
		next.QualityTolerance.PreferredDecades = append([]int(nil), p.QualityTolerance.PreferredDecades...)
	}
	return &next
}

func cloneFloatMap(m map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clonePeople(m map[int]domain.PersonAffinity) map[int]domain.PersonAffinity {
	out := make(map[int]domain.PersonAffinity, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// normalizeShares rescales a weight map so entries sum to 100, keeping
// each entry at its earned share of the evidence.
func normalizeShares(m map[int]float64) {
	sum := 0.0
	for _, v := range m {
		sum += v
	}
	if sum == 0 {
		return
	}
	for k, v := range m {
		m[k] = v / sum * 100
	}
}

func phaseRank(p domain.LearningPhase) int {
	switch p {
	case domain.PhaseOptimizing:
		return 2
	case domain.PhaseTesting:
		return 1
	default:
		return 0
	}
}

func topCast(cast []domain.Person) []domain.Person {
	if len(cast) > topBilledCast {
		return cast[:topBilledCast]
	}
	return cast
}

func directorsOf(crew []domain.Person) []domain.Person {
	out := make([]domain.Person, 0, 2)
	for _, p := range crew {
		if p.Job == "Director" {
			out = append(out, p)
		}
	}
	return out
}

func addPerson(stats map[int]*personStat, person domain.Person, rating float64) {
	s, ok := stats[person.ID]
	if !ok {
		s = &personStat{name: person.Name}
		stats[person.ID] = s
	}
	s.count++
	s.sum += rating
}

func collectPeople(stats map[int]*personStat) map[int]domain.PersonAffinity {
	out := make(map[int]domain.PersonAffinity)
	for id, s := range stats {
		if s.count < personMinCount {
			continue
		}
		out[id] = domain.PersonAffinity{
			PersonID:      id,
			Name:          s.name,
			Count:         s.count,
			AverageRating: math.Round(s.sum/float64(s.count)*100) / 100,
		}
	}
	return out
}

func mergePeople(into map[int]domain.PersonAffinity, people []domain.Person, rating domain.Rating) {
	for _, person := range people {
		existing, ok := into[person.ID]
		if !ok {
			// Below personMinCount until seen again by a full rebuild;
			// tracked immediately so incremental updates stay cheap.
			into[person.ID] = domain.PersonAffinity{
				PersonID:      person.ID,
				Name:          person.Name,
				Count:         1,
				AverageRating: float64(rating),
			}
			continue
		}
		total := existing.AverageRating*float64(existing.Count) + float64(rating)
		existing.Count++
		existing.AverageRating = math.Round(total/float64(existing.Count)*100) / 100
		into[person.ID] = existing
	}
}

// genreCombos yields every sorted 2- and 3-genre subset of an item's
// tags.
func genreCombos(genres []int) [][]int {
	if len(genres) < 2 {
		return nil
	}
	sorted := append([]int(nil), genres...)
	sort.Ints(sorted)

	var combos [][]int
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			combos = append(combos, []int{sorted[i], sorted[j]})
			for k := j + 1; k < len(sorted); k++ {
				combos = append(combos, []int{sorted[i], sorted[j], sorted[k]})
			}
		}
	}
	return combos
}

func comboKey(genres []int) string {
	parts := make([]string, len(genres))
	for i, g := range genres {
		parts[i] = fmt.Sprintf("%d", g)
	}
	return strings.Join(parts, "+")
}

func comboName(genres []int) string {
	parts := make([]string, 0, len(genres))
	for _, g := range genres {
		if name := domain.GenreName(g); name != "" {
			parts = append(parts, name)
		} else {
			parts = append(parts, fmt.Sprintf("Genre %d", g))
		}
	}
	return strings.Join(parts, " + ")
}
