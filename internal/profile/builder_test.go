package profile

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelsense/taste-engine/internal/domain"
)

// fakeMeta serves canned item details; ids it does not know fail.
type fakeMeta struct {
	items map[int]domain.ItemDetails
}

func (f *fakeMeta) Details(ctx context.Context, id int, mediaType domain.MediaType) (domain.ItemDetails, error) {
	d, ok := f.items[id]
	if !ok {
		return domain.ItemDetails{}, fmt.Errorf("unknown item %d", id)
	}
	return d, nil
}

func metaItem(id int, genres []int, year int, cast []domain.Person) domain.ItemDetails {
	return domain.ItemDetails{
		CatalogItem: domain.CatalogItem{
			ID:          id,
			MediaType:   domain.MediaTypeMovie,
			Title:       fmt.Sprintf("Item %d", id),
			Genres:      genres,
			ReleaseYear: year,
			VoteAverage: 7.5,
			VoteCount:   1000,
		},
		Credits: domain.Credits{Cast: cast},
	}
}

func rating(id, score int, at time.Time) domain.UserRating {
	return domain.UserRating{ContentID: id, Rating: domain.Rating(score), MediaType: domain.MediaTypeMovie, Timestamp: at}
}

func actionMeta() *fakeMeta {
	lead := []domain.Person{{ID: 500, Name: "Lead Actor"}}
	return &fakeMeta{items: map[int]domain.ItemDetails{
		1: metaItem(1, []int{domain.GenreAction, domain.GenreThriller}, 2014, lead),
		2: metaItem(2, []int{domain.GenreAction, domain.GenreThriller}, 2016, lead),
		3: metaItem(3, []int{domain.GenreAction}, 2018, nil),
		4: metaItem(4, []int{domain.GenreDrama}, 1995, nil),
	}}
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder(actionMeta(), zerolog.Nop())
	now := time.Now()
	ratings := []domain.UserRating{
		rating(1, 9, now.AddDate(0, 0, -10)),
		rating(2, 8, now.AddDate(0, 0, -8)),
		rating(3, 8, now.AddDate(0, 0, -6)),
		rating(4, 5, now.AddDate(0, 0, -4)),
	}

	first, err := b.Build(context.Background(), ratings, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, err := b.Build(context.Background(), ratings, nil)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	if !reflect.DeepEqual(first.GenreDistribution, second.GenreDistribution) {
		t.Errorf("genre distribution not reproducible:\n%v\n%v", first.GenreDistribution, second.GenreDistribution)
	}
	if !reflect.DeepEqual(first.PeriodPreference, second.PeriodPreference) {
		t.Errorf("period preference not reproducible")
	}
	if !reflect.DeepEqual(first.GenreCombinations, second.GenreCombinations) {
		t.Errorf("combinations not reproducible")
	}
}

func TestBuildGenreDominance(t *testing.T) {
	b := NewBuilder(actionMeta(), zerolog.Nop())
	now := time.Now()
	ratings := []domain.UserRating{
		rating(1, 9, now),
		rating(2, 9, now),
		rating(3, 9, now),
		rating(4, 4, now),
	}

	p, err := b.Build(context.Background(), ratings, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if p.GenreDistribution[domain.GenreAction] <= p.GenreDistribution[domain.GenreDrama] {
		t.Errorf("action should dominate drama: action=%f drama=%f",
			p.GenreDistribution[domain.GenreAction], p.GenreDistribution[domain.GenreDrama])
	}

	// Weight maps are normalized shares.
	sum := 0.0
	for _, w := range p.GenreDistribution {
		sum += w
	}
	if math.Abs(sum-100) > 1e-6 {
		t.Errorf("genre shares sum to %f, want 100", sum)
	}

	if p.TotalRatings != 4 {
		t.Errorf("total ratings = %d, want 4", p.TotalRatings)
	}
	if math.Abs(p.AverageScore-7.75) > 1e-9 {
		t.Errorf("average score = %f, want 7.75", p.AverageScore)
	}
}

func TestBuildLearnsCombinations(t *testing.T) {
	b := NewBuilder(actionMeta(), zerolog.Nop())
	now := time.Now()
	ratings := []domain.UserRating{
		rating(1, 9, now), // action+thriller, rated high twice
		rating(2, 8, now),
		rating(4, 8, now), // single genre, no combination possible
	}

	p, err := b.Build(context.Background(), ratings, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(p.GenreCombinations) != 1 {
		t.Fatalf("expected one learned combination, got %d", len(p.GenreCombinations))
	}
	combo := p.GenreCombinations[0]
	if !combo.Matches([]int{domain.GenreAction, domain.GenreThriller, domain.GenreSciFi}) {
		t.Error("combination should match a superset of its genres")
	}
	if combo.Matches([]int{domain.GenreAction}) {
		t.Error("combination must not match a partial genre set")
	}
	// avg 8.5 over 2 ratings: (8.5/10)*min(1, 2/5)
	want := 0.85 * 0.4
	if math.Abs(combo.Strength-want) > 1e-9 {
		t.Errorf("combination strength = %f, want %f", combo.Strength, want)
	}
}

func TestBuildSkipsSentinels(t *testing.T) {
	b := NewBuilder(actionMeta(), zerolog.Nop())
	now := time.Now()
	ratings := []domain.UserRating{
		rating(1, 9, now),
		{ContentID: 2, Rating: domain.RatingNotInterested, MediaType: domain.MediaTypeMovie, Timestamp: now},
		{ContentID: 3, Rating: domain.RatingSkip, MediaType: domain.MediaTypeMovie, Timestamp: now},
	}

	p, err := b.Build(context.Background(), ratings, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.TotalRatings != 1 {
		t.Errorf("sentinels must not count: total = %d, want 1", p.TotalRatings)
	}
	if p.AverageScore != 9 {
		t.Errorf("average = %f, want 9", p.AverageScore)
	}
}

func TestBuildToleratesMissingMetadata(t *testing.T) {
	b := NewBuilder(actionMeta(), zerolog.Nop())
	now := time.Now()
	ratings := []domain.UserRating{
		rating(1, 9, now),
		rating(999, 8, now), // unknown to the catalog
	}

	p, err := b.Build(context.Background(), ratings, nil)
	if err != nil {
		t.Fatalf("one unreachable item must not abort the build: %v", err)
	}
	if p.TotalRatings != 2 {
		t.Errorf("unreachable items still count toward totals: got %d", p.TotalRatings)
	}

	// All items unreachable is a real failure.
	if _, err := b.Build(context.Background(), []domain.UserRating{rating(999, 8, now)}, nil); err == nil {
		t.Error("build with zero reachable metadata should fail")
	}
}

func TestIncrementalDoesNotMutatePrior(t *testing.T) {
	b := NewBuilder(actionMeta(), zerolog.Nop())
	now := time.Now()
	ratings := []domain.UserRating{
		rating(1, 9, now),
		rating(2, 8, now),
		rating(3, 8, now),
	}
	prior, err := b.Build(context.Background(), ratings, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	beforeAction := prior.GenreDistribution[domain.GenreAction]
	beforeTotal := prior.TotalRatings

	details := metaItem(4, []int{domain.GenreDrama}, 1995, nil)
	next, err := b.Incremental(prior, rating(4, 6, now), &details)
	if err != nil {
		t.Fatalf("incremental: %v", err)
	}

	if prior.GenreDistribution[domain.GenreAction] != beforeAction {
		t.Error("incremental update mutated the prior profile")
	}
	if prior.TotalRatings != beforeTotal {
		t.Error("incremental update mutated the prior totals")
	}
	if next.TotalRatings != beforeTotal+1 {
		t.Errorf("next total = %d, want %d", next.TotalRatings, beforeTotal+1)
	}
	if next.GenreDistribution[domain.GenreDrama] <= prior.GenreDistribution[domain.GenreDrama] {
		t.Error("new genre evidence should raise its share")
	}
}

func TestIncrementalPhaseNeverRegresses(t *testing.T) {
	b := NewBuilder(actionMeta(), zerolog.Nop())
	prior := &domain.UserProfile{
		TotalRatings:             25,
		Phase:                    domain.PhaseOptimizing,
		GenreDistribution:        map[int]float64{},
		GenreQualityDistribution: map[int]float64{},
		PeriodPreference:         map[int]float64{},
		FavoriteActors:           map[int]domain.PersonAffinity{},
		FavoriteDirectors:        map[int]domain.PersonAffinity{},
	}

	next, err := b.Incremental(prior, rating(1, 7, time.Now()), nil)
	if err != nil {
		t.Fatalf("incremental: %v", err)
	}
	if next.Phase != domain.PhaseOptimizing {
		t.Errorf("phase regressed to %s", next.Phase)
	}
}

func TestIncrementalRequiresPrior(t *testing.T) {
	b := NewBuilder(actionMeta(), zerolog.Nop())
	if _, err := b.Incremental(nil, rating(1, 7, time.Now()), nil); err == nil {
		t.Error("incremental without a prior profile should fail")
	}
}
