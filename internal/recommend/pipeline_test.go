package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelsense/taste-engine/internal/catalog"
	"github.com/reelsense/taste-engine/internal/config"
	"github.com/reelsense/taste-engine/internal/domain"
	"github.com/reelsense/taste-engine/internal/metrics"
	"github.com/reelsense/taste-engine/internal/neural"
	"github.com/reelsense/taste-engine/internal/scoring"
)

// fakeCatalog serves canned responses and counts calls per endpoint.
// Safe for the pipeline's concurrent queries.
type fakeCatalog struct {
	mu        sync.Mutex
	calls     map[string]int
	recsFor   map[int][]domain.CatalogItem
	similarTo map[int][]domain.CatalogItem
	discover  []domain.CatalogItem
	popular   []domain.CatalogItem
	credits   map[int]domain.Filmography
	err       error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		calls:     make(map[string]int),
		recsFor:   make(map[int][]domain.CatalogItem),
		similarTo: make(map[int][]domain.CatalogItem),
		credits:   make(map[int]domain.Filmography),
	}
}

func (f *fakeCatalog) count(endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[endpoint]++
	return f.err
}

func (f *fakeCatalog) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeCatalog) Discover(ctx context.Context, p catalog.DiscoverParams) ([]domain.CatalogItem, error) {
	if err := f.count("discover"); err != nil {
		return nil, err
	}
	return f.discover, nil
}

func (f *fakeCatalog) RecommendationsFor(ctx context.Context, id int, mt domain.MediaType) ([]domain.CatalogItem, error) {
	if err := f.count("recommendations"); err != nil {
		return nil, err
	}
	return f.recsFor[id], nil
}

func (f *fakeCatalog) SimilarTo(ctx context.Context, id int, mt domain.MediaType) ([]domain.CatalogItem, error) {
	if err := f.count("similar"); err != nil {
		return nil, err
	}
	return f.similarTo[id], nil
}

func (f *fakeCatalog) PersonCredits(ctx context.Context, personID int) (domain.Filmography, error) {
	if err := f.count("person"); err != nil {
		return domain.Filmography{}, err
	}
	return f.credits[personID], nil
}

func (f *fakeCatalog) Details(ctx context.Context, id int, mt domain.MediaType) (domain.ItemDetails, error) {
	if err := f.count("details"); err != nil {
		return domain.ItemDetails{}, err
	}
	return domain.ItemDetails{}, errors.New("not served by this fake")
}

func (f *fakeCatalog) Popular(ctx context.Context, mt domain.MediaType, page int) ([]domain.CatalogItem, error) {
	if err := f.count("popular"); err != nil {
		return nil, err
	}
	return f.popular, nil
}

func candidate(id int, mt domain.MediaType, voteAvg float64, votes int, genres ...int) domain.CatalogItem {
	return domain.CatalogItem{
		ID:          id,
		MediaType:   mt,
		Title:       "Candidate",
		Genres:      genres,
		ReleaseYear: 2015,
		VoteAverage: voteAvg,
		VoteCount:   votes,
		Language:    "en",
	}
}

func pipelineProfile() *domain.UserProfile {
	return &domain.UserProfile{
		TotalRatings: 12,
		AverageScore: 8.0,
		Phase:        domain.PhaseTesting,
		GenreDistribution: map[int]float64{
			domain.GenreAction:   55,
			domain.GenreThriller: 30,
			domain.GenreSciFi:    15,
		},
		PeriodPreference: map[int]float64{2010: 80, 2000: 20},
		GenreCombinations: []domain.GenreCombination{
			{Name: "Action + Thriller", Genres: []int{domain.GenreAction, domain.GenreThriller}, Strength: 0.85, Count: 4},
		},
		FavoriteActors: map[int]domain.PersonAffinity{
			700: {PersonID: 700, Name: "Favorite Actor", Count: 3, AverageRating: 8.7},
		},
		QualityTolerance: domain.QualityTolerance{MinRating: 5.5, MinVoteCount: 100},
	}
}

func pipelineRatings(n int) []domain.UserRating {
	now := time.Now()
	out := make([]domain.UserRating, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.UserRating{
			ContentID: i + 1,
			Rating:    domain.Rating(7 + i%3),
			MediaType: domain.MediaTypeMovie,
			Timestamp: now.AddDate(0, 0, -i),
		})
	}
	return out
}

func testPipeline(cat catalog.Client) *Pipeline {
	cfg := config.EngineConfig{
		OutputSize:    20,
		SeededFloor:   15,
		TopSeedItems:  10,
		MinMatchScore: 60,
		ShuffleSeed:   7,
	}
	scorer := neural.NewScorer(untrained{}, scoring.DefaultWeights(), zerolog.Nop())
	p := New(cat, scorer, scoring.DefaultWeights(), cfg, 250*time.Millisecond, metrics.New(), zerolog.Nop())
	p.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return p
}

// untrained always reports no stored model.
type untrained struct{}

func (untrained) Save(ctx context.Context, m *neural.Model) error { return nil }
func (untrained) Load(ctx context.Context, id string) (*neural.Model, error) {
	return nil, domain.ErrModelNotTrained
}

func TestGenerateBelowGateIsNoOp(t *testing.T) {
	cat := newFakeCatalog()
	p := testPipeline(cat)

	recs, err := p.Generate(context.Background(), Request{
		Profile: pipelineProfile(),
		Ratings: pipelineRatings(9),
	})
	if err != nil {
		t.Fatalf("below-gate generate must not fail: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("below-gate generate must return an empty list, got %v", recs)
	}
	if cat.total() != 0 {
		t.Errorf("no catalog calls allowed below the gate, saw %d", cat.total())
	}
}

func TestGenerateDeduplicatesAndExcludes(t *testing.T) {
	cat := newFakeCatalog()
	shared := candidate(100, domain.MediaTypeMovie, 7.8, 3000, domain.GenreAction, domain.GenreThriller)
	rated := candidate(3, domain.MediaTypeMovie, 8.0, 5000, domain.GenreAction) // id 3 is in the rating log
	listed := candidate(200, domain.MediaTypeMovie, 8.0, 5000, domain.GenreAction)
	kids := candidate(300, domain.MediaTypeTV, 8.0, 5000, domain.GenreTVKids)
	animFamily := candidate(301, domain.MediaTypeMovie, 8.0, 5000, domain.GenreAnimation, domain.GenreFamily)

	for id := 1; id <= 12; id++ {
		cat.recsFor[id] = []domain.CatalogItem{shared, rated, listed, kids}
		cat.similarTo[id] = []domain.CatalogItem{shared, animFamily}
	}
	cat.discover = []domain.CatalogItem{shared, candidate(101, domain.MediaTypeMovie, 7.5, 2500, domain.GenreAction)}
	cat.popular = []domain.CatalogItem{candidate(102, domain.MediaTypeMovie, 7.2, 9000, domain.GenreAction)}

	recs, err := generateWith(t, cat, Request{
		Profile:   pipelineProfile(),
		Ratings:   pipelineRatings(12),
		Watchlist: []int{200},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("expected candidates")
	}

	seen := make(map[int]int)
	for _, rec := range recs {
		seen[rec.Item.ID]++
	}
	if seen[100] != 1 {
		t.Errorf("shared candidate should appear exactly once, got %d", seen[100])
	}
	if seen[3] != 0 {
		t.Error("rated items must never be recommended")
	}
	if seen[200] != 0 {
		t.Error("watchlisted items must never be recommended")
	}
	if seen[300] != 0 {
		t.Error("kids tv content must never be recommended")
	}
	if seen[301] != 0 {
		t.Error("animation+family content must never be recommended")
	}
}

func generateWith(t *testing.T, cat catalog.Client, req Request) ([]domain.Recommendation, error) {
	t.Helper()
	return testPipeline(cat).Generate(context.Background(), req)
}

func TestGenerateHonorsMatchScoreFloorAndSize(t *testing.T) {
	cat := newFakeCatalog()
	items := make([]domain.CatalogItem, 0, 40)
	for i := 0; i < 40; i++ {
		items = append(items, candidate(1000+i, domain.MediaTypeMovie, 7.0+float64(i%3)*0.5, 2000+i, domain.GenreAction, domain.GenreThriller))
	}
	cat.discover = items
	for id := 1; id <= 12; id++ {
		cat.recsFor[id] = items[:10]
		cat.similarTo[id] = items[10:20]
	}

	recs, err := generateWith(t, cat, Request{
		Profile: pipelineProfile(),
		Ratings: pipelineRatings(12),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(recs) > 20 {
		t.Errorf("output exceeds requested size: %d", len(recs))
	}
	for _, rec := range recs {
		if rec.MatchScore < 60 {
			t.Errorf("candidate below the match floor leaked through: %.1f", rec.MatchScore)
		}
		if rec.Type == "" {
			t.Error("every recommendation needs a type")
		}
		if len(rec.Reasons) == 0 {
			t.Error("every recommendation needs at least one reason")
		}
	}
}

func TestGenerateHeadStaysSorted(t *testing.T) {
	cat := newFakeCatalog()
	items := make([]domain.CatalogItem, 0, 40)
	for i := 0; i < 40; i++ {
		items = append(items, candidate(2000+i, domain.MediaTypeMovie, 6.5+float64(i%5)*0.5, 1000+50*i, domain.GenreAction, domain.GenreThriller))
	}
	cat.discover = items
	for id := 1; id <= 12; id++ {
		cat.recsFor[id] = items[:15]
	}

	recs, err := generateWith(t, cat, Request{
		Profile: pipelineProfile(),
		Ratings: pipelineRatings(12),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(recs) < shuffleHead {
		t.Skipf("not enough candidates to exercise the shuffle head: %d", len(recs))
	}

	// The tail shuffle must never disturb the strongest matches.
	for i := 1; i < shuffleHead; i++ {
		if recs[i-1].MatchScore < recs[i].MatchScore {
			t.Errorf("head out of order at %d: %.1f < %.1f", i, recs[i-1].MatchScore, recs[i].MatchScore)
		}
	}
}

func TestGenerateBackfillsWhenShort(t *testing.T) {
	cat := newFakeCatalog()
	// Sources yield almost nothing; popular must be consulted.
	cat.popular = []domain.CatalogItem{
		candidate(500, domain.MediaTypeMovie, 7.9, 8000, domain.GenreAction, domain.GenreThriller),
		candidate(501, domain.MediaTypeTV, 7.8, 7000, domain.GenreAction, domain.GenreThriller),
	}

	recs, err := generateWith(t, cat, Request{
		Profile: pipelineProfile(),
		Ratings: pipelineRatings(12),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	found := false
	for _, rec := range recs {
		if rec.Item.ID == 500 || rec.Item.ID == 501 {
			found = true
		}
	}
	if !found {
		t.Error("short list should be backfilled from the popular endpoint")
	}
}

func TestGenerateMediaTypeFilter(t *testing.T) {
	cat := newFakeCatalog()
	cat.discover = []domain.CatalogItem{
		candidate(600, domain.MediaTypeMovie, 7.8, 3000, domain.GenreAction, domain.GenreThriller),
		candidate(601, domain.MediaTypeTV, 7.8, 3000, domain.GenreAction, domain.GenreThriller),
	}
	cat.popular = cat.discover

	filters := domain.DefaultFilters()
	filters.MediaType = domain.MediaShows

	recs, err := generateWith(t, cat, Request{
		Profile: pipelineProfile(),
		Ratings: pipelineRatings(12),
		Filters: filters,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, rec := range recs {
		if rec.Item.MediaType != domain.MediaTypeTV {
			t.Errorf("media filter leaked a %s item", rec.Item.MediaType)
		}
	}
}

func TestGenerateSurvivesTotalSourceFailure(t *testing.T) {
	cat := newFakeCatalog()
	cat.err = errors.New("catalog down")

	recs, err := generateWith(t, cat, Request{
		Profile: pipelineProfile(),
		Ratings: pipelineRatings(12),
	})
	if err != nil {
		t.Fatalf("source failures must degrade, not abort: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("nothing reachable should produce an empty list, got %d", len(recs))
	}
}

func TestGeneratePersonSweepReason(t *testing.T) {
	cat := newFakeCatalog()
	cat.credits[700] = domain.Filmography{Cast: []domain.CatalogItem{
		candidate(800, domain.MediaTypeMovie, 8.2, 4000, domain.GenreAction, domain.GenreThriller),
	}}

	recs, err := generateWith(t, cat, Request{
		Profile: pipelineProfile(),
		Ratings: pipelineRatings(12),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, rec := range recs {
		if rec.Item.ID != 800 {
			continue
		}
		if rec.Reasons[0] != "Features Favorite Actor" {
			t.Errorf("person candidates lead with the actor reason, got %q", rec.Reasons[0])
		}
		return
	}
	t.Error("favorite-actor candidate missing from output")
}

func TestTopSeedsOrderAndCap(t *testing.T) {
	p := testPipeline(newFakeCatalog())
	now := time.Now()
	ratings := []domain.UserRating{
		{ContentID: 1, Rating: 6, Timestamp: now.AddDate(0, 0, -3)},
		{ContentID: 2, Rating: 9, Timestamp: now.AddDate(0, 0, -2)},
		{ContentID: 3, Rating: 9, Timestamp: now.AddDate(0, 0, -1)},
		{ContentID: 4, Rating: domain.RatingSkip, Timestamp: now},
	}

	seeds := p.topSeeds(ratings)
	if len(seeds) != 3 {
		t.Fatalf("sentinels are not seeds: got %d", len(seeds))
	}
	if seeds[0].ContentID != 3 || seeds[1].ContentID != 2 {
		t.Errorf("seeds not ordered by rating then recency: %v", seeds)
	}

	many := pipelineRatings(30)
	if got := len(p.topSeeds(many)); got != 10 {
		t.Errorf("seed count must cap at 10, got %d", got)
	}
}

func TestIsKidsContent(t *testing.T) {
	tests := []struct {
		item domain.CatalogItem
		want bool
	}{
		{domain.Show(1, "Saturday Cartoons", 2020, domain.GenreTVKids), true},
		{domain.Movie(2, "Family Toon", 2020, domain.GenreAnimation, domain.GenreFamily), true},
		{domain.Movie(3, "Adult Toon", 2020, domain.GenreAnimation), false},
		{domain.Movie(4, "Family Drama", 2020, domain.GenreFamily), false},
		{domain.Show(5, "Cop Show", 2020, domain.GenreAction), false},
	}
	for _, tt := range tests {
		if got := isKidsContent(tt.item); got != tt.want {
			t.Errorf("isKidsContent(%v) = %v, want %v", tt.item.Genres, got, tt.want)
		}
	}
}

func TestSourceFailureClassification(t *testing.T) {
	res := errResult(sourceNeural, errors.New("upstream 502"))
	if !catalog.IsSourceError(res.Err) {
		t.Error("folded failures must classify as source errors")
	}
	if res.Err.Source != sourceNeural {
		t.Errorf("source label = %q, want %q", res.Err.Source, sourceNeural)
	}
}
