package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/reelsense/taste-engine/internal/config"
	"github.com/reelsense/taste-engine/internal/domain"
)

// HTTPClient implements Client against a TMDB-style REST catalog. All
// calls share one rate limiter and one circuit breaker so a catalog
// outage trips fast instead of stacking timeouts.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger
}

func NewHTTPClient(cfg config.CatalogConfig, logger zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "catalog",
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
		}),
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// pagedItems is the wire shape of every list endpoint.
type pagedItems struct {
	Page    int        `json:"page"`
	Results []wireItem `json:"results"`
}

// wireItem carries both movie and show fields; the media type is decided
// by the endpoint queried, never by probing which fields are set.
type wireGenre struct {
	ID int `json:"id"`
}

type wireItem struct {
	ID               int         `json:"id"`
	Title            string      `json:"title"`
	Name             string      `json:"name"`
	ReleaseDate      string      `json:"release_date"`
	FirstAirDate     string      `json:"first_air_date"`
	GenreIDs         []int       `json:"genre_ids"`
	Genres           []wireGenre `json:"genres"`
	VoteAverage      float64     `json:"vote_average"`
	VoteCount        int         `json:"vote_count"`
	Popularity       float64     `json:"popularity"`
	OriginalLanguage string      `json:"original_language"`
	Overview         string      `json:"overview"`
	Adult            bool        `json:"adult"`
}

func (w wireItem) toDomain(mediaType domain.MediaType) domain.CatalogItem {
	item := domain.CatalogItem{
		ID:          w.ID,
		MediaType:   mediaType,
		Title:       w.Title,
		Genres:      w.GenreIDs,
		VoteAverage: w.VoteAverage,
		VoteCount:   w.VoteCount,
		Popularity:  w.Popularity,
		Language:    w.OriginalLanguage,
		Overview:    w.Overview,
		Adult:       w.Adult,
	}
	if mediaType == domain.MediaTypeTV {
		item.Title = w.Name
	}
	if len(item.Genres) == 0 && len(w.Genres) > 0 {
		for _, g := range w.Genres {
			item.Genres = append(item.Genres, g.ID)
		}
	}
	date := w.ReleaseDate
	if mediaType == domain.MediaTypeTV {
		date = w.FirstAirDate
	}
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil {
			item.ReleaseYear = y
		}
	}
	return item
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("catalog returned %d for %s", resp.StatusCode, path)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("catalog call failed")
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) listItems(ctx context.Context, path string, query url.Values, mediaType domain.MediaType) ([]domain.CatalogItem, error) {
	var page pagedItems
	if err := c.get(ctx, path, query, &page); err != nil {
		return nil, err
	}
	items := make([]domain.CatalogItem, 0, len(page.Results))
	for _, w := range page.Results {
		items = append(items, w.toDomain(mediaType))
	}
	return items, nil
}

func (c *HTTPClient) Discover(ctx context.Context, p DiscoverParams) ([]domain.CatalogItem, error) {
	q := url.Values{}
	if len(p.Genres) > 0 {
		q.Set("with_genres", joinInts(p.Genres, ","))
	}
	if len(p.WithoutGenres) > 0 {
		q.Set("without_genres", joinInts(p.WithoutGenres, ","))
	}
	if p.MinVoteAverage > 0 {
		q.Set("vote_average.gte", strconv.FormatFloat(p.MinVoteAverage, 'f', 1, 64))
	}
	if p.MinVoteCount > 0 {
		q.Set("vote_count.gte", strconv.Itoa(p.MinVoteCount))
	}
	if p.YearFrom > 0 {
		q.Set("primary_release_date.gte", fmt.Sprintf("%d-01-01", p.YearFrom))
	}
	if p.YearTo > 0 {
		q.Set("primary_release_date.lte", fmt.Sprintf("%d-12-31", p.YearTo))
	}
	if p.Language != "" {
		q.Set("with_original_language", p.Language)
	}
	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = SortPopularity
	}
	q.Set("sort_by", sortBy)
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	return c.listItems(ctx, "/discover/"+string(p.MediaType), q, p.MediaType)
}

func (c *HTTPClient) RecommendationsFor(ctx context.Context, id int, mediaType domain.MediaType) ([]domain.CatalogItem, error) {
	path := fmt.Sprintf("/%s/%d/recommendations", mediaType, id)
	return c.listItems(ctx, path, nil, mediaType)
}

func (c *HTTPClient) SimilarTo(ctx context.Context, id int, mediaType domain.MediaType) ([]domain.CatalogItem, error) {
	path := fmt.Sprintf("/%s/%d/similar", mediaType, id)
	return c.listItems(ctx, path, nil, mediaType)
}

func (c *HTTPClient) PersonCredits(ctx context.Context, personID int) (domain.Filmography, error) {
	var wire struct {
		Cast []creditWireItem `json:"cast"`
		Crew []creditWireItem `json:"crew"`
	}
	path := fmt.Sprintf("/person/%d/combined_credits", personID)
	if err := c.get(ctx, path, nil, &wire); err != nil {
		return domain.Filmography{}, err
	}
	out := domain.Filmography{
		Cast: make([]domain.CatalogItem, 0, len(wire.Cast)),
		Crew: make([]domain.CatalogItem, 0, len(wire.Crew)),
	}
	for _, w := range wire.Cast {
		out.Cast = append(out.Cast, w.toDomainTagged())
	}
	for _, w := range wire.Crew {
		out.Crew = append(out.Crew, w.toDomainTagged())
	}
	return out, nil
}

// creditWireItem is a combined-credits entry; unlike list endpoints the
// media type arrives per entry, so decode reads the discriminant off the
// wire instead of inferring it from field shapes.
type creditWireItem struct {
	wireItem
	MediaType string `json:"media_type"`
}

func (w creditWireItem) toDomainTagged() domain.CatalogItem {
	mt := domain.MediaType(w.MediaType)
	if !mt.Valid() {
		mt = domain.MediaTypeMovie
	}
	return w.wireItem.toDomain(mt)
}

func (c *HTTPClient) Details(ctx context.Context, id int, mediaType domain.MediaType) (domain.ItemDetails, error) {
	var w struct {
		wireItem
		Credits domain.Credits `json:"credits"`
	}
	path := fmt.Sprintf("/%s/%d", mediaType, id)
	q := url.Values{}
	q.Set("append_to_response", "credits")
	if err := c.get(ctx, path, q, &w); err != nil {
		return domain.ItemDetails{}, err
	}
	return domain.ItemDetails{
		CatalogItem: w.toDomain(mediaType),
		Credits:     w.Credits,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func (c *HTTPClient) Popular(ctx context.Context, mediaType domain.MediaType, page int) ([]domain.CatalogItem, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return c.listItems(ctx, "/"+string(mediaType)+"/popular", q, mediaType)
}

func joinInts(ids []int, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}
