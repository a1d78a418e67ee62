// Package catalog talks to the external content catalog. The engine only
// depends on the Client interface; the HTTP implementation lives behind
// it so tests and the pipeline can swap in fakes.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelsense/taste-engine/internal/domain"
)

// SortPopularity and friends are the discover orderings the engine uses.
const (
	SortPopularity  = "popularity.desc"
	SortVoteAverage = "vote_average.desc"
)

// DiscoverParams filters a catalog discovery query.
type DiscoverParams struct {
	MediaType      domain.MediaType
	Genres         []int
	WithoutGenres  []int
	MinVoteAverage float64
	MinVoteCount   int
	YearFrom       int
	YearTo         int
	Language       string
	SortBy         string
	Page           int
}

// Client is the catalog collaborator contract.
type Client interface {
	Discover(ctx context.Context, p DiscoverParams) ([]domain.CatalogItem, error)
	RecommendationsFor(ctx context.Context, id int, mediaType domain.MediaType) ([]domain.CatalogItem, error)
	SimilarTo(ctx context.Context, id int, mediaType domain.MediaType) ([]domain.CatalogItem, error)
	PersonCredits(ctx context.Context, personID int) (domain.Filmography, error)
	Details(ctx context.Context, id int, mediaType domain.MediaType) (domain.ItemDetails, error)
	Popular(ctx context.Context, mediaType domain.MediaType, page int) ([]domain.CatalogItem, error)
}

// SourceError wraps a single external call failure so the aggregator can
// fold it away while keeping the source name for observability.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("catalog source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// IsSourceError reports whether err is a per-source failure.
func IsSourceError(err error) bool {
	var target *SourceError
	return errors.As(err, &target)
}
