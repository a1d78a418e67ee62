package domain

// SortKey selects the ordering of the final recommendation list.
type SortKey string

const (
	SortByMatchScore SortKey = "match_score"
	SortByRating     SortKey = "rating"
	SortByYear       SortKey = "year"
	SortByTitle      SortKey = "title"
)

// MediaFilter widens MediaType with an "all" option for filtering.
type MediaFilter string

const (
	MediaAll    MediaFilter = "all"
	MediaMovies MediaFilter = "movie"
	MediaShows  MediaFilter = "tv"
)

// DefaultMinMatchScore is the admission floor applied when the user has
// not chosen one. Product-tuned, kept overridable.
const DefaultMinMatchScore = 60.0

// Filters are the user-chosen constraints applied to every generated
// list. The zero value plus DefaultFilters() is the unfiltered state.
type Filters struct {
	Genres        []int       `json:"genres,omitempty"`
	MinYear       int         `json:"min_year,omitempty" validate:"omitempty,gte=1870"`
	MaxYear       int         `json:"max_year,omitempty" validate:"omitempty,gte=1870"`
	MinRating     float64     `json:"min_rating,omitempty" validate:"gte=0,lte=10"`
	MaxRating     float64     `json:"max_rating,omitempty" validate:"gte=0,lte=10"`
	MediaType     MediaFilter `json:"media_type" validate:"oneof=all movie tv"`
	SortBy        SortKey     `json:"sort_by" validate:"oneof=match_score rating year title"`
	MinMatchScore float64     `json:"min_match_score" validate:"gte=0,lte=100"`
	// Languages are ISO 639-1 codes.
	Languages []string `json:"languages,omitempty" validate:"dive,len=2"`
}

// DefaultFilters returns the unconstrained filter set.
func DefaultFilters() Filters {
	return Filters{
		MediaType:     MediaAll,
		SortBy:        SortByMatchScore,
		MaxRating:     10,
		MinMatchScore: DefaultMinMatchScore,
	}
}

// AllowsMediaType reports whether the filter admits the given media type.
func (f Filters) AllowsMediaType(m MediaType) bool {
	switch f.MediaType {
	case MediaMovies:
		return m == MediaTypeMovie
	case MediaShows:
		return m == MediaTypeTV
	default:
		return true
	}
}

// AllowsItem applies every active constraint except the match-score
// floor, which is only known after scoring.
func (f Filters) AllowsItem(item CatalogItem) bool {
	if !f.AllowsMediaType(item.MediaType) {
		return false
	}
	if f.MinYear > 0 && item.ReleaseYear < f.MinYear {
		return false
	}
	if f.MaxYear > 0 && item.ReleaseYear > f.MaxYear {
		return false
	}
	if f.MinRating > 0 && item.VoteAverage < f.MinRating {
		return false
	}
	if f.MaxRating > 0 && item.VoteAverage > f.MaxRating {
		return false
	}
	if len(f.Genres) > 0 {
		match := false
		for _, g := range f.Genres {
			if item.HasGenre(g) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	if len(f.Languages) > 0 {
		match := false
		for _, l := range f.Languages {
			if item.Language == l {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}
