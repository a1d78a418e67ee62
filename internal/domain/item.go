package domain

import "time"

// MediaType is the explicit discriminant carried by every CatalogItem.
// Items never rely on structural checks ("has a title field") to tell
// movies and shows apart.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeTV
}

// CatalogItem is a movie or show from the external catalog.
type CatalogItem struct {
	ID          int       `json:"id"`
	MediaType   MediaType `json:"media_type"`
	Title       string    `json:"title"`
	Genres      []int     `json:"genres"`
	ReleaseYear int       `json:"release_year"`
	// VoteAverage is the catalog's 0-10 quality rating.
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
	Language    string  `json:"language"`
	Overview    string  `json:"overview,omitempty"`
	Adult       bool    `json:"adult,omitempty"`
}

// Movie constructs a catalog item tagged as a movie.
func Movie(id int, title string, year int, genres ...int) CatalogItem {
	return CatalogItem{ID: id, MediaType: MediaTypeMovie, Title: title, ReleaseYear: year, Genres: genres}
}

// Show constructs a catalog item tagged as a TV show.
func Show(id int, title string, year int, genres ...int) CatalogItem {
	return CatalogItem{ID: id, MediaType: MediaTypeTV, Title: title, ReleaseYear: year, Genres: genres}
}

// Decade returns the start year of the item's release decade, 0 if unknown.
func (c CatalogItem) Decade() int {
	if c.ReleaseYear == 0 {
		return 0
	}
	return c.ReleaseYear - c.ReleaseYear%10
}

// HasGenre reports whether the item carries the genre tag.
func (c CatalogItem) HasGenre(genreID int) bool {
	for _, g := range c.Genres {
		if g == genreID {
			return true
		}
	}
	return false
}

// Person is a cast or crew member attached to catalog credits.
type Person struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Job        string `json:"job,omitempty"`
}

// Credits holds cast and crew for a catalog item or a person's filmography.
type Credits struct {
	Cast []Person `json:"cast"`
	Crew []Person `json:"crew"`
}

// Filmography lists the catalog items a person appears in.
type Filmography struct {
	Cast []CatalogItem `json:"cast"`
	Crew []CatalogItem `json:"crew"`
}

// ItemDetails is a catalog item enriched with credits.
type ItemDetails struct {
	CatalogItem
	Credits   Credits   `json:"credits"`
	FetchedAt time.Time `json:"fetched_at"`
}
