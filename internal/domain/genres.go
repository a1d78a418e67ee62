package domain

import "sort"

// Catalog genre tag IDs. The numbering follows the external catalog's
// scheme and is shared by movies and shows unless noted.
const (
	GenreAction      = 28
	GenreAdventure   = 12
	GenreAnimation   = 16
	GenreComedy      = 35
	GenreCrime       = 80
	GenreDocumentary = 99
	GenreDrama       = 18
	GenreFamily      = 10751
	GenreFantasy     = 14
	GenreHistory     = 36
	GenreHorror      = 27
	GenreMusic       = 10402
	GenreMystery     = 9648
	GenreRomance     = 10749
	GenreSciFi       = 878
	GenreThriller    = 53
	GenreWar         = 10752
	GenreWestern     = 37

	// TV-only tags.
	GenreTVActionAdventure = 10759
	GenreTVKids            = 10762
	GenreTVSciFiFantasy    = 10765
)

var genreNames = map[int]string{
	GenreAction:            "Action",
	GenreAdventure:         "Adventure",
	GenreAnimation:         "Animation",
	GenreComedy:            "Comedy",
	GenreCrime:             "Crime",
	GenreDocumentary:       "Documentary",
	GenreDrama:             "Drama",
	GenreFamily:            "Family",
	GenreFantasy:           "Fantasy",
	GenreHistory:           "History",
	GenreHorror:            "Horror",
	GenreMusic:             "Music",
	GenreMystery:           "Mystery",
	GenreRomance:           "Romance",
	GenreSciFi:             "Science Fiction",
	GenreThriller:          "Thriller",
	GenreWar:               "War",
	GenreWestern:           "Western",
	GenreTVActionAdventure: "Action & Adventure",
	GenreTVKids:            "Kids",
	GenreTVSciFiFantasy:    "Sci-Fi & Fantasy",
}

// GenreName returns a display name for a genre tag, empty if unknown.
func GenreName(id int) string {
	return genreNames[id]
}

// KnownGenres returns every genre ID the engine knows about, in stable
// ascending order.
func KnownGenres() []int {
	ids := make([]int, 0, len(genreNames))
	for id := range genreNames {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
