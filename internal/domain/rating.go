package domain

import "time"

// Rating is a 1-10 score or one of the sentinel values below. Sentinels
// never contribute to taste affinities; they only feed exclusion sets.
type Rating int

const (
	RatingNotWatched    Rating = -1
	RatingNotInterested Rating = -2
	RatingSkip          Rating = -3
)

// IsNumeric reports whether the rating is real scoring evidence (1-10).
func (r Rating) IsNumeric() bool {
	return r >= 1 && r <= 10
}

func (r Rating) Valid() bool {
	return r.IsNumeric() || r == RatingNotWatched || r == RatingNotInterested || r == RatingSkip
}

// UserRating is one entry of the append-only rating log. Re-rating the
// same content replaces the earlier entry by ContentID.
type UserRating struct {
	ContentID int       `json:"content_id"`
	Rating    Rating    `json:"rating"`
	MediaType MediaType `json:"media_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NumericRatings filters a log down to the entries usable as affinity
// evidence, keeping log order.
func NumericRatings(log []UserRating) []UserRating {
	out := make([]UserRating, 0, len(log))
	for _, r := range log {
		if r.Rating.IsNumeric() {
			out = append(out, r)
		}
	}
	return out
}
