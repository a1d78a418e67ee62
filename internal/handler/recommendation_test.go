package handler

import (
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/reelsense/taste-engine/internal/domain"
)

func TestParseFiltersDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/users/1/recommendations", nil)

	f, err := parseFilters(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(f, domain.DefaultFilters()) {
		t.Errorf("no query params should yield the defaults, got %+v", f)
	}
}

func TestParseFiltersFullQuery(t *testing.T) {
	r := httptest.NewRequest("GET",
		"/users/1/recommendations?genres=28,53&min_year=2000&max_year=2020&min_rating=6.5&media_type=movie&sort_by=year&min_match_score=75&languages=en,de", nil)

	f, err := parseFilters(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !reflect.DeepEqual(f.Genres, []int{28, 53}) {
		t.Errorf("genres = %v", f.Genres)
	}
	if f.MinYear != 2000 || f.MaxYear != 2020 {
		t.Errorf("years = %d..%d", f.MinYear, f.MaxYear)
	}
	if f.MinRating != 6.5 {
		t.Errorf("min rating = %f", f.MinRating)
	}
	if f.MediaType != domain.MediaMovies {
		t.Errorf("media type = %s", f.MediaType)
	}
	if f.SortBy != domain.SortByYear {
		t.Errorf("sort by = %s", f.SortBy)
	}
	if f.MinMatchScore != 75 {
		t.Errorf("min match score = %f", f.MinMatchScore)
	}
	if !reflect.DeepEqual(f.Languages, []string{"en", "de"}) {
		t.Errorf("languages = %v", f.Languages)
	}
}

func TestParseFiltersRejectsGarbage(t *testing.T) {
	bad := []string{
		"genres=action",
		"min_year=soon",
		"min_rating=lots",
		"min_match_score=high",
	}
	for _, q := range bad {
		r := httptest.NewRequest("GET", "/users/1/recommendations?"+q, nil)
		if _, err := parseFilters(r); err == nil {
			t.Errorf("query %q should fail to parse", q)
		}
	}
}
