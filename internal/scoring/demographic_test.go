package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/reelsense/taste-engine/internal/domain"
)

func TestAdjustDemographicPassThrough(t *testing.T) {
	w := DefaultWeights()
	p := testProfile() // no demographics attached
	item := testItem(1, domain.MediaTypeMovie, 2015, 7.0, 500, domain.GenreAction)

	if got := AdjustDemographic(72.5, item, p, w); got != 72.5 {
		t.Errorf("profile without demographics must pass through: got %f", got)
	}
	// Pass-through still clamps.
	if got := AdjustDemographic(140, item, p, w); got != 100 {
		t.Errorf("pass-through should clamp to 100, got %f", got)
	}
}

func TestAdjustDemographicBlend(t *testing.T) {
	w := DefaultWeights()
	p := testProfile()
	p.Demographics = &domain.Demographics{Age: 22, Language: "en"}
	item := testItem(1, domain.MediaTypeMovie, 2015, 7.0, 500, domain.GenreAction)
	item.Language = "en"

	demo := DemographicScore(item, *p.Demographics)
	want := 80*(1-w.DemographicBlend) + demo*w.DemographicBlend
	got := AdjustDemographic(80, item, p, w)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("blended score = %f, want %f", got, want)
	}
}

func TestDemographicScoreContributions(t *testing.T) {
	base := testItem(1, domain.MediaTypeMovie, 2010, 7.0, 500, domain.GenreDrama)

	tests := []struct {
		name string
		d    domain.Demographics
		item domain.CatalogItem
		want float64
	}{
		{
			name: "no demographics fields set",
			d:    domain.Demographics{},
			item: base,
			want: 0,
		},
		{
			name: "young viewer action bonus",
			d:    domain.Demographics{Age: 20},
			item: testItem(2, domain.MediaTypeMovie, 1990, 7.0, 500, domain.GenreAction),
			want: bonusAgeBandGenre,
		},
		{
			name: "children family bonus",
			d:    domain.Demographics{HasChildren: true},
			item: testItem(3, domain.MediaTypeMovie, 1990, 7.0, 500, domain.GenreFamily),
			want: bonusChildrenFamily,
		},
		{
			name: "education quality bonus",
			d:    domain.Demographics{Education: "master"},
			item: testItem(4, domain.MediaTypeMovie, 1990, 8.0, 500, domain.GenreDrama),
			want: bonusEducationQuality,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DemographicScore(tt.item, tt.d); got != tt.want {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestDemographicScoreLanguagePriors(t *testing.T) {
	item := testItem(1, domain.MediaTypeMovie, 1990, 7.0, 500)
	item.Language = "de"

	// Exact language match beats the country prior.
	if got := DemographicScore(item, domain.Demographics{Language: "de"}); got != bonusLanguageMatch {
		t.Errorf("language match = %f, want %d", got, bonusLanguageMatch)
	}
	if got := DemographicScore(item, domain.Demographics{Country: "DE"}); got != bonusCountryAdjacent {
		t.Errorf("country prior = %f, want %d", got, bonusCountryAdjacent)
	}
}

func TestDemographicFormativeYears(t *testing.T) {
	// Released when the user was 18: inside the formative window.
	age := 40
	year := time.Now().Year() - age + 18
	item := testItem(1, domain.MediaTypeMovie, year, 7.0, 500, domain.GenreMystery)

	if got := DemographicScore(item, domain.Demographics{Age: age}); got != bonusFormativeYears {
		t.Errorf("formative years = %f, want %d", got, bonusFormativeYears)
	}
}
