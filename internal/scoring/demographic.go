package scoring

import (
	"math"
	"time"

	"github.com/reelsense/taste-engine/internal/domain"
)

// Fixed per-contribution bonuses. Each fires only when its boolean or
// range gate matches; a missing demographics field contributes zero.
const (
	bonusFormativeYears   = 10
	bonusAgeBandGenre     = 8
	bonusGenderGenre      = 7
	bonusEducationQuality = 10
	bonusChildrenFamily   = 12
	bonusRelationship     = 5
	bonusLanguageMatch    = 15
	bonusCountryAdjacent  = 5
)

// AdjustDemographic blends a demographic-fit score into a base score:
// base*(1-blend) + demographicScore*blend. Profiles without demographics
// pass through unchanged. Every scorer's output goes through this before
// it lands on a Recommendation.
func AdjustDemographic(base float64, item domain.CatalogItem, p *domain.UserProfile, w ScoringWeights) float64 {
	if p.Demographics == nil {
		return clampScore(base)
	}
	demo := DemographicScore(item, *p.Demographics)
	return clampScore(base*(1-w.DemographicBlend) + demo*w.DemographicBlend)
}

// DemographicScore sums the independent demographic contributions on a
// 0-100 scale.
func DemographicScore(item domain.CatalogItem, d domain.Demographics) float64 {
	score := 0.0

	if d.Age > 0 && item.ReleaseYear > 0 {
		// Content released during the user's formative years (ages
		// 10-25) tends to resonate.
		birthYear := time.Now().Year() - d.Age
		age := item.ReleaseYear - birthYear
		if age >= 10 && age <= 25 {
			score += bonusFormativeYears
		}
		switch {
		case d.Age < 25 && (item.HasGenre(domain.GenreAction) || item.HasGenre(domain.GenreSciFi) || item.HasGenre(domain.GenreHorror)):
			score += bonusAgeBandGenre
		case d.Age >= 45 && (item.HasGenre(domain.GenreHistory) || item.HasGenre(domain.GenreDrama) || item.HasGenre(domain.GenreDocumentary)):
			score += bonusAgeBandGenre
		}
	}

	switch d.Gender {
	case "female":
		if item.HasGenre(domain.GenreRomance) || item.HasGenre(domain.GenreDrama) {
			score += bonusGenderGenre
		}
	case "male":
		if item.HasGenre(domain.GenreAction) || item.HasGenre(domain.GenreWar) {
			score += bonusGenderGenre
		}
	}

	switch d.Education {
	case "bachelor", "master", "doctorate":
		if item.VoteAverage >= 7.5 {
			score += bonusEducationQuality
		}
	}

	if d.HasChildren && (item.HasGenre(domain.GenreFamily) || item.HasGenre(domain.GenreAnimation)) {
		score += bonusChildrenFamily
	}
	switch d.RelationshipStatus {
	case "single":
		if item.HasGenre(domain.GenreComedy) || item.HasGenre(domain.GenreAction) {
			score += bonusRelationship
		}
	case "married", "partnered":
		if item.HasGenre(domain.GenreRomance) || item.HasGenre(domain.GenreFamily) {
			score += bonusRelationship
		}
	}

	if d.Language != "" && item.Language == d.Language {
		score += bonusLanguageMatch
	} else if d.Country != "" && countryLanguages[d.Country] == item.Language {
		score += bonusCountryAdjacent
	}

	return math.Min(100, score)
}

// countryLanguages maps a country code to its dominant catalog language
// for the country-prior contribution.
var countryLanguages = map[string]string{
	"US": "en", "GB": "en", "AU": "en", "CA": "en",
	"DE": "de", "AT": "de", "FR": "fr", "ES": "es",
	"MX": "es", "IT": "it", "BR": "pt", "JP": "ja",
	"KR": "ko", "CN": "zh", "IN": "hi",
}
