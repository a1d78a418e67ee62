package domain

// RecommendationType classifies how adventurous a suggestion is. It is
// derived purely from match-score thresholds.
type RecommendationType string

const (
	TypeSafe          RecommendationType = "safe"
	TypeExploratory   RecommendationType = "exploratory"
	TypeSerendipitous RecommendationType = "serendipitous"
)

// TypeForScore maps a 0-100 match score onto a recommendation type.
func TypeForScore(score float64) RecommendationType {
	switch {
	case score >= 85:
		return TypeSafe
	case score >= 70:
		return TypeExploratory
	default:
		return TypeSerendipitous
	}
}

// Explanation breaks a recommendation down for the presentation layer.
type Explanation struct {
	PrimaryFactors   []string `json:"primary_factors"`
	SecondaryFactors []string `json:"secondary_factors"`
	RiskFactors      []string `json:"risk_factors"`
}

// Recommendation is one entry of a generation cycle's output. It is
// created fresh per cycle and never persisted beyond the current result.
type Recommendation struct {
	Item        CatalogItem        `json:"item"`
	MatchScore  float64            `json:"match_score"`
	Reasons     []string           `json:"reasons"`
	Confidence  float64            `json:"confidence"`
	Novelty     float64            `json:"novelty"`
	Diversity   float64            `json:"diversity"`
	Explanation Explanation        `json:"explanation"`
	Type        RecommendationType `json:"recommendation_type"`
	Source      string             `json:"source,omitempty"`
}
