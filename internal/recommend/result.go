package recommend

import (
	"github.com/reelsense/taste-engine/internal/catalog"
	"github.com/reelsense/taste-engine/internal/domain"
)

// CandidateBatch is one source's contribution to a generation cycle.
type CandidateBatch struct {
	Source string
	Recs   []domain.Recommendation
}

// SourceResult is the outcome of a single source: a batch or a wrapped
// failure, never both. The aggregator folds a list of these, ignoring
// failures while counting them.
type SourceResult struct {
	Batch CandidateBatch
	Err   *catalog.SourceError
}

func okResult(source string, recs []domain.Recommendation) SourceResult {
	return SourceResult{Batch: CandidateBatch{Source: source, Recs: recs}}
}

func errResult(source string, err error) SourceResult {
	return SourceResult{
		Batch: CandidateBatch{Source: source},
		Err:   &catalog.SourceError{Source: source, Err: err},
	}
}
