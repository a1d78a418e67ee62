// Package metrics exposes the engine's Prometheus instrumentation. One
// registry per process, injected rather than global.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Registry *prometheus.Registry

	SourceFailures   *prometheus.CounterVec
	SourceCandidates *prometheus.CounterVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	Retrains         prometheus.Counter
	PipelineRuns     prometheus.Counter
	PipelineDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taste_source_failures_total",
			Help: "External source calls that failed and contributed zero candidates.",
		}, []string{"source"}),
		SourceCandidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taste_source_candidates_total",
			Help: "Candidates admitted into the pool per source.",
		}, []string{"source"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taste_recommendation_cache_hits_total",
			Help: "Recommendation requests served from cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taste_recommendation_cache_misses_total",
			Help: "Recommendation requests that triggered a generation cycle.",
		}),
		Retrains: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taste_model_retrains_total",
			Help: "Secondary scorer retrain runs.",
		}),
		PipelineRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taste_pipeline_runs_total",
			Help: "Completed recommendation generation cycles.",
		}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taste_pipeline_duration_seconds",
			Help:    "Wall time of a full generation cycle.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.Registry.MustRegister(
		m.SourceFailures,
		m.SourceCandidates,
		m.CacheHits,
		m.CacheMisses,
		m.Retrains,
		m.PipelineRuns,
		m.PipelineDuration,
	)
	return m
}
