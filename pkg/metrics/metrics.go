package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_recommendations_total",
			Help: "Total number of recommendation runs by outcome",
		},
		[]string{"outcome"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineup_recommendation_duration_seconds",
			Help:    "Duration of a recommendation run in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	RelatedBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_related_batches_total",
			Help: "Total number of related-artist lookup batches by outcome",
		},
		[]string{"outcome"},
	)

	ArtistMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_artist_matches_total",
			Help: "Festival artists scored per match type",
		},
		[]string{"match_type"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_recommendation_cache_total",
			Help: "Recommendation cache lookups by result",
		},
		[]string{"result"},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeError   = "error"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)
