package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Query resolution
	ResolveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextread_resolve_total",
			Help: "Total number of resolved queries by the tier that produced the result",
		},
		[]string{"tier"},
	)

	ResolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nextread_resolve_duration_seconds",
			Help:    "Duration of query resolution in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"tier"},
	)

	ResolveResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nextread_resolve_results",
			Help:    "Number of books returned per query",
			Buckets: []float64{0, 1, 2, 5, 10, 15, 20},
		},
	)

	// Catalog state
	CatalogBooks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nextread_catalog_books",
			Help: "Number of books in the loaded catalog",
		},
	)

	CatalogGenres = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nextread_catalog_genres",
			Help: "Number of distinct genre labels in the loaded catalog",
		},
	)

	IndexVocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nextread_index_vocabulary_size",
			Help: "Number of distinct terms in the similarity index",
		},
	)

	// Catalog sources
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextread_source_fetch_total",
			Help: "Remote catalog source fetches by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordResolve records one query resolution
func RecordResolve(tier string, duration time.Duration, results int) {
	ResolveTotal.WithLabelValues(tier).Inc()
	ResolveDuration.WithLabelValues(tier).Observe(duration.Seconds())
	ResolveResults.Observe(float64(results))
}

// RecordCatalog publishes the size of a freshly loaded catalog
func RecordCatalog(books, genres, vocabulary int) {
	CatalogBooks.Set(float64(books))
	CatalogGenres.Set(float64(genres))
	IndexVocabularySize.Set(float64(vocabulary))
}

// RecordSourceFetch counts a remote source fetch; outcome is one of
// "fetched", "cached", "blocked" or "failed"
func RecordSourceFetch(outcome string) {
	SourceFetchTotal.WithLabelValues(outcome).Inc()
}
