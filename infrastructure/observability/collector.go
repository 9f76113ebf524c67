// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the HTTP surface and the graph pipeline.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the application's Prometheus metrics on a private
// registry so tests can create collectors without duplicate registration.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	NotesCreated       prometheus.Counter
	FlashcardsReviewed prometheus.Counter
	GraphBuilds        prometheus.Counter
	GraphCacheHits     prometheus.Counter
	GraphCacheMisses   prometheus.Counter
}

// NewCollector creates a collector with all metrics registered under the
// given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	notesCreated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_created_total",
			Help:      "Total number of notes created",
		},
	)

	flashcardsReviewed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flashcards_reviewed_total",
			Help:      "Total number of flashcard reviews recorded",
		},
	)

	graphBuilds := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_builds_total",
			Help:      "Total number of knowledge graph rebuilds",
		},
	)

	graphCacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_cache_hits_total",
			Help:      "Graph requests served from the version cache",
		},
	)

	graphCacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_cache_misses_total",
			Help:      "Graph requests that triggered a rebuild",
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		notesCreated,
		flashcardsReviewed,
		graphBuilds,
		graphCacheHits,
		graphCacheMisses,
	)

	return &Collector{
		registry:           registry,
		HTTPRequests:       httpRequests,
		HTTPDuration:       httpDuration,
		NotesCreated:       notesCreated,
		FlashcardsReviewed: flashcardsReviewed,
		GraphBuilds:        graphBuilds,
		GraphCacheHits:     graphCacheHits,
		GraphCacheMisses:   graphCacheMisses,
	}
}

// Handler serves the collector's registry in Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
