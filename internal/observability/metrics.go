package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the acquisition service.
// They are organized by subsystem: provider searches, provider requests,
// and PDF acquisition. Everything is registered on the supplied registerer
// (promauto.With), so tests can use a private registry.
type Metrics struct {
	// SearchesStarted counts searches initiated, labeled by provider.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts successful searches, labeled by provider.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts failed searches, labeled by provider.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes search duration in seconds, labeled by provider.
	SearchDuration *prometheus.HistogramVec

	// RecordsPerSearch observes the distribution of records returned per search.
	RecordsPerSearch *prometheus.HistogramVec

	// SourceRateLimited counts 429 responses, labeled by provider.
	SourceRateLimited *prometheus.CounterVec

	// SourceUnhealthy gauges the degraded state of each provider (1 = degraded).
	SourceUnhealthy *prometheus.GaugeVec

	// DownloadAttempts counts URL attempts, labeled by attempt kind
	// (primary, transformed, doi-pattern, unpaywall, ...).
	DownloadAttempts *prometheus.CounterVec

	// DownloadsSucceeded counts validated PDFs written to disk.
	DownloadsSucceeded prometheus.Counter

	// DownloadsFailed counts terminal acquisition failures, labeled by
	// failure kind.
	DownloadsFailed *prometheus.CounterVec

	// DownloadBytes observes the size of validated PDFs in bytes.
	DownloadBytes prometheus.Histogram

	// AcquisitionDuration observes the end-to-end duration of one
	// record's acquisition in seconds.
	AcquisitionDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SearchesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "literature_searches_started_total",
			Help: "Searches initiated, by provider.",
		}, []string{"source"}),

		SearchesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "literature_searches_completed_total",
			Help: "Searches completed successfully, by provider.",
		}, []string{"source"}),

		SearchesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "literature_searches_failed_total",
			Help: "Searches that surfaced an error, by provider.",
		}, []string{"source"}),

		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "literature_search_duration_seconds",
			Help:    "Search duration including parsing, by provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),

		RecordsPerSearch: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "literature_records_per_search",
			Help:    "Records returned per search, by provider.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}, []string{"source"}),

		SourceRateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "literature_source_rate_limited_total",
			Help: "429 responses observed, by provider.",
		}, []string{"source"}),

		SourceUnhealthy: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "literature_source_unhealthy",
			Help: "1 when a provider is degraded by consecutive failures.",
		}, []string{"source"}),

		DownloadAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "literature_download_attempts_total",
			Help: "URL attempts in the acquisition pipeline, by attempt kind.",
		}, []string{"kind"}),

		DownloadsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "literature_downloads_succeeded_total",
			Help: "Validated PDFs written to disk.",
		}),

		DownloadsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "literature_downloads_failed_total",
			Help: "Terminal acquisition failures, by failure kind.",
		}, []string{"kind"}),

		DownloadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "literature_download_bytes",
			Help:    "Size of validated PDFs in bytes.",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		}),

		AcquisitionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "literature_acquisition_duration_seconds",
			Help:    "End-to-end acquisition duration for one record.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
}
