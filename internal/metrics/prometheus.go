// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the office calendar service.
var (
	// Counters.
	MonthsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calendar_months_created_total",
			Help: "Total number of calendar months generated",
		},
	)

	StatusUpsertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_upserts_total",
			Help: "Total number of status upserts by resulting status",
		},
		[]string{"status"},
	)

	StatusClearsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "status_clears_total",
			Help: "Total number of status entries removed via the clear sentinel",
		},
	)

	MonthReplacesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "month_replaces_total",
			Help: "Total number of bulk month replacements",
		},
	)

	CopyPreviousRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copy_previous_runs_total",
			Help: "Total number of copy-previous-month previews computed",
		},
	)

	LockedMonthRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "locked_month_rejections_total",
			Help: "Total number of writes rejected because the month is locked",
		},
	)

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Team-view cache lookups by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)

	// Histograms.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
