// Package service exposes the analysis engine over HTTP for batch backfill
// jobs and ad-hoc reprocessing, with a Redis result cache and Prometheus
// instrumentation.
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts handled HTTP requests by endpoint and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stride_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"endpoint", "method", "status"},
	)

	// RequestDuration tracks end-to-end request latency per endpoint.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stride_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"endpoint", "method"},
	)

	// AnalysesTotal counts completed analyses, successful or not.
	AnalysesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stride_analyses_total",
			Help: "Total number of activity analyses attempted",
		},
	)

	// AnalysisFailures counts failed analyses by error code.
	AnalysisFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stride_analysis_failures_total",
			Help: "Total number of failed analyses by error code",
		},
		[]string{"code"},
	)

	// AnalysisLatency tracks the pure computation time of the engine,
	// excluding decode and cache round trips.
	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stride_analysis_latency_seconds",
			Help:    "Analysis computation latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
	)

	// CacheHits counts analyses served from the result cache.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stride_cache_hits_total",
			Help: "Total number of result cache hits",
		},
	)

	// CacheMisses counts analyses that had to be computed.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stride_cache_misses_total",
			Help: "Total number of result cache misses",
		},
	)
)
