// Package metrics provides Prometheus metrics for export sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "esdrain"
)

// Session metrics track export session outcomes.
var (
	// SessionsTotal is the total number of export sessions by outcome.
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Total number of export sessions",
	}, []string{"outcome"})

	// BatchesTotal is the total number of batches delivered to consumers.
	BatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_total",
		Help:      "Total number of batches delivered to consumers",
	})

	// DocumentsTotal is the total number of documents exported.
	DocumentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_total",
		Help:      "Total number of documents exported",
	})

	// BatchDuration is a histogram of per-batch retrieval duration in seconds.
	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Duration of batch retrieval and delivery in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	})
)

// Failure metrics track continuation retries and terminal errors.
var (
	// RetriesTotal is the total number of continuation retry attempts.
	RetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "continuation_retries_total",
		Help:      "Total number of continuation retry attempts",
	})

	// ErrorsTotal is the total number of terminal export errors by kind.
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Total number of terminal export errors",
	}, []string{"kind"})

	// ReleaseFailuresTotal is the total number of failed cursor releases.
	ReleaseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "release_failures_total",
		Help:      "Total number of failed cursor releases",
	})
)
