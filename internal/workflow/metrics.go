// Package workflow provides Prometheus metrics for pipeline monitoring.
package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StagesTotal counts stage executions.
	// Labels: stage, outcome (ok, error)
	StagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recommendd",
			Subsystem: "workflow",
			Name:      "stages_total",
			Help:      "Total number of pipeline stage executions",
		},
		[]string{"stage", "outcome"},
	)

	// FallbacksTotal counts recovered degradations by kind.
	// Labels: kind (classification, url_detection, fetch, enhancement, rerank)
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recommendd",
			Subsystem: "workflow",
			Name:      "fallbacks_total",
			Help:      "Total number of recovered stage degradations",
		},
		[]string{"kind"},
	)

	// PipelineDuration tracks end-to-end pipeline latency.
	// Labels: intent
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recommendd",
			Subsystem: "workflow",
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end duration of pipeline runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"intent"},
	)

	// PipelinePanics counts runs terminated by an unexpected panic.
	PipelinePanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recommendd",
			Subsystem: "workflow",
			Name:      "pipeline_panics_total",
			Help:      "Total number of pipeline runs recovered from a panic",
		},
	)
)
