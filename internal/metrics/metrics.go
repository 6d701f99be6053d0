// Package metrics exposes Prometheus instrumentation for studymap.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts evaluated dissociation and membership queries
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studymap_queries_total",
			Help: "The total number of evaluated study queries",
		},
		[]string{"mode", "status"},
	)

	// QueryDurationSeconds measures end-to-end query evaluation latency
	QueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studymap_query_duration_seconds",
			Help:    "Duration of study query evaluation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// StoreLookupDurationSeconds measures membership lookups per store contract
	StoreLookupDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studymap_store_lookup_duration_seconds",
			Help:    "Duration of membership lookups against the study store",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store"},
	)

	// CorpusLoadsTotal counts corpus load operations
	CorpusLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studymap_corpus_loads_total",
			Help: "Total number of corpus load operations",
		},
		[]string{"status"},
	)

	// CorpusRows tracks the rows committed by the latest corpus load
	CorpusRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "studymap_corpus_rows",
			Help: "Rows committed by the latest corpus load, by table",
		},
		[]string{"table"},
	)
)
