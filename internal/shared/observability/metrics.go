package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "complete_parsing_seconds",
		Help:    "Time spent parsing one source buffer with the front-end.",
		Buckets: prometheus.DefBuckets,
	})

	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "complete_run_seconds",
		Help:    "Time spent in each phase of an indexing run.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "complete_runs_total",
		Help: "Indexing runs by outcome.",
	}, []string{"outcome"})

	DeclsFilteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "complete_decls_filtered_total",
		Help: "Declarations excluded from the index, by reason.",
	}, []string{"reason"})

	SymbolsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "complete_symbols_written_total",
		Help: "Total number of symbol rows inserted or replaced.",
	})

	SymbolsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "complete_symbols_dropped_total",
		Help: "Total number of symbols dropped after a failed file lookup or insert.",
	})

	FileCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "complete_file_cache_lookups_total",
		Help: "File id lookups served by the last-file cache, by result.",
	}, []string{"result"})

	SearchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "complete_search_requests_total",
		Help: "Filename search requests by status code class.",
	}, []string{"status"})
)
