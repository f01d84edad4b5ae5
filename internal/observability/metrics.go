package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_items_fetched_total",
		Help: "The total number of raw records fetched per source",
	}, []string{"source"})

	ItemsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_items_dropped_total",
		Help: "Total number of dropped records by reason",
	}, []string{"reason"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "digest_llm_request_duration_seconds",
		Help:    "Duration of summarization service requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "model"})

	SummarizeRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "digest_summarize_retries_total",
		Help: "Total number of repeated summarization attempts",
	})

	RunsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_runs_total",
		Help: "The total number of pipeline runs by outcome",
	}, []string{"status"})

	RunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "digest_run_duration_seconds",
		Help:    "Duration in seconds of a full pipeline run",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	DigestWordCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "digest_word_count",
		Help: "Word count of the most recently assembled digest",
	})

	DigestItemsSelected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "digest_items_selected",
		Help: "Number of items selected into the most recent digest",
	})

	ArchiveEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "digest_archive_entries",
		Help: "Number of retained archive entries after the last sweep",
	})

	ArchiveSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "digest_archive_swept_total",
		Help: "Total number of archive entries evicted by retention sweeps",
	})
)

// Drop reason label values for ItemsDropped.
const (
	DropReasonMalformed = "malformed"
	DropReasonDuplicate = "duplicate_url"
	DropReasonBudget    = "budget"
	DropReasonUnmatched = "unresolved_reference"
)

// StartLLMTimer starts a duration observation for one summarization call.
func StartLLMTimer(provider, model string) *prometheus.Timer {
	return prometheus.NewTimer(LLMRequestDuration.WithLabelValues(provider, model))
}
