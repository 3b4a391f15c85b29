// Package metrics holds the prometheus collectors of the corpus builder and
// the ingestion worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics
type Metrics struct {
	RowsRead           *prometheus.CounterVec
	ExamplesEmitted    *prometheus.CounterVec
	RowsMerged         *prometheus.CounterVec
	RowsDiscarded      *prometheus.CounterVec
	UnpairedDurations  prometheus.Counter
	MalformedRows      prometheus.Counter
	FilesProcessed     *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
	WebhooksReceived   *prometheus.CounterVec
	DatabaseErrors     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RowsRead: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartreview_rows_read_total",
				Help: "Total number of annotation rows read from workbooks",
			},
			[]string{"source"},
		),
		ExamplesEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartreview_examples_emitted_total",
				Help: "Total number of training examples emitted",
			},
			[]string{"task", "target"},
		),
		RowsMerged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartreview_rows_merged_total",
				Help: "Rows folded into the target of the previous example",
			},
			[]string{"task"},
		),
		RowsDiscarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartreview_rows_discarded_total",
				Help: "Same-sentence rows dropped because they carried no finding",
			},
			[]string{"task"},
		),
		UnpairedDurations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chartreview_unpaired_durations_total",
				Help: "Duration starts dropped at the end of a file without an end row",
			},
		),
		MalformedRows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chartreview_malformed_rows_total",
				Help: "Rows that aborted their file because the annotation was incomplete",
			},
		),
		FilesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartreview_files_processed_total",
				Help: "Workbooks processed by outcome",
			},
			[]string{"status"},
		),
		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chartreview_processing_duration_seconds",
				Help:    "Time taken to parse and fold one workbook",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		),
		WebhooksReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartreview_webhooks_received_total",
				Help: "Total number of webhooks received",
			},
			[]string{"event_type", "status"},
		),
		DatabaseErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartreview_database_errors_total",
				Help: "Total number of database errors",
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(
		m.RowsRead,
		m.ExamplesEmitted,
		m.RowsMerged,
		m.RowsDiscarded,
		m.UnpairedDurations,
		m.MalformedRows,
		m.FilesProcessed,
		m.ProcessingDuration,
		m.WebhooksReceived,
		m.DatabaseErrors,
	)

	return m
}
