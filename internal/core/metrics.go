package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logistic_runs_total",
			Help: "Total number of import runs by outcome",
		},
		[]string{"kind", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logistic_run_duration_seconds",
			Help:    "Duration of complete import runs",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 600, 1800},
		},
		[]string{"kind"},
	)

	FilesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logistic_files_fetched_total",
			Help: "Total number of remote files staged",
		},
		[]string{"kind"},
	)

	BytesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logistic_bytes_fetched_total",
			Help: "Total bytes downloaded into staging",
		},
		[]string{"kind"},
	)

	RecordsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logistic_records_imported_total",
			Help: "Total number of records accepted by the importer",
		},
		[]string{"kind"},
	)

	FileErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logistic_file_errors_total",
			Help: "Total number of staged files that failed to import",
		},
		[]string{"kind", "reason"},
	)

	FileImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logistic_file_import_duration_seconds",
			Help:    "Time from parsing a staged file to the importer's verdict",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"kind"},
	)
)

// KindMetrics records metrics for one import kind.
type KindMetrics struct {
	kind string
}

// NewKindMetrics creates a metrics recorder for a kind.
func NewKindMetrics(kind string) *KindMetrics {
	return &KindMetrics{kind: kind}
}

// RecordRun records a finished run.
func (m *KindMetrics) RecordRun(status Status, duration time.Duration) {
	RunsTotal.WithLabelValues(m.kind, string(status)).Inc()
	RunDuration.WithLabelValues(m.kind).Observe(duration.Seconds())
}

// RecordFetch records staged files.
func (m *KindMetrics) RecordFetch(files []StagedFile) {
	FilesFetched.WithLabelValues(m.kind).Add(float64(len(files)))
	var total int64
	for _, f := range files {
		total += f.Size
	}
	BytesFetched.WithLabelValues(m.kind).Add(float64(total))
}

// RecordImport records one file accepted by the importer.
func (m *KindMetrics) RecordImport(records int, duration time.Duration) {
	RecordsImported.WithLabelValues(m.kind).Add(float64(records))
	FileImportDuration.WithLabelValues(m.kind).Observe(duration.Seconds())
}

// RecordFileError records a failed file. reason is "parse", "invalid" or "fault".
func (m *KindMetrics) RecordFileError(reason string, duration time.Duration) {
	FileErrors.WithLabelValues(m.kind, reason).Inc()
	FileImportDuration.WithLabelValues(m.kind).Observe(duration.Seconds())
}
