// Package metrics provides Prometheus metrics for digdoc's conversion driver
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the conversion driver
type Metrics struct {
	// Per-file pipeline outcomes
	FilesProcessedTotal *prometheus.CounterVec
	CommitsTotal         prometheus.Counter
	RollbacksTotal       *prometheus.CounterVec
	UghErrorsTotal       prometheus.Counter

	// Stage durations
	ConversionDuration *prometheus.HistogramVec

	// Validator outcomes
	ContentViolationsTotal  prometheus.Counter
	EqualsMismatchesTotal   prometheus.Counter
	TokenizerMismatchesTotal prometheus.Counter

	// Driver run metrics
	DriverRunsTotal prometheus.Counter
	DriverUptimeSeconds prometheus.Gauge
	driverStartTime     time.Time
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		driverStartTime: time.Now(),
	}

	m.FilesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digdoc_files_processed_total",
			Help: "Total number of metadata files the conversion driver has attempted",
		},
		[]string{"outcome"},
	)

	m.CommitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digdoc_commits_total",
			Help: "Total number of files certified equivalent and committed",
		},
	)

	m.RollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digdoc_rollbacks_total",
			Help: "Total number of per-file conversions rolled back, by stage",
		},
		[]string{"stage"},
	)

	m.UghErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digdoc_ugh_errors_total",
			Help: "Total number of adapter-level errors outside the commit/rollback/save vocabulary",
		},
	)

	m.ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digdoc_conversion_duration_seconds",
			Help:    "Duration of each conversion pipeline stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	m.ContentViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digdoc_content_violations_total",
			Help: "Total number of content-validator violations recorded across all files",
		},
	)

	m.EqualsMismatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digdoc_equals_mismatches_total",
			Help: "Total number of equals-validator mismatches between RDF and METS documents",
		},
	)

	m.TokenizerMismatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digdoc_tokenizer_mismatches_total",
			Help: "Total number of tokenizer-validator mismatches between backup and round-tripped files",
		},
	)

	m.DriverRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digdoc_driver_runs_total",
			Help: "Total number of conversion driver directory walks started",
		},
	)

	m.DriverUptimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digdoc_driver_uptime_seconds",
			Help: "Seconds since the conversion driver process started",
		},
	)

	go m.updateUptime()

	return m
}

// updateUptime periodically updates the driver uptime gauge.
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.DriverUptimeSeconds.Set(time.Since(m.driverStartTime).Seconds())
	}
}

// RecordFileOutcome records a per-file pipeline outcome ("commit",
// "rollback", or "ugh") and, for rollbacks, the stage at which it happened.
func (m *Metrics) RecordFileOutcome(outcome, stage string) {
	m.FilesProcessedTotal.WithLabelValues(outcome).Inc()
	switch outcome {
	case "commit":
		m.CommitsTotal.Inc()
	case "rollback":
		m.RollbacksTotal.WithLabelValues(stage).Inc()
	case "ugh":
		m.UghErrorsTotal.Inc()
	}
}

// RecordStageDuration records how long a named pipeline stage
// (backup/read/sort/validate/write/reload/tokenize) took for one file.
func (m *Metrics) RecordStageDuration(stage string, duration time.Duration) {
	m.ConversionDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordContentViolations adds n content-validator violations to the total.
func (m *Metrics) RecordContentViolations(n int) {
	if n <= 0 {
		return
	}
	m.ContentViolationsTotal.Add(float64(n))
}

// RecordEqualsMismatch records one equals-validator mismatch.
func (m *Metrics) RecordEqualsMismatch() {
	m.EqualsMismatchesTotal.Inc()
}

// RecordTokenizerMismatch records one tokenizer-validator mismatch.
func (m *Metrics) RecordTokenizerMismatch() {
	m.TokenizerMismatchesTotal.Inc()
}
