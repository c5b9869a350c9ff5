// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Decoder Metrics
	RecordsDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demoscope_records_decoded_total",
			Help: "Total number of decoded demo records by kind",
		},
		[]string{"kind"}, // "datatables", "stringtable", "message"
	)

	RecordDecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "demoscope_record_decode_errors_total",
			Help: "Total number of malformed records skipped",
		},
	)

	TicksProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "demoscope_ticks_processed_total",
			Help: "Total number of tick boundaries dispatched to detectors",
		},
	)

	// Detector Metrics
	FindingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demoscope_findings_total",
			Help: "Total number of findings reported by detector",
		},
		[]string{"detector"},
	)

	FindingsRetracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demoscope_findings_retracted_total",
			Help: "Total number of buffered findings withdrawn after a spawn or teleport",
		},
		[]string{"detector"},
	)

	DetectorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demoscope_detector_errors_total",
			Help: "Total number of detector callback errors",
		},
		[]string{"detector", "phase"}, // "init", "message", "tick", "finish"
	)

	// Run Metrics
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "demoscope_run_duration_seconds",
			Help:    "Duration of a complete analysis run",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demoscope_runs_total",
			Help: "Total number of analysis runs by outcome",
		},
		[]string{"status"}, // "success", "error"
	)

	ActiveRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "demoscope_active_runs",
			Help: "Number of analysis runs in progress",
		},
	)

	// Store Metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "demoscope_store_query_duration_seconds",
			Help:    "Duration of findings store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demoscope_store_query_errors_total",
			Help: "Total number of findings store query errors",
		},
		[]string{"operation", "error_type"},
	)
)

// RecordRecord counts one decoded record.
func RecordRecord(kind string) {
	RecordsDecoded.WithLabelValues(kind).Inc()
}

// RecordDecodeError counts one skipped malformed record.
func RecordDecodeError() {
	RecordDecodeErrors.Inc()
}

// RecordTick counts one dispatched tick.
func RecordTick() {
	TicksProcessed.Inc()
}

// RecordFindings adds n findings for detector.
func RecordFindings(detector string, n int) {
	if n <= 0 {
		return
	}
	FindingsTotal.WithLabelValues(detector).Add(float64(n))
}

// RecordRetracted adds n retracted findings for detector.
func RecordRetracted(detector string, n int) {
	if n <= 0 {
		return
	}
	FindingsRetracted.WithLabelValues(detector).Add(float64(n))
}

// RecordDetectorError counts a failed detector callback.
func RecordDetectorError(detector, phase string) {
	DetectorErrors.WithLabelValues(detector, phase).Inc()
}

// RecordRun records the outcome and duration of a finished run.
func RecordRun(duration time.Duration, err error) {
	RunDuration.Observe(duration.Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	RunsTotal.WithLabelValues(status).Inc()
}

// TrackActiveRun increments or decrements the active runs gauge.
func TrackActiveRun(inc bool) {
	if inc {
		ActiveRuns.Inc()
	} else {
		ActiveRuns.Dec()
	}
}

// RecordStoreQuery records store query timing and errors.
func RecordStoreQuery(operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		StoreQueryErrors.WithLabelValues(operation, errorType).Inc()
	}
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
