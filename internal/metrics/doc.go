// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

/*
Package metrics provides Prometheus instrumentation for analysis runs.

Collectors are registered with the default registry through promauto and
are safe to update from concurrent runs. The analyzer is a batch tool, so
metrics are not served over HTTP; WriteTextfile dumps them at the end of a
run for node_exporter's textfile collector:

	demoscope -i match.jsonl.zst -metrics /var/lib/node_exporter/demoscope.prom

# Available Metrics

Decoder Metrics:
  - demoscope_records_decoded_total: decoded records (counter)
    Labels: kind
  - demoscope_record_decode_errors_total: malformed records skipped (counter)
  - demoscope_ticks_processed_total: tick boundaries dispatched (counter)

Detector Metrics:
  - demoscope_findings_total: findings reported (counter)
    Labels: detector
  - demoscope_findings_retracted_total: findings withdrawn by suppression (counter)
    Labels: detector
  - demoscope_detector_errors_total: failed detector callbacks (counter)
    Labels: detector, phase

Run Metrics:
  - demoscope_run_duration_seconds: run duration (histogram)
  - demoscope_runs_total: finished runs (counter)
    Labels: status
  - demoscope_active_runs: runs in progress (gauge)

Store Metrics:
  - demoscope_store_query_duration_seconds: store query time (histogram)
    Labels: operation
  - demoscope_store_query_errors_total: store query errors (counter)
    Labels: operation, error_type

# Example PromQL

Findings per detector over the last day:

	sum by (detector) (increase(demoscope_findings_total[1d]))

Share of findings taken back by spawn or teleport suppression:

	sum(demoscope_findings_retracted_total) /
	  (sum(demoscope_findings_total) + sum(demoscope_findings_retracted_total))
*/
package metrics
