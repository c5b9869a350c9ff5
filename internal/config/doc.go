// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

/*
Package config loads the analyzer configuration with koanf.

# Configuration Sources

Configuration is layered, later sources overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: the -config flag, DEMOSCOPE_CONFIG, or demoscope.yaml in
    the working directory
 3. DEMOSCOPE_* environment variables
 4. Command-line flags, passed in as LoadOptions.Overrides

The merged result is validated with go-playground/validator through the
validation package before it is returned.

# Environment Variables

Logging:
  - DEMOSCOPE_LOG_LEVEL: trace, debug, info, warn, error, disabled (default: info)
  - DEMOSCOPE_LOG_FORMAT: console or json (default: console)
  - DEMOSCOPE_LOG_CALLER: include file:line (default: false)

Analysis:
  - DEMOSCOPE_DETECTORS: comma-separated detector names (default: all default-on)
  - DEMOSCOPE_PARAMS: path to a detector params JSON document
  - DEMOSCOPE_PROGRESS: log progress once per second (default: true)
  - DEMOSCOPE_WORKERS: concurrent inputs, 1-64 (default: 1)
  - DEMOSCOPE_DUMP_DIR: output directory of the dump detectors (default: .)

Output:
  - DEMOSCOPE_OUTPUT_FORMAT: json, pretty or count (default: pretty)
  - DEMOSCOPE_QUIET: silence diagnostics, print only the report (default: false)
  - DEMOSCOPE_METADATA: print the demo header summary (default: false)

Persistence and metrics:
  - DEMOSCOPE_DB: SQLite run history path (default: disabled)
  - DEMOSCOPE_METRICS_TEXTFILE_PATH: Prometheus textfile output (default: disabled)

# Example File

	logging:
	  level: debug
	analysis:
	  detectors: [aimsnap, oob_pitch]
	  workers: 4
	output:
	  format: count
*/
package config
