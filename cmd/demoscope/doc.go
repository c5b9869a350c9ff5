// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

// Command demoscope analyzes decoded TF2 demo record streams for signs of
// cheating and prints the findings.
//
// # Usage
//
//	demoscope -i match.jsonl.zst                 # default detectors, pretty JSON
//	demoscope -i a.jsonl -i b.jsonl -q           # compact JSON, one line per input
//	demoscope -i match.jsonl -a aimsnap -c       # count findings of one detector
//	demoscope -l                                 # list detectors
//
// Flags:
//
//	-i PATH     input record stream (repeatable)
//	-a NAME     detector to run (repeatable)
//	-p FILE     detector parameter JSON
//	-q          silence diagnostics, print compact JSON
//	-Q          silence diagnostics, print indented JSON
//	-c          print a detection count
//	-m          print the demo metadata first
//	-l          list detectors and exit
//	-config     YAML config file
//	-db         SQLite run history
//	-metrics    Prometheus textfile output
//
// # Configuration
//
// Flags override DEMOSCOPE_* environment variables, which override the
// config file, which overrides the built-in defaults. See package config.
//
// # Exit Codes
//
//	0  all inputs analyzed
//	1  configuration error (bad flag, config, params or detector name)
//	2  at least one input failed; reports for the others are still printed
//
// SIGINT and SIGTERM cancel the runs in progress.
package main
