// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

/*
Package analysis orchestrates a single pass over a decoded demo.

An Analyzer owns a world.Builder and a set of detectors and moves through
Uninitialized, Initialized, Running and Finished. Every record is first
applied to the builder; messages are then offered to detectors that
declared interest in their type. A net_tick message ends the tick: the
builder's filtered view is taken and every detector's OnTick runs on it.
Repeated markers for the same tick are ignored.

Detector errors never stop a run. They are wrapped with the detector name,
logged, counted, and the findings of that call are dropped. A detector
whose Init fails sits out the rest of the run.

Run drives the whole lifecycle from a demo.Decoder, skipping malformed
records. RunBatch runs independent files in parallel with
golang.org/x/sync/errgroup; each run has its own builder and detectors.

The Report is written as JSON, as a per-detector tally (WriteCount), or
as a header summary (WriteMetadata).
*/
package analysis
