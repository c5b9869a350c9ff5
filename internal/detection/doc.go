// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

/*
Package detection provides the pluggable cheat detectors run over a demo.

Every detector implements Detector (a name and a default-enabled flag) and
opts into the analysis lifecycle by implementing any of the hook
interfaces:

  - Initializer: called once before the first record
  - MessageHandler: raw messages of the declared types, before the tick's OnTick
  - TickHandler: the filtered world snapshot at every tick boundary
  - Finisher: end of stream, for detectors that buffer findings
  - Tunable: named parameters overridable from a params file

# Detectors

  - viewangles_180degrees: yaw or pitch rate of 180 degrees or more per tick
  - oob_pitch: pitch outside the engine's legal range, once per run of ticks
  - aimsnap: one large aim jump between small natural adjustments (off by default)
  - angle_repetition: aim that leaves a point and returns to it a tick later
  - write_to_file, all_messages: development dumps, off by default
  - viewangles_to_csv: per-player view angle trace as CSV, off by default

# Suppression

Spawns and teleports cause large legitimate angle changes. Detectors that
track view angles embed a JankGuard, skip identities inside the
spawn_window after such an event, and take back buffered findings made
shortly before it. Those detectors report in Finish. The guard also tracks
weapon fire inferred from bullet and animation temp entities; fire_window
and require_recent_fire control how it gates findings.

# Parameters

A params document is JSON of the form

	{"aimsnap": {"snap_threshold": 12.5}, "angle_repetition": {"spawn_window": 90}}

validated against an embedded JSON Schema. Unknown detectors and names are
ignored; a value of the wrong type is an error.

Detector instances belong to one run and are not safe for concurrent use.
*/
package detection
