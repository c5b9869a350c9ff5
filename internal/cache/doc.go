// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

/*
Package cache provides the bounded history containers used by detectors and
the analyzer.

# Overview

  - TickWindow: the last N ticks of per-key samples, as a circular buffer of
    maps. Detectors use it to keep a few ticks of view angles per player.
  - Ring: a fixed-capacity FIFO of values, used for the rolling
    ticks-per-second estimate in progress reports.

Both containers are sized at construction and never grow. Neither is safe
for concurrent use; each analysis run owns its own instances.

# Example

	w := cache.NewTickWindow[steamid.ID, Angles](5)
	for _, snap := range ticks {
	    w.Advance()
	    for _, p := range snap.Players {
	        w.Put(id(p), anglesOf(p))
	    }
	    if series, ok := w.Series(id, nil); ok {
	        // series[0] is the oldest sample, series[4] the current tick
	    }
	}
*/
package cache
