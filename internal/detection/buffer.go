// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/steamid"
)

// findingBuffer holds findings until end of stream so a later spawn or
// teleport can take them back.
type findingBuffer struct {
	findings []Finding
}

func (b *findingBuffer) add(f Finding) {
	b.findings = append(b.findings, f)
}

// retract drops findings for id at or before event and less than window
// ticks before it. It returns the number removed.
func (b *findingBuffer) retract(id steamid.ID, event demo.Tick, window int64) int {
	kept := b.findings[:0]
	removed := 0
	for _, f := range b.findings {
		if f.Player == id && f.Tick <= event && int64(event-f.Tick) < window {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	clear(b.findings[len(kept):])
	b.findings = kept
	return removed
}

// drain returns the buffered findings and empties the buffer.
func (b *findingBuffer) drain() []Finding {
	out := b.findings
	b.findings = nil
	return out
}

func (b *findingBuffer) len() int {
	return len(b.findings)
}
