// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"context"

	"github.com/tomtom215/demoscope/internal/steamid"
	"github.com/tomtom215/demoscope/internal/world"
)

// OOBPitch parameters. The defaults sit just inside the engine's clamp.
const (
	ParamMinPitch = "min_pitch"
	ParamMaxPitch = "max_pitch"

	defaultMinPitch = -89.29412078857422
	defaultMaxPitch = 89.29411315917969
)

// OOBPitchDetector flags view pitch outside the legal range. A player is
// reported once per contiguous out-of-range run.
type OOBPitchDetector struct {
	params  *Params
	flagged map[steamid.ID]bool
	next    map[steamid.ID]bool
}

// NewOOBPitch creates an oob_pitch detector with default bounds.
func NewOOBPitch() *OOBPitchDetector {
	return &OOBPitchDetector{
		params: NewParams().
			DefineFloat(ParamMinPitch, defaultMinPitch).
			DefineFloat(ParamMaxPitch, defaultMaxPitch),
		flagged: make(map[steamid.ID]bool),
		next:    make(map[steamid.ID]bool),
	}
}

// Name returns the detector name.
func (d *OOBPitchDetector) Name() string { return NameOOBPitch }

// EnabledByDefault reports true.
func (d *OOBPitchDetector) EnabledByDefault() bool { return true }

// Params returns the tunable parameters.
func (d *OOBPitchDetector) Params() *Params { return d.params }

// OnTick reports players whose pitch just left the legal range.
func (d *OOBPitchDetector) OnTick(_ context.Context, snap *world.Snapshot) ([]Finding, error) {
	lo := d.params.Float(ParamMinPitch)
	hi := d.params.Float(ParamMaxPitch)

	var findings []Finding
	clear(d.next)
	for i := range snap.Players {
		p := &snap.Players[i]
		id, ok := p.Identity()
		if !ok {
			continue
		}
		pitch := float64(p.PitchAngle)
		if pitch >= lo && pitch <= hi {
			continue
		}
		d.next[id] = true
		if d.flagged[id] {
			continue
		}
		f, err := newFinding(snap.Tick, NameOOBPitch, id, OOBPitchMetadata{Pitch: p.PitchAngle})
		if err != nil {
			return findings, err
		}
		findings = append(findings, f)
	}
	d.flagged, d.next = d.next, d.flagged
	return findings, nil
}
