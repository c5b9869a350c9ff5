// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"context"
	"math"

	"github.com/tomtom215/demoscope/internal/world"
)

// snapRateLimit is the per-tick yaw or pitch rate, in degrees, at which a
// turn is impossible for a human.
const snapRateLimit = 180

// ViewAngles180Detector flags view angle changes of 180 degrees or more per
// tick between consecutive snapshots.
type ViewAngles180Detector struct {
	prev *world.Snapshot
}

// NewViewAngles180 creates a viewangles_180degrees detector.
func NewViewAngles180() *ViewAngles180Detector {
	return &ViewAngles180Detector{}
}

// Name returns the detector name.
func (d *ViewAngles180Detector) Name() string { return NameViewAngles180 }

// EnabledByDefault reports true.
func (d *ViewAngles180Detector) EnabledByDefault() bool { return true }

// OnTick compares each player against their state in the previous snapshot.
func (d *ViewAngles180Detector) OnTick(_ context.Context, snap *world.Snapshot) ([]Finding, error) {
	prev := d.prev
	d.prev = snap
	if prev == nil {
		return nil, nil
	}

	var findings []Finding
	ticks := snap.Tick - prev.Tick
	if snap.Tick < prev.Tick {
		ticks = 0
	}
	for i := range snap.Players {
		p := &snap.Players[i]
		id, ok := p.Identity()
		if !ok {
			continue
		}
		old, ok := prev.PlayerByIdentity(id)
		if !ok {
			continue
		}
		yaw, pitch := ViewAngleDelta(AnglesOf(old), AnglesOf(p), ticks)
		if math.Abs(yaw) < snapRateLimit && math.Abs(pitch) < snapRateLimit {
			continue
		}
		f, err := newFinding(snap.Tick, NameViewAngles180, id, ViewAngles180Metadata{
			YawDelta:   yaw,
			PitchDelta: pitch,
		})
		if err != nil {
			return findings, err
		}
		findings = append(findings, f)
	}
	return findings, nil
}
