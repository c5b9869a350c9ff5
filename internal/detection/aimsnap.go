// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"context"

	"github.com/tomtom215/demoscope/internal/cache"
	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/steamid"
	"github.com/tomtom215/demoscope/internal/world"
)

// AimSnap parameters.
const (
	ParamNoiseMin      = "noise_min"
	ParamNoiseMax      = "noise_max"
	ParamSnapThreshold = "snap_threshold"
)

// aimSnapSamples is the number of ticks of view angles examined; they give
// aimSnapSamples-1 deltas.
const aimSnapSamples = 5

// AimSnapDetector flags a single large view-angle jump surrounded by small
// natural adjustments: noise, noise, snap, noise or any other shape with
// exactly one outlier among noise where the first and last deltas are noise.
type AimSnapDetector struct {
	params  *Params
	guard   *JankGuard
	history *cache.TickWindow[steamid.ID, Angles]
	buffer  findingBuffer
	series  []Angles

	retracted int
}

// NewAimSnap creates an aimsnap detector with default parameters.
func NewAimSnap() *AimSnapDetector {
	params := NewParams().
		DefineFloat(ParamNoiseMin, 0.001).
		DefineFloat(ParamNoiseMax, 0.5).
		DefineFloat(ParamSnapThreshold, 10.0)
	defineGuardParams(params)

	return &AimSnapDetector{
		params:  params,
		guard:   NewJankGuard(params),
		history: cache.NewTickWindow[steamid.ID, Angles](aimSnapSamples),
		series:  make([]Angles, 0, aimSnapSamples),
	}
}

// Name returns the detector name.
func (d *AimSnapDetector) Name() string { return NameAimSnap }

// EnabledByDefault reports false; aimsnap runs only when selected.
func (d *AimSnapDetector) EnabledByDefault() bool { return false }

// Params returns the tunable parameters.
func (d *AimSnapDetector) Params() *Params { return d.params }

// HandledMessages returns the JankGuard's message interest.
func (d *AimSnapDetector) HandledMessages() MessageFilter { return d.guard.HandledMessages() }

// OnMessage feeds spawn, teleport and fire events to the guard.
func (d *AimSnapDetector) OnMessage(_ context.Context, msg *demo.Message, snap *world.Snapshot, tick demo.Tick) ([]Finding, error) {
	d.guard.OnMessage(msg, snap, tick)
	return nil, nil
}

// OnTick records the current view angles and evaluates the last five ticks
// for every visible player.
func (d *AimSnapDetector) OnTick(_ context.Context, snap *world.Snapshot) ([]Finding, error) {
	d.guard.OnTick(snap)
	d.guard.Opened(d.retract)
	d.history.Advance()

	for i := range snap.Players {
		p := &snap.Players[i]
		id, ok := p.Identity()
		if !ok || d.guard.Suppressed(id, snap.Tick) {
			continue
		}
		d.history.Put(id, AnglesOf(p))

		series, ok := d.history.Series(id, d.series[:0])
		if !ok {
			continue
		}
		deltas := make([]float64, len(series)-1)
		for j := 1; j < len(series); j++ {
			deltas[j-1] = AngleDelta(series[j-1], series[j])
		}
		if !d.isSnap(deltas) || d.guard.FireBlocks(id, snap.Tick) {
			continue
		}

		// The snap sits in the middle of the window.
		f, err := newFinding(snap.Tick-2, NameAimSnap, id, AimSnapMetadata{Deltas: deltas})
		if err != nil {
			return nil, err
		}
		d.buffer.add(f)
	}
	return nil, nil
}

func (d *AimSnapDetector) isSnap(deltas []float64) bool {
	lo := d.params.Float(ParamNoiseMin)
	hi := d.params.Float(ParamNoiseMax)
	threshold := d.params.Float(ParamSnapThreshold)
	noise := func(v float64) bool { return v >= lo && v < hi }

	if !noise(deltas[0]) || !noise(deltas[len(deltas)-1]) {
		return false
	}
	noisy, snaps := 0, 0
	for _, v := range deltas {
		if noise(v) {
			noisy++
		}
		if v > threshold {
			snaps++
		}
	}
	return noisy == len(deltas)-1 && snaps == 1
}

func (d *AimSnapDetector) retract(id steamid.ID, event demo.Tick) {
	d.retracted += d.buffer.retract(id, event, d.guard.SpawnWindow())
}

// Finish applies any last retractions and returns the buffered findings.
func (d *AimSnapDetector) Finish(context.Context) ([]Finding, error) {
	d.guard.Opened(d.retract)
	return d.buffer.drain(), nil
}

// Retracted returns how many findings were taken back.
func (d *AimSnapDetector) Retracted() int { return d.retracted }
