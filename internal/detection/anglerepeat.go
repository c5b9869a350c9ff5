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

// AngleRepeat parameters.
const (
	ParamMinAngleDiffRatio        = "min_angle_diff_ratio"
	ParamMaxFirstThirdAngleDelta  = "max_first_third_angle_delta"
	ParamMinFirstSecondAngleDelta = "min_first_second_angle_delta"
)

const angleRepeatSamples = 3

// AngleRepeatDetector flags aim that leaves a point and returns to it on the
// next tick: a large first-to-second delta with a tiny first-to-third delta.
type AngleRepeatDetector struct {
	params  *Params
	guard   *JankGuard
	history *cache.TickWindow[steamid.ID, Angles]
	buffer  findingBuffer
	series  []Angles

	retracted int
}

// NewAngleRepeat creates an angle_repetition detector with default parameters.
func NewAngleRepeat() *AngleRepeatDetector {
	params := NewParams().
		DefineFloat(ParamMinAngleDiffRatio, 20.0).
		DefineFloat(ParamMaxFirstThirdAngleDelta, 2.0).
		DefineFloat(ParamMinFirstSecondAngleDelta, 5.0)
	defineGuardParams(params)

	return &AngleRepeatDetector{
		params:  params,
		guard:   NewJankGuard(params),
		history: cache.NewTickWindow[steamid.ID, Angles](angleRepeatSamples),
		series:  make([]Angles, 0, angleRepeatSamples),
	}
}

// Name returns the detector name.
func (d *AngleRepeatDetector) Name() string { return NameAngleRepeat }

// EnabledByDefault reports true.
func (d *AngleRepeatDetector) EnabledByDefault() bool { return true }

// Params returns the tunable parameters.
func (d *AngleRepeatDetector) Params() *Params { return d.params }

// HandledMessages returns the JankGuard's message interest.
func (d *AngleRepeatDetector) HandledMessages() MessageFilter { return d.guard.HandledMessages() }

// OnMessage feeds spawn, teleport and fire events to the guard.
func (d *AngleRepeatDetector) OnMessage(_ context.Context, msg *demo.Message, snap *world.Snapshot, tick demo.Tick) ([]Finding, error) {
	d.guard.OnMessage(msg, snap, tick)
	return nil, nil
}

// OnTick evaluates the last three ticks of view angles per visible player.
func (d *AngleRepeatDetector) OnTick(_ context.Context, snap *world.Snapshot) ([]Finding, error) {
	d.guard.OnTick(snap)
	d.guard.Opened(d.retract)
	d.history.Advance()

	minRatio := d.params.Float(ParamMinAngleDiffRatio)
	maxReturn := d.params.Float(ParamMaxFirstThirdAngleDelta)
	minAway := d.params.Float(ParamMinFirstSecondAngleDelta)

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
		first, second, third := series[0], series[1], series[2]

		away := AngleDelta(first, second)
		if away < minAway {
			continue
		}
		back := AngleDelta(first, third)
		ratio := away / max(back, 1)
		if back > maxReturn || ratio <= minRatio {
			continue
		}
		if d.guard.FireBlocks(id, snap.Tick) {
			continue
		}

		f, err := newFinding(snap.Tick, NameAngleRepeat, id, AngleRepeatMetadata{
			Angle1:  first,
			Angle2:  second,
			Angle3:  third,
			Delta13: back,
			Delta12: away,
			Ratio:   ratio,
		})
		if err != nil {
			return nil, err
		}
		d.buffer.add(f)
	}
	return nil, nil
}

func (d *AngleRepeatDetector) retract(id steamid.ID, event demo.Tick) {
	d.retracted += d.buffer.retract(id, event, d.guard.SpawnWindow())
}

// Finish applies any last retractions and returns the buffered findings.
func (d *AngleRepeatDetector) Finish(context.Context) ([]Finding, error) {
	d.guard.Opened(d.retract)
	return d.buffer.drain(), nil
}

// Retracted returns how many findings were taken back.
func (d *AngleRepeatDetector) Retracted() int { return d.retracted }
