// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/goccy/go-json"

	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/world"
)

// Angles is a view direction in degrees. It encodes as [yaw, pitch].
type Angles struct {
	Yaw   float32
	Pitch float32
}

// AnglesOf returns the view angles of p.
func AnglesOf(p *world.Player) Angles {
	return Angles{Yaw: p.ViewAngle, Pitch: p.PitchAngle}
}

// MarshalJSON implements json.Marshaler.
func (a Angles) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float32{a.Yaw, a.Pitch})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Angles) UnmarshalJSON(b []byte) error {
	var v [2]float32
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	a.Yaw, a.Pitch = v[0], v[1]
	return nil
}

// direction returns the unit vector for a yaw/pitch pair.
func (a Angles) direction() mgl64.Vec3 {
	yaw := mgl64.DegToRad(float64(a.Yaw))
	pitch := mgl64.DegToRad(float64(a.Pitch))
	return mgl64.Vec3{
		math.Cos(pitch) * math.Sin(yaw),
		math.Sin(pitch),
		math.Cos(pitch) * math.Cos(yaw),
	}
}

// AngleDelta returns the great-circle angle between two view directions in
// degrees, in [0, 180].
func AngleDelta(a, b Angles) float64 {
	dot := mgl64.Clamp(a.direction().Dot(b.direction()), -1, 1)
	return mgl64.RadToDeg(math.Acos(dot))
}

// YawDelta returns the signed yaw change from one angle to another,
// remapped to (-180, 180].
func YawDelta(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	if d < 0 {
		d += 360
	}
	if d > 180 {
		d -= 360
	}
	return d
}

// ViewAngleDelta returns the per-tick yaw and pitch rates between two
// samples. A zero tick gap counts as one tick.
func ViewAngleDelta(prev, cur Angles, ticks demo.Tick) (yaw, pitch float64) {
	n := float64(max(ticks, 1))
	yaw = YawDelta(float64(prev.Yaw), float64(cur.Yaw)) / n
	pitch = (float64(cur.Pitch) - float64(prev.Pitch)) / n
	return yaw, pitch
}
