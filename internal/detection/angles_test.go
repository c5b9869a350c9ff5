// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
)

func TestAngleDelta_Properties(t *testing.T) {
	samples := []Angles{
		{0, 0}, {90, 0}, {180, 0}, {359.9, 0}, {-45, 30},
		{10, 89}, {190, -89}, {123.4, 12.5}, {0, -60}, {270, 45},
	}

	for _, a := range samples {
		if got := AngleDelta(a, a); got > 1e-5 {
			t.Errorf("AngleDelta(%v, %v) = %v, want 0", a, a, got)
		}
		for _, b := range samples {
			ab, ba := AngleDelta(a, b), AngleDelta(b, a)
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("AngleDelta not symmetric for %v, %v: %v vs %v", a, b, ab, ba)
			}
			if ab < 0 || ab > 180 || math.IsNaN(ab) {
				t.Errorf("AngleDelta(%v, %v) = %v, want within [0, 180]", a, b, ab)
			}
		}
	}
}

func TestAngleDelta_Values(t *testing.T) {
	tests := []struct {
		name string
		a, b Angles
		want float64
	}{
		{"yaw only", Angles{0, 0}, Angles{90, 0}, 90},
		{"opposite", Angles{0, 0}, Angles{180, 0}, 180},
		{"wraps around", Angles{359, 0}, Angles{1, 0}, 2},
		{"pitch only", Angles{0, 0}, Angles{0, 45}, 45},
		{"straight up ignores yaw", Angles{0, 90}, Angles{137, 90}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AngleDelta(tt.a, tt.b); math.Abs(got-tt.want) > 1e-3 {
				t.Errorf("AngleDelta() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYawDelta(t *testing.T) {
	tests := []struct {
		from, to float64
		want     float64
	}{
		{350, 10, 20},
		{10, 350, -20},
		{0, 180, 180},
		{180, 0, 180},
		{0, 0, 0},
		{-170, 170, -20},
		{720, 30, 30},
	}

	for _, tt := range tests {
		if got := YawDelta(tt.from, tt.to); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("YawDelta(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestViewAngleDelta_DividesByTicks(t *testing.T) {
	yaw, pitch := ViewAngleDelta(Angles{350, 10}, Angles{10, 30}, 4)
	if math.Abs(yaw-5) > 1e-6 || math.Abs(pitch-5) > 1e-6 {
		t.Errorf("ViewAngleDelta() = (%v, %v), want (5, 5)", yaw, pitch)
	}

	yaw, _ = ViewAngleDelta(Angles{0, 0}, Angles{90, 0}, 0)
	if yaw != 90 {
		t.Errorf("zero tick gap yaw = %v, want 90", yaw)
	}
}

func TestAngles_JSON(t *testing.T) {
	b, err := json.Marshal(Angles{Yaw: 90, Pitch: -10.5})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != "[90,-10.5]" {
		t.Errorf("Marshal() = %s, want [90,-10.5]", b)
	}

	var a Angles
	if err := json.Unmarshal(b, &a); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if a.Yaw != 90 || a.Pitch != -10.5 {
		t.Errorf("Unmarshal() = %+v", a)
	}
}
