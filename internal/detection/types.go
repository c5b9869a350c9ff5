// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/steamid"
	"github.com/tomtom215/demoscope/internal/world"
)

// Detector names.
const (
	NameViewAngles180 = "viewangles_180degrees"
	NameOOBPitch      = "oob_pitch"
	NameAimSnap       = "aimsnap"
	NameAngleRepeat   = "angle_repetition"
	NameWriteToFile   = "write_to_file"
	NameAllMessages   = "all_messages"
	NameViewAnglesCSV = "viewangles_to_csv"
)

var (
	// ErrUnknownDetector is returned when a selected name is not registered.
	ErrUnknownDetector = errors.New("unknown detector")

	// ErrNoDetectors is returned when a selection resolves to no detectors.
	ErrNoDetectors = errors.New("no detectors selected")
)

// Detector is the capability every detection algorithm provides. The
// remaining hooks are optional and discovered with type assertions:
// Initializer, TickHandler, MessageHandler, Finisher and Tunable.
//
// A detector instance belongs to exactly one analysis run and is never
// called concurrently.
type Detector interface {
	// Name is the stable identifier used for selection, parameters and findings.
	Name() string

	// EnabledByDefault reports whether the detector runs when no explicit
	// selection is given.
	EnabledByDefault() bool
}

// Initializer is called once before any record is delivered.
type Initializer interface {
	Init(ctx context.Context) error
}

// TickHandler receives the filtered snapshot at every tick boundary.
type TickHandler interface {
	OnTick(ctx context.Context, snap *world.Snapshot) ([]Finding, error)
}

// MessageHandler receives raw messages of the declared types. snap is the
// most recent tick snapshot refreshed with the current identity index.
type MessageHandler interface {
	HandledMessages() MessageFilter
	OnMessage(ctx context.Context, msg *demo.Message, snap *world.Snapshot, tick demo.Tick) ([]Finding, error)
}

// Finisher is called once at end of stream. Detectors that buffer findings
// return them here.
type Finisher interface {
	Finish(ctx context.Context) ([]Finding, error)
}

// Tunable exposes named parameters that can be overridden before Init.
type Tunable interface {
	Params() *Params
}

// Retractor is implemented by detectors that can take back buffered
// findings. Retracted returns the running total.
type Retractor interface {
	Retracted() int
}

// MessageFilter declares which message types a MessageHandler wants.
type MessageFilter struct {
	all   bool
	types []demo.MessageType
}

// AllMessages matches every message type.
func AllMessages() MessageFilter { return MessageFilter{all: true} }

// NoMessages matches nothing.
func NoMessages() MessageFilter { return MessageFilter{} }

// OnlyMessages matches the listed types.
func OnlyMessages(types ...demo.MessageType) MessageFilter {
	return MessageFilter{types: types}
}

// Handles reports whether t passes the filter.
func (f MessageFilter) Handles(t demo.MessageType) bool {
	if f.all {
		return true
	}
	for _, mt := range f.types {
		if mt == t {
			return true
		}
	}
	return false
}

// Empty reports whether the filter can never match.
func (f MessageFilter) Empty() bool {
	return !f.all && len(f.types) == 0
}

// Finding is one flagged observation.
type Finding struct {
	Tick      demo.Tick       `json:"tick"`
	Algorithm string          `json:"algorithm"`
	Player    steamid.ID      `json:"player"`
	Data      json.RawMessage `json:"data"`
}

// newFinding marshals payload into a Finding.
func newFinding(tick demo.Tick, algorithm string, player steamid.ID, payload any) (Finding, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Finding{}, fmt.Errorf("failed to marshal %s payload: %w", algorithm, err)
	}
	return Finding{Tick: tick, Algorithm: algorithm, Player: player, Data: data}, nil
}

// AimSnapMetadata is the payload of an aimsnap finding.
type AimSnapMetadata struct {
	Deltas []float64 `json:"deltas"`
}

// AngleRepeatMetadata is the payload of an angle_repetition finding.
type AngleRepeatMetadata struct {
	Angle1  Angles  `json:"angle_1"`
	Angle2  Angles  `json:"angle_2"`
	Angle3  Angles  `json:"angle_3"`
	Delta13 float64 `json:"1_3_delta"`
	Delta12 float64 `json:"1_2_delta"`
	Ratio   float64 `json:"ratio"`
}

// OOBPitchMetadata is the payload of an oob_pitch finding.
type OOBPitchMetadata struct {
	Pitch float32 `json:"pitch"`
}

// ViewAngles180Metadata is the payload of a viewangles_180degrees finding.
type ViewAngles180Metadata struct {
	YawDelta   float64 `json:"va_delta"`
	PitchDelta float64 `json:"pa_delta"`
}
