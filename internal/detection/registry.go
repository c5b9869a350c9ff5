// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Options carries what a factory needs to build a detector for one run.
type Options struct {
	// OutputDir is where dump detectors write their files.
	OutputDir string

	// Logger is the run's logger.
	Logger zerolog.Logger
}

// Factory builds a fresh detector instance. Each run gets its own instance.
type Factory func(opts Options) Detector

type registration struct {
	name      string
	factory   Factory
	byDefault bool
}

// Registry maps detector names to factories in registration order.
type Registry struct {
	entries []registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a registry holding every built-in detector.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NameWriteToFile, func(o Options) Detector { return NewWriteToFile(o) })
	r.Register(NameAllMessages, func(o Options) Detector { return NewAllMessages(o) })
	r.Register(NameViewAnglesCSV, func(o Options) Detector { return NewViewAnglesCSV(o) })
	r.Register(NameViewAngles180, func(Options) Detector { return NewViewAngles180() })
	r.Register(NameOOBPitch, func(Options) Detector { return NewOOBPitch() })
	r.Register(NameAimSnap, func(Options) Detector { return NewAimSnap() })
	r.Register(NameAngleRepeat, func(Options) Detector { return NewAngleRepeat() })
	return r
}

// Register adds a factory. Registering a name twice replaces the factory
// and keeps the original position.
func (r *Registry) Register(name string, f Factory) {
	byDefault := f(Options{Logger: zerolog.Nop()}).EnabledByDefault()
	for i := range r.entries {
		if r.entries[i].name == name {
			r.entries[i] = registration{name: name, factory: f, byDefault: byDefault}
			return
		}
	}
	r.entries = append(r.entries, registration{name: name, factory: f, byDefault: byDefault})
}

// Names returns every registered name in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Defaults returns the names of detectors enabled by default.
func (r *Registry) Defaults() []string {
	var names []string
	for _, e := range r.entries {
		if e.byDefault {
			names = append(names, e.name)
		}
	}
	return names
}

// Select builds the detectors named in names, in registration order.
// An empty names list selects the defaults. Duplicate names are built once.
func (r *Registry) Select(names []string, opts Options) ([]Detector, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if !r.has(n) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, n)
		}
		want[n] = true
	}

	var out []Detector
	for _, e := range r.entries {
		if len(names) == 0 && !e.byDefault {
			continue
		}
		if len(names) > 0 && !want[e.name] {
			continue
		}
		out = append(out, e.factory(opts))
	}
	if len(out) == 0 {
		return nil, ErrNoDetectors
	}
	return out, nil
}

func (r *Registry) has(name string) bool {
	for _, e := range r.entries {
		if e.name == name {
			return true
		}
	}
	return false
}
