// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tomtom215/demoscope/internal/logging"
)

func TestParams_Set(t *testing.T) {
	tests := []struct {
		name    string
		param   string
		value   any
		wantErr error
	}{
		{"float accepts float", "f", 1.5, nil},
		{"float accepts integer", "f", 3, nil},
		{"int accepts integral float", "i", float64(7), nil},
		{"int rejects fraction", "i", 2.5, ErrParamType},
		{"bool accepts bool", "b", true, nil},
		{"bool rejects number", "b", float64(1), ErrParamType},
		{"float rejects bool", "f", true, ErrParamType},
		{"unknown name", "nope", 1.0, ErrUnknownParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParams().DefineFloat("f", 0).DefineInt("i", 0).DefineBool("b", false)
			err := p.Set(tt.param, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Set() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParams_Getters(t *testing.T) {
	p := NewParams().DefineFloat("f", 1.5).DefineInt("i", 4).DefineBool("b", true)

	if p.Float("f") != 1.5 || p.Float("i") != 4 || p.Float("b") != 0 {
		t.Errorf("Float() widening wrong: %v %v %v", p.Float("f"), p.Float("i"), p.Float("b"))
	}
	if p.Int("i") != 4 || p.Int("f") != 0 {
		t.Errorf("Int() = %v / %v", p.Int("i"), p.Int("f"))
	}
	if !p.Bool("b") || p.Bool("missing") {
		t.Error("Bool() wrong")
	}

	b, err := p.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if want := `{"f":1.5,"i":4,"b":true}`; string(b) != want {
		t.Errorf("MarshalJSON() = %s, want %s", b, want)
	}
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", `{"aimsnap": {"snap_threshold": 12, "require_recent_fire": true}}`, false},
		{"empty", `{}`, false},
		{"string value", `{"aimsnap": {"snap_threshold": "12"}}`, true},
		{"detector not an object", `{"aimsnap": 5}`, true},
		{"top level array", `[1, 2]`, true},
		{"not json", `{`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParams([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseParams() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyParams(t *testing.T) {
	aim := NewAimSnap()
	oob := NewOOBPitch()
	detectors := []Detector{aim, oob, NewViewAngles180()}

	doc, err := ParseParams([]byte(`{
		"aimsnap": {"snap_threshold": 20, "spawn_window": 90, "bogus": 1},
		"oob_pitch": {"max_pitch": 80},
		"viewangles_180degrees": {"anything": 1},
		"not_selected": {"x": 1}
	}`))
	if err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}

	var buf bytes.Buffer
	if err := ApplyParams(detectors, doc, logging.NewTestLogger(&buf)); err != nil {
		t.Fatalf("ApplyParams() error = %v", err)
	}
	if aim.Params().Float(ParamSnapThreshold) != 20 {
		t.Errorf("snap_threshold = %v, want 20", aim.Params().Float(ParamSnapThreshold))
	}
	if aim.Params().Int(ParamSpawnWindow) != 90 {
		t.Errorf("spawn_window = %v, want 90", aim.Params().Int(ParamSpawnWindow))
	}
	if oob.Params().Float(ParamMaxPitch) != 80 {
		t.Errorf("max_pitch = %v, want 80", oob.Params().Float(ParamMaxPitch))
	}
	if !bytes.Contains(buf.Bytes(), []byte("Ignoring unknown parameter")) {
		t.Errorf("unknown parameter not logged: %s", buf.String())
	}

	bad, err := ParseParams([]byte(`{"aimsnap": {"snap_threshold": true}}`))
	if err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := ApplyParams(detectors, bad, logging.Nop()); !errors.Is(err, ErrParamType) {
		t.Errorf("ApplyParams() error = %v, want ErrParamType", err)
	}
}
