// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

var (
	// ErrUnknownParam is returned by Params.Set for a name that was never defined.
	ErrUnknownParam = errors.New("unknown parameter")

	// ErrParamType is returned by Params.Set when the value does not fit the
	// parameter's kind.
	ErrParamType = errors.New("parameter type mismatch")
)

// ParamKind is the value type of a tunable parameter.
type ParamKind uint8

const (
	ParamFloat ParamKind = iota
	ParamInt
	ParamBool
)

// String returns the JSON type name of the kind.
func (k ParamKind) String() string {
	switch k {
	case ParamFloat:
		return "float"
	case ParamInt:
		return "int"
	case ParamBool:
		return "bool"
	default:
		return "unknown"
	}
}

type param struct {
	name string
	kind ParamKind
	f    float64
	i    int64
	b    bool
}

func (p *param) value() any {
	switch p.kind {
	case ParamInt:
		return p.i
	case ParamBool:
		return p.b
	default:
		return p.f
	}
}

// Params is an ordered set of named detector parameters.
// Definition order is preserved for listing and JSON output.
type Params struct {
	list []param
}

// NewParams returns an empty parameter set.
func NewParams() *Params {
	return &Params{}
}

// DefineFloat defines a float parameter with a default value.
func (p *Params) DefineFloat(name string, v float64) *Params {
	p.define(param{name: name, kind: ParamFloat, f: v})
	return p
}

// DefineInt defines an integer parameter with a default value.
func (p *Params) DefineInt(name string, v int64) *Params {
	p.define(param{name: name, kind: ParamInt, i: v})
	return p
}

// DefineBool defines a boolean parameter with a default value.
func (p *Params) DefineBool(name string, v bool) *Params {
	p.define(param{name: name, kind: ParamBool, b: v})
	return p
}

func (p *Params) define(np param) {
	if existing := p.find(np.name); existing != nil {
		*existing = np
		return
	}
	p.list = append(p.list, np)
}

func (p *Params) find(name string) *param {
	for i := range p.list {
		if p.list[i].name == name {
			return &p.list[i]
		}
	}
	return nil
}

// Names returns the parameter names in definition order.
func (p *Params) Names() []string {
	names := make([]string, len(p.list))
	for i := range p.list {
		names[i] = p.list[i].name
	}
	return names
}

// Kind returns the kind of a parameter.
func (p *Params) Kind(name string) (ParamKind, bool) {
	if pr := p.find(name); pr != nil {
		return pr.kind, true
	}
	return 0, false
}

// Float returns a float parameter. Integer parameters are widened; unknown
// names and booleans read as 0.
func (p *Params) Float(name string) float64 {
	pr := p.find(name)
	if pr == nil {
		return 0
	}
	switch pr.kind {
	case ParamFloat:
		return pr.f
	case ParamInt:
		return float64(pr.i)
	default:
		return 0
	}
}

// Int returns an integer parameter, or 0.
func (p *Params) Int(name string) int64 {
	if pr := p.find(name); pr != nil && pr.kind == ParamInt {
		return pr.i
	}
	return 0
}

// Bool returns a boolean parameter, or false.
func (p *Params) Bool(name string) bool {
	if pr := p.find(name); pr != nil && pr.kind == ParamBool {
		return pr.b
	}
	return false
}

// Set overrides a parameter. Float parameters accept any number, integer
// parameters accept integral numbers, boolean parameters accept only bools.
func (p *Params) Set(name string, v any) error {
	pr := p.find(name)
	if pr == nil {
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}

	switch pr.kind {
	case ParamFloat:
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("%w: %s wants a number, got %T", ErrParamType, name, v)
		}
		pr.f = f
	case ParamInt:
		f, ok := toFloat(v)
		if !ok || f != math.Trunc(f) {
			return fmt.Errorf("%w: %s wants an integer, got %v", ErrParamType, name, v)
		}
		pr.i = int64(f)
	case ParamBool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: %s wants a bool, got %T", ErrParamType, name, v)
		}
		pr.b = b
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// MarshalJSON encodes the parameters as an object in definition order.
func (p *Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range p.list {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.list[i].name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.list[i].value())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
