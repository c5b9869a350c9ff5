// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package demo

import (
	"bytes"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/goccy/go-json"
)

// ValueKind is the underlying type of a PropValue.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindInt
	KindFloat
	KindVector
	KindVectorXY
	KindString
	KindArray
)

// PropValue is a decoded property value.
// The zero value is KindNone and reads as zero through every accessor.
type PropValue struct {
	kind  ValueKind
	i     int64
	f     float32
	vec   mgl32.Vec3
	s     string
	array []PropValue
}

// IntValue returns an integer PropValue.
func IntValue(v int64) PropValue { return PropValue{kind: KindInt, i: v} }

// FloatValue returns a float PropValue.
func FloatValue(v float32) PropValue { return PropValue{kind: KindFloat, f: v} }

// VectorValue returns a 3D vector PropValue.
func VectorValue(v mgl32.Vec3) PropValue { return PropValue{kind: KindVector, vec: v} }

// VectorXYValue returns a 2D vector PropValue.
func VectorXYValue(v mgl32.Vec2) PropValue {
	return PropValue{kind: KindVectorXY, vec: v.Vec3(0)}
}

// StringValue returns a string PropValue.
func StringValue(v string) PropValue { return PropValue{kind: KindString, s: v} }

// ArrayValue returns an array PropValue.
func ArrayValue(v ...PropValue) PropValue { return PropValue{kind: KindArray, array: v} }

// Kind reports the underlying type.
func (v PropValue) Kind() ValueKind { return v.kind }

// Int returns the value of an integer prop, or 0.
func (v PropValue) Int() int64 {
	if v.kind == KindInt {
		return v.i
	}
	return 0
}

// Float returns the value of a float or integer prop, or 0.
func (v PropValue) Float() float32 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return float32(v.i)
	default:
		return 0
	}
}

// Bool reports whether an integer prop is non-zero.
func (v PropValue) Bool() bool {
	return v.Int() != 0
}

// Vector returns a 3D vector prop. A 2D vector is widened with z = 0.
func (v PropValue) Vector() mgl32.Vec3 {
	if v.kind == KindVector || v.kind == KindVectorXY {
		return v.vec
	}
	return mgl32.Vec3{}
}

// VectorXY returns the x/y components of a 2D or 3D vector prop.
func (v PropValue) VectorXY() mgl32.Vec2 {
	if v.kind == KindVector || v.kind == KindVectorXY {
		return v.vec.Vec2()
	}
	return mgl32.Vec2{}
}

// IsVector reports whether the prop holds a full 3D vector.
func (v PropValue) IsVector() bool { return v.kind == KindVector }

// Str returns a string prop, or "".
func (v PropValue) Str() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// Array returns the elements of an array prop, or nil.
func (v PropValue) Array() []PropValue {
	if v.kind == KindArray {
		return v.array
	}
	return nil
}

type propValueJSON struct {
	Int      *int64       `json:"int,omitempty"`
	Float    *float32     `json:"float,omitempty"`
	Vector   *[3]float32  `json:"vector,omitempty"`
	VectorXY *[2]float32  `json:"vectorxy,omitempty"`
	String   *string      `json:"string,omitempty"`
	Array    *[]PropValue `json:"array,omitempty"`
}

// MarshalJSON encodes the value as a single-key tagged object.
func (v PropValue) MarshalJSON() ([]byte, error) {
	var out propValueJSON
	switch v.kind {
	case KindNone:
		return []byte("null"), nil
	case KindInt:
		out.Int = &v.i
	case KindFloat:
		out.Float = &v.f
	case KindVector:
		vec := [3]float32(v.vec)
		out.Vector = &vec
	case KindVectorXY:
		xy := [2]float32(v.vec.Vec2())
		out.VectorXY = &xy
	case KindString:
		out.String = &v.s
	case KindArray:
		arr := v.array
		if arr == nil {
			arr = []PropValue{}
		}
		out.Array = &arr
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a tagged object. Exactly one tag must be set.
func (v *PropValue) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*v = PropValue{}
		return nil
	}
	var in propValueJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	set := 0
	if in.Int != nil {
		*v = IntValue(*in.Int)
		set++
	}
	if in.Float != nil {
		*v = FloatValue(*in.Float)
		set++
	}
	if in.Vector != nil {
		*v = VectorValue(mgl32.Vec3(*in.Vector))
		set++
	}
	if in.VectorXY != nil {
		*v = VectorXYValue(mgl32.Vec2(*in.VectorXY))
		set++
	}
	if in.String != nil {
		*v = StringValue(*in.String)
		set++
	}
	if in.Array != nil {
		*v = ArrayValue(*in.Array...)
		set++
	}
	if set != 1 {
		return fmt.Errorf("prop value must have exactly one type tag, got %d", set)
	}
	return nil
}
