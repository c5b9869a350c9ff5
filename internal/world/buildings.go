// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package world

import (
	"iter"
	"maps"
	"slices"

	"github.com/goccy/go-json"

	"github.com/tomtom215/demoscope/internal/demo"
)

// Buildings is a building map iterated in entity-handle order.
type Buildings struct {
	m    map[demo.EntityID]Building
	keys []demo.EntityID // sorted; nil after a structural change
}

// NewBuildings returns an empty map.
func NewBuildings() *Buildings {
	return &Buildings{m: make(map[demo.EntityID]Building)}
}

// Len returns the number of buildings.
func (b *Buildings) Len() int {
	if b == nil {
		return 0
	}
	return len(b.m)
}

// Get returns the building at handle.
func (b *Buildings) Get(handle demo.EntityID) (Building, bool) {
	if b == nil {
		return nil, false
	}
	bl, ok := b.m[handle]
	return bl, ok
}

// Handles returns the building handles in ascending order.
func (b *Buildings) Handles() []demo.EntityID {
	if b == nil {
		return nil
	}
	if b.keys == nil {
		b.keys = slices.Sorted(maps.Keys(b.m))
	}
	return b.keys
}

// All iterates buildings in ascending handle order.
func (b *Buildings) All() iter.Seq2[demo.EntityID, Building] {
	return func(yield func(demo.EntityID, Building) bool) {
		for _, h := range b.Handles() {
			if !yield(h, b.m[h]) {
				return
			}
		}
	}
}

func (b *Buildings) set(handle demo.EntityID, bl Building) {
	if _, exists := b.m[handle]; !exists {
		b.keys = nil
	}
	b.m[handle] = bl
}

// remove deletes handle; removing an absent handle is a no-op.
func (b *Buildings) remove(handle demo.EntityID) {
	if _, exists := b.m[handle]; exists {
		delete(b.m, handle)
		b.keys = nil
	}
}

func (b *Buildings) clear() {
	clear(b.m)
	b.keys = nil
}

// clone deep-copies every building so the copy survives later mutation.
func (b *Buildings) clone() *Buildings {
	c := &Buildings{m: make(map[demo.EntityID]Building, len(b.m))}
	for h, bl := range b.m {
		c.m[h] = bl.clone()
	}
	c.keys = b.Handles()
	return c
}

type taggedBuilding map[string]Building

// MarshalJSON encodes buildings as a handle-ordered list of
// {"<Kind>": {...}} objects.
func (b *Buildings) MarshalJSON() ([]byte, error) {
	out := make([]taggedBuilding, 0, b.Len())
	for _, bl := range b.All() {
		out = append(out, taggedBuilding{bl.Kind().String(): bl})
	}
	return json.Marshal(out)
}
