// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package cache

// TickWindow keeps per-key samples for the last n ticks.
//
// Each call to Advance opens a new bucket for the current tick and drops the
// oldest one, so a key missing from any tick leaves a gap that Series
// reports. Buckets are reused to avoid allocating a map per tick.
//
// Complexity:
//   - Put / Get: O(1)
//   - Advance: O(k) where k = keys in the dropped bucket
//   - Memory: O(n * k)
type TickWindow[K comparable, V any] struct {
	buckets []map[K]V // circular buffer, buckets[current] is the newest tick
	current int
	filled  int // buckets opened so far, capped at len(buckets)
}

// NewTickWindow creates a window covering n ticks (minimum 1).
func NewTickWindow[K comparable, V any](n int) *TickWindow[K, V] {
	if n < 1 {
		n = 1
	}
	buckets := make([]map[K]V, n)
	for i := range buckets {
		buckets[i] = make(map[K]V)
	}
	return &TickWindow[K, V]{buckets: buckets, current: n - 1}
}

// Size returns the number of ticks covered.
func (w *TickWindow[K, V]) Size() int {
	return len(w.buckets)
}

// Filled reports whether n ticks have been opened.
func (w *TickWindow[K, V]) Filled() bool {
	return w.filled == len(w.buckets)
}

// Advance opens an empty bucket for a new tick, evicting the oldest.
func (w *TickWindow[K, V]) Advance() {
	w.current = (w.current + 1) % len(w.buckets)
	clear(w.buckets[w.current])
	if w.filled < len(w.buckets) {
		w.filled++
	}
}

// Put stores v for key in the current tick. Put before the first Advance
// is ignored.
func (w *TickWindow[K, V]) Put(key K, v V) {
	if w.filled == 0 {
		return
	}
	w.buckets[w.current][key] = v
}

// Get returns the sample for key age ticks ago (0 = current tick).
func (w *TickWindow[K, V]) Get(age int, key K) (V, bool) {
	var zero V
	if age < 0 || age >= w.filled {
		return zero, false
	}
	v, ok := w.buckets[w.index(age)][key]
	if !ok {
		return zero, false
	}
	return v, true
}

// Series appends the samples for key to dst, oldest first. It reports false
// unless the window is full and key is present in every tick.
func (w *TickWindow[K, V]) Series(key K, dst []V) ([]V, bool) {
	if !w.Filled() {
		return dst, false
	}
	n := len(w.buckets)
	start := len(dst)
	for age := n - 1; age >= 0; age-- {
		v, ok := w.buckets[w.index(age)][key]
		if !ok {
			return dst[:start], false
		}
		dst = append(dst, v)
	}
	return dst, true
}

// Keys calls fn for every key of the current tick.
func (w *TickWindow[K, V]) Keys(fn func(K)) {
	if w.filled == 0 {
		return
	}
	for k := range w.buckets[w.current] {
		fn(k)
	}
}

func (w *TickWindow[K, V]) index(age int) int {
	n := len(w.buckets)
	return ((w.current-age)%n + n) % n
}
